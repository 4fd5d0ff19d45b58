package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentNode_UnmarshalKnownVariants(t *testing.T) {
	raw := `{
		"type": "widget_container",
		"title": "Your Deals",
		"items": [
			{"type": "text_row", "text": "Top Deals For You"},
			{"type": "action_button", "label": "View All", "deeplink": "app://deals"}
		]
	}`

	var node ComponentNode
	require.NoError(t, json.Unmarshal([]byte(raw), &node))

	container, ok := node.Component.(*Container)
	require.True(t, ok)
	assert.Equal(t, "Your Deals", container.Title)
	require.Len(t, container.Items, 2)

	text, ok := container.Items[0].Component.(*TextRow)
	require.True(t, ok)
	assert.Equal(t, "Top Deals For You", text.Text)

	button, ok := container.Items[1].Component.(*ActionButton)
	require.True(t, ok)
	assert.Equal(t, "View All", button.Label)
	assert.Equal(t, "app://deals", button.Deeplink)
}

func TestComponentNode_UnknownVariantRoundTrips(t *testing.T) {
	raw := `{"type":"hero_image","url":"https://cdn.example.com/a.png"}`

	var node ComponentNode
	require.NoError(t, json.Unmarshal([]byte(raw), &node))

	unknown, ok := node.Component.(*UnknownComponent)
	require.True(t, ok)
	assert.Equal(t, "hero_image", unknown.Type)

	// Re-encoding preserves the original bytes so newer readers still see
	// the full component.
	out, err := json.Marshal(node)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestComponentNode_MarshalRoundTrip(t *testing.T) {
	node := ComponentNode{Component: &Container{
		Type:  ComponentContainer,
		Title: "Saved",
		Items: []ComponentNode{
			{Component: &TextRow{Type: ComponentTextRow, Text: "hello"}},
		},
	}}

	out, err := json.Marshal(node)
	require.NoError(t, err)

	var decoded ComponentNode
	require.NoError(t, json.Unmarshal(out, &decoded))
	container, ok := decoded.Component.(*Container)
	require.True(t, ok)
	assert.Equal(t, "Saved", container.Title)
	require.Len(t, container.Items, 1)
}

func TestComponentNode_MissingTypeTag(t *testing.T) {
	var node ComponentNode
	err := json.Unmarshal([]byte(`"not an object"`), &node)
	assert.Error(t, err)
}

func TestWidgetKey_CacheKey(t *testing.T) {
	key := WidgetKey{
		ProductID:    "deals_app",
		Platform:     "web",
		AudienceType: "user",
		AudienceID:   "u1",
		Key:          "top_deals",
	}
	assert.Equal(t, "widget:deals_app:web:user:u1:top_deals", key.CacheKey())
}

func TestWidgetKey_Complete(t *testing.T) {
	key := WidgetKey{
		ProductID:    "deals_app",
		Platform:     "web",
		AudienceType: "user",
		AudienceID:   "u1",
		Key:          "top_deals",
	}
	assert.True(t, key.Complete())

	key.AudienceID = ""
	assert.False(t, key.Complete())
}
