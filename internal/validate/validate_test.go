package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
)

func validEvent(t *testing.T) *domain.WidgetEvent {
	t.Helper()
	content := `{
		"schema_version": 1,
		"data_version": 3,
		"root": {
			"type": "widget_container",
			"title": "Top Deals",
			"items": [{"type": "text_row", "text": "hello"}]
		}
	}`
	return &domain.WidgetEvent{
		EventID: "evt-1",
		WidgetKey: domain.WidgetKey{
			ProductID:    "deals_app",
			Platform:     domain.PlatformWeb,
			AudienceType: domain.AudienceDefault,
			AudienceID:   "global",
			Key:          "top_deals",
		},
		SchemaVersion: 1,
		DataVersion:   3,
		Content:       json.RawMessage(content),
	}
}

func TestEvent_Valid(t *testing.T) {
	require.NoError(t, Event(validEvent(t)))
}

func TestEvent_ValidUserAudience(t *testing.T) {
	evt := validEvent(t)
	evt.AudienceType = domain.AudienceUser
	evt.AudienceID = "u1"
	require.NoError(t, Event(evt))
}

func TestEvent_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.WidgetEvent)
	}{
		{"missing event_id", func(e *domain.WidgetEvent) { e.EventID = "" }},
		{"missing product_id", func(e *domain.WidgetEvent) { e.ProductID = "" }},
		{"missing widget_key", func(e *domain.WidgetEvent) { e.Key = "" }},
		{"unknown platform", func(e *domain.WidgetEvent) { e.Platform = "android" }},
		{"unknown audience_type", func(e *domain.WidgetEvent) { e.AudienceType = "segment" }},
		{"zero schema_version", func(e *domain.WidgetEvent) { e.SchemaVersion = 0 }},
		{"zero data_version", func(e *domain.WidgetEvent) { e.DataVersion = 0 }},
		{"empty content", func(e *domain.WidgetEvent) { e.Content = nil }},
		{"content does not parse", func(e *domain.WidgetEvent) { e.Content = json.RawMessage(`{"root":`) }},
		{"missing root", func(e *domain.WidgetEvent) { e.Content = json.RawMessage(`{"schema_version":1,"data_version":3}`) }},
		{"unknown root component", func(e *domain.WidgetEvent) {
			e.Content = json.RawMessage(`{"schema_version":1,"data_version":3,"root":{"type":"hero_image"}}`)
		}},
		{"unknown nested component", func(e *domain.WidgetEvent) {
			e.Content = json.RawMessage(`{"schema_version":1,"data_version":3,"root":{"type":"widget_container","items":[{"type":"carousel"}]}}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := validEvent(t)
			tt.mutate(evt)
			assert.Error(t, Event(evt))
		})
	}
}
