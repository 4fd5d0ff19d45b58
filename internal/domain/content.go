package domain

import (
	"encoding/json"
	"fmt"
)

// Component type tags recognized by the current content schema.
const (
	ComponentContainer    = "widget_container"
	ComponentTextRow      = "text_row"
	ComponentActionButton = "action_button"
)

// WidgetContent is the decoded content payload of an event: a versioned
// wrapper around the component tree.
type WidgetContent struct {
	SchemaVersion int            `json:"schema_version"`
	DataVersion   int64          `json:"data_version"`
	Root          *ComponentNode `json:"root"`
}

// Component is one variant of the widget component tree.
type Component interface {
	ComponentType() string
}

// Container groups child components under an optional title.
type Container struct {
	Type  string          `json:"type"`
	Title string          `json:"title,omitempty"`
	Items []ComponentNode `json:"items"`
}

func (c *Container) ComponentType() string { return ComponentContainer }

// TextRow is a single line of display text.
type TextRow struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (t *TextRow) ComponentType() string { return ComponentTextRow }

// ActionButton is a tappable label carrying a deeplink.
type ActionButton struct {
	Type     string `json:"type"`
	Label    string `json:"label"`
	Deeplink string `json:"deeplink,omitempty"`
}

func (a *ActionButton) ComponentType() string { return ComponentActionButton }

// UnknownComponent preserves a component variant this build does not
// recognize. It decodes, re-encodes and renders as a no-op instead of
// failing, so newer writers don't break older readers.
type UnknownComponent struct {
	Type string
	Raw  json.RawMessage
}

func (u *UnknownComponent) ComponentType() string { return u.Type }

// ComponentNode wraps a Component so the tree can be decoded from and
// re-encoded to the tagged JSON representation.
type ComponentNode struct {
	Component Component
}

func (n *ComponentNode) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("component missing type tag: %w", err)
	}

	switch probe.Type {
	case ComponentContainer:
		var c Container
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		n.Component = &c
	case ComponentTextRow:
		var t TextRow
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		n.Component = &t
	case ComponentActionButton:
		var a ActionButton
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		n.Component = &a
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		n.Component = &UnknownComponent{Type: probe.Type, Raw: raw}
	}
	return nil
}

func (n ComponentNode) MarshalJSON() ([]byte, error) {
	if u, ok := n.Component.(*UnknownComponent); ok {
		return u.Raw, nil
	}
	return json.Marshal(n.Component)
}
