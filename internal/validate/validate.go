// Package validate checks incoming widget events against the content
// contract before they are applied to the store. The schema is closed: an
// event referencing a platform or component type this build does not know is
// rejected and stays pending on the stream.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
)

var platforms = map[string]bool{
	domain.PlatformWeb: true,
	domain.PlatformIOS: true,
}

var audienceTypes = map[string]bool{
	domain.AudienceUser:    true,
	domain.AudienceDefault: true,
}

// Event validates a parsed widget event: identity fields, enumerations,
// version numbers and the embedded component tree.
func Event(evt *domain.WidgetEvent) error {
	if evt.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if !evt.WidgetKey.Complete() {
		return fmt.Errorf("incomplete widget key: %+v", evt.WidgetKey)
	}
	if !platforms[evt.Platform] {
		return fmt.Errorf("unknown platform %q", evt.Platform)
	}
	if !audienceTypes[evt.AudienceType] {
		return fmt.Errorf("unknown audience_type %q", evt.AudienceType)
	}
	if evt.SchemaVersion < 1 {
		return fmt.Errorf("schema_version must be >= 1, got %d", evt.SchemaVersion)
	}
	if evt.DataVersion < 1 {
		return fmt.Errorf("data_version must be >= 1, got %d", evt.DataVersion)
	}
	if len(evt.Content) == 0 {
		return fmt.Errorf("content is required")
	}

	var content domain.WidgetContent
	if err := json.Unmarshal(evt.Content, &content); err != nil {
		return fmt.Errorf("content does not parse: %w", err)
	}
	if content.Root == nil {
		return fmt.Errorf("content.root is required")
	}
	return component(*content.Root)
}

func component(node domain.ComponentNode) error {
	switch c := node.Component.(type) {
	case *domain.Container:
		for _, item := range c.Items {
			if err := component(item); err != nil {
				return err
			}
		}
		return nil
	case *domain.TextRow, *domain.ActionButton:
		return nil
	case *domain.UnknownComponent:
		return fmt.Errorf("unknown component type %q", c.Type)
	default:
		return fmt.Errorf("empty component node")
	}
}
