package domain

import "encoding/json"

// EventTypeSnapshotUpsert is the single event type flowing through the
// pipeline today: a full widget snapshot replacing whatever is stored.
const EventTypeSnapshotUpsert = "WIDGET_SNAPSHOT_UPSERT"

// WidgetEvent is the wire payload carried inside a stream entry. It is
// produced by the outbox publisher and applied by the ingester.
type WidgetEvent struct {
	EventID string `json:"event_id"`
	WidgetKey
	SchemaVersion int             `json:"schema_version"`
	DataVersion   int64           `json:"data_version"`
	MinIOSVersion int             `json:"min_ios_version,omitempty"`
	Content       json.RawMessage `json:"content"`
}

// Record converts the event into the store representation.
func (e *WidgetEvent) Record() *WidgetRecord {
	return &WidgetRecord{
		WidgetKey:     e.WidgetKey,
		Content:       e.Content,
		SchemaVersion: e.SchemaVersion,
		DataVersion:   e.DataVersion,
		MinIOSVersion: e.MinIOSVersion,
	}
}
