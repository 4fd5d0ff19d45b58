package httpdto

import (
	"encoding/json"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
)

// DeliveryRequest is a batch of widget keys to resolve.
type DeliveryRequest struct {
	Keys []domain.WidgetKey `json:"keys"`
}

// Widget is the delivered view of a record. Content passes through as the
// raw tree; clients interpret it.
type Widget struct {
	domain.WidgetKey
	Content       json.RawMessage `json:"content"`
	SchemaVersion int             `json:"schema_version"`
	DataVersion   int64           `json:"data_version"`
	MinIOSVersion int             `json:"min_ios_version,omitempty"`
}

// DeliveryResponse lists the records that passed the audience gate. Order is
// not guaranteed to match the request.
type DeliveryResponse struct {
	Widgets []Widget `json:"widgets"`
}

// UpsertWidgetRequest is the privileged direct write, bypassing the
// pipeline.
type UpsertWidgetRequest struct {
	domain.WidgetKey
	Content       json.RawMessage `json:"content"`
	SchemaVersion int             `json:"schema_version"`
	DataVersion   int64           `json:"data_version"`
}

func FromWidgetRecord(r *domain.WidgetRecord) Widget {
	return Widget{
		WidgetKey:     r.WidgetKey,
		Content:       r.Content,
		SchemaVersion: r.SchemaVersion,
		DataVersion:   r.DataVersion,
		MinIOSVersion: r.MinIOSVersion,
	}
}

func FromWidgetRecordSlice(records []*domain.WidgetRecord) []Widget {
	out := make([]Widget, 0, len(records))
	for _, r := range records {
		out = append(out, FromWidgetRecord(r))
	}
	return out
}
