package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Audience types understood by the delivery gate.
const (
	AudienceUser    = "user"
	AudienceDefault = "default"
)

// Platforms accepted on the ingest path.
const (
	PlatformWeb = "web"
	PlatformIOS = "ios"
)

const cacheKeyPrefix = "widget"

// WidgetKey is the five-part identity of a widget instance. No single field
// is unique; the tuple is.
type WidgetKey struct {
	ProductID    string `json:"product_id"`
	Platform     string `json:"platform"`
	AudienceType string `json:"audience_type"`
	AudienceID   string `json:"audience_id"`
	Key          string `json:"widget_key"`
}

// CacheKey renders the fixed colon-delimited cache key, e.g.
// widget:deals_app:web:user:u1:top_deals.
func (k WidgetKey) CacheKey() string {
	return strings.Join([]string{
		cacheKeyPrefix, k.ProductID, k.Platform, k.AudienceType, k.AudienceID, k.Key,
	}, ":")
}

// Complete reports whether every identity field is set.
func (k WidgetKey) Complete() bool {
	return k.ProductID != "" && k.Platform != "" && k.AudienceType != "" &&
		k.AudienceID != "" && k.Key != ""
}

// WidgetRecord is the store's view of a widget: identity, content payload and
// the monotonic data version guarding updates. Content is kept as raw JSON;
// the gateway passes it through untouched and only the ingest path decodes it.
type WidgetRecord struct {
	WidgetKey
	Content       json.RawMessage `json:"content"`
	SchemaVersion int             `json:"schema_version"`
	DataVersion   int64           `json:"data_version"`
	MinIOSVersion int             `json:"min_ios_version,omitempty"`
	CreatedAt     time.Time       `json:"created_at,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at,omitempty"`
}
