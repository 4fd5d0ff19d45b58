package domain

import (
	"encoding/json"
	"time"
)

// OutboxIntent is a row in the product-side outbox table. It is written in
// the same transaction as the domain change it describes, and only ever
// mutated by the publisher afterwards.
type OutboxIntent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	RetryCount  int
	LastError   *string
	CreatedAt   time.Time
	PublishedAt *time.Time
	FailedAt    *time.Time
}
