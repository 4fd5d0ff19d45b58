package repository

import (
	"context"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
)

// WidgetRepository is the versioned store backing widget delivery.
type WidgetRepository interface {
	// Upsert applies the record only if its data_version is strictly
	// greater than the stored one. Returns whether the write was applied;
	// a stale write is not an error.
	Upsert(ctx context.Context, record *domain.WidgetRecord) (bool, error)

	// Get returns the current record, or nil without error when the
	// identity is unknown.
	Get(ctx context.Context, key domain.WidgetKey) (*domain.WidgetRecord, error)
}

// OutboxRepository drains the product-side outbox table.
type OutboxRepository interface {
	// CreateIntent inserts a new outbox row. The write-side collaborator
	// calls this inside its own domain transaction.
	CreateIntent(ctx context.Context, intent *domain.OutboxIntent) error

	// PublishPending selects up to limit unpublished rows under a
	// row-locking read skipping rows locked by concurrent publishers, runs
	// publish for each, and marks the whole batch published in the same
	// transaction. On any failure the transaction is rolled back and retry
	// accounting for the selected rows happens in a separate transaction:
	// retry_count is incremented, last_error recorded, and failed_at set
	// once retry_count passes maxRetries. Returns the number of rows
	// published.
	PublishPending(ctx context.Context, limit, maxRetries int, publish func(context.Context, *domain.OutboxIntent) error) (int, error)
}
