package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
)

type outboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) OutboxRepository {
	return &outboxRepository{pool: pool}
}

func (r *outboxRepository) CreateIntent(ctx context.Context, intent *domain.OutboxIntent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.pool.QueryRow(ctx, `
        INSERT INTO outbox (aggregate_id, event_type, payload)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `,
		intent.AggregateID, intent.EventType, intent.Payload,
	).Scan(&intent.ID, &intent.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create outbox intent: %w", err)
	}
	return nil
}

func (r *outboxRepository) PublishPending(ctx context.Context, limit, maxRetries int, publish func(context.Context, *domain.OutboxIntent) error) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin outbox transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// SKIP LOCKED partitions the table between concurrent publisher
	// instances; a row being worked by someone else is simply not selected.
	rows, err := tx.Query(ctx, `
        SELECT id, aggregate_id, event_type, payload, retry_count, created_at
        FROM outbox
        WHERE published_at IS NULL AND failed_at IS NULL
        ORDER BY created_at ASC, id ASC
        LIMIT $1
        FOR UPDATE SKIP LOCKED
    `, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to select outbox rows: %w", err)
	}

	var batch []domain.OutboxIntent
	for rows.Next() {
		var intent domain.OutboxIntent
		if err := rows.Scan(
			&intent.ID,
			&intent.AggregateID,
			&intent.EventType,
			&intent.Payload,
			&intent.RetryCount,
			&intent.CreatedAt,
		); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		batch = append(batch, intent)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read outbox rows: %w", err)
	}

	if len(batch) == 0 {
		return 0, tx.Commit(ctx)
	}

	ids := make([]int64, len(batch))
	for i := range batch {
		ids[i] = batch[i].ID
	}

	for i := range batch {
		if err := publish(ctx, &batch[i]); err != nil {
			// Roll back so nothing is marked published, then account for
			// the failure outside the aborted transaction. The appends
			// that already succeeded may be delivered again; the
			// version-gated upsert downstream absorbs the duplicates.
			_ = tx.Rollback(ctx)
			r.recordFailure(ctx, ids, maxRetries, err)
			return 0, fmt.Errorf("failed to publish outbox batch: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
        UPDATE outbox SET published_at = NOW() WHERE id = ANY($1)
    `, ids); err != nil {
		_ = tx.Rollback(ctx)
		r.recordFailure(ctx, ids, maxRetries, err)
		return 0, fmt.Errorf("failed to mark outbox rows published: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.recordFailure(ctx, ids, maxRetries, err)
		return 0, fmt.Errorf("failed to commit outbox batch: %w", err)
	}
	return len(batch), nil
}

// recordFailure runs in its own transaction, after the publishing one has
// rolled back. Rows past the retry threshold get failed_at set and become
// inert; they stay in the table for diagnostics.
func (r *outboxRepository) recordFailure(ctx context.Context, ids []int64, maxRetries int, cause error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
        UPDATE outbox
        SET retry_count = retry_count + 1,
            last_error = $2,
            failed_at = CASE WHEN retry_count + 1 > $3 THEN NOW() ELSE NULL END
        WHERE id = ANY($1)
    `, ids, cause.Error(), maxRetries)
	if err != nil {
		// Nothing left to do but surface it; the rows stay selectable and
		// will be retried on the next cycle.
		fmt.Printf("failed to update outbox retry counts: %v\n", err)
	}
}
