package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
)

type widgetRepository struct {
	pool *pgxpool.Pool
}

func NewWidgetRepository(pool *pgxpool.Pool) WidgetRepository {
	return &widgetRepository{pool: pool}
}

// Upsert is a single atomic conditional write: the WHERE clause on the
// conflict update is what makes concurrent and out-of-order application of
// the same key safe. Never split this into a read followed by a write.
func (r *widgetRepository) Upsert(ctx context.Context, record *domain.WidgetRecord) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
        INSERT INTO widgets (
            product_id, platform, audience_type, audience_id, widget_key,
            content, schema_version, data_version, min_ios_version, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        ON CONFLICT (product_id, platform, audience_type, audience_id, widget_key)
        DO UPDATE SET
            content = EXCLUDED.content,
            schema_version = EXCLUDED.schema_version,
            data_version = EXCLUDED.data_version,
            min_ios_version = EXCLUDED.min_ios_version,
            updated_at = NOW()
        WHERE widgets.data_version < EXCLUDED.data_version
    `,
		record.ProductID,
		record.Platform,
		record.AudienceType,
		record.AudienceID,
		record.Key,
		record.Content,
		record.SchemaVersion,
		record.DataVersion,
		record.MinIOSVersion,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert widget: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *widgetRepository) Get(ctx context.Context, key domain.WidgetKey) (*domain.WidgetRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var record domain.WidgetRecord
	err := r.pool.QueryRow(ctx, `
        SELECT product_id, platform, audience_type, audience_id, widget_key,
               content, schema_version, data_version, min_ios_version, created_at, updated_at
        FROM widgets
        WHERE product_id = $1 AND platform = $2 AND audience_type = $3
          AND audience_id = $4 AND widget_key = $5
    `,
		key.ProductID, key.Platform, key.AudienceType, key.AudienceID, key.Key,
	).Scan(
		&record.ProductID,
		&record.Platform,
		&record.AudienceType,
		&record.AudienceID,
		&record.Key,
		&record.Content,
		&record.SchemaVersion,
		&record.DataVersion,
		&record.MinIOSVersion,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get widget: %w", err)
	}
	return &record, nil
}
