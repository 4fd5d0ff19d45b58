package service

import (
	"context"
	"time"

	"github.com/Nawaf-TBE/home-widget-platform/internal/cache"
	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
	"github.com/Nawaf-TBE/home-widget-platform/internal/metrics"
	"github.com/Nawaf-TBE/home-widget-platform/internal/repository"
	platform_errors "github.com/Nawaf-TBE/home-widget-platform/pkg/errors"
	"github.com/Nawaf-TBE/home-widget-platform/pkg/logger"
)

// Cache is the slice of the widget cache the delivery path needs.
type Cache interface {
	GetMany(ctx context.Context, keys []domain.WidgetKey) ([]*domain.WidgetRecord, []domain.WidgetKey)
	Put(ctx context.Context, record *domain.WidgetRecord, ttl time.Duration) error
	Invalidate(ctx context.Context, key domain.WidgetKey) error
}

var _ Cache = (*cache.WidgetCache)(nil)

// homeWidgets is the fixed set resolved for the home screen.
var homeWidgets = []struct {
	ProductID string
	Key       string
}{
	{ProductID: "deals_app", Key: "top_deals"},
}

// DeliveryService is the read path: cache first, store on miss, audience
// gate on everything.
type DeliveryService struct {
	store    repository.WidgetRepository
	cache    Cache
	log      *logger.Logger
	shortTTL time.Duration
}

func NewDeliveryService(store repository.WidgetRepository, c Cache, log *logger.Logger, shortTTL time.Duration) *DeliveryService {
	return &DeliveryService{
		store:    store,
		cache:    c,
		log:      log,
		shortTTL: shortTTL,
	}
}

// Resolve answers a batch of widget keys for the given requester. Keys with
// no record and keys suppressed by the audience gate are omitted rather than
// reported, so callers cannot probe for other users' records.
func (s *DeliveryService) Resolve(ctx context.Context, keys []domain.WidgetKey, requester Identity) ([]*domain.WidgetRecord, error) {
	results := make([]*domain.WidgetRecord, 0, len(keys))

	hits, misses := s.cache.GetMany(ctx, keys)
	for _, record := range hits {
		// The gate runs again for cache hits: the entry was written for
		// whatever requester populated it, not for this one.
		if !s.gate(record, requester) {
			continue
		}
		results = append(results, record)
	}

	for _, key := range misses {
		record, err := s.store.Get(ctx, key)
		if err != nil {
			s.log.Errorf("widget store lookup failed: %s", err)
			return nil, platform_errors.ErrServiceUnavailable
		}
		if record == nil {
			continue
		}
		if !s.gate(record, requester) {
			continue
		}

		if err := s.cache.Put(ctx, record, s.shortTTL); err != nil {
			s.log.Warnf("cache backfill failed for %s: %s", record.CacheKey(), err)
		}
		results = append(results, record)
	}

	return results, nil
}

// HomeWidgets resolves the home-screen widget set for a user on a platform,
// preferring the user-scoped record and falling back to the global default.
func (s *DeliveryService) HomeWidgets(ctx context.Context, platform, userID string) ([]*domain.WidgetRecord, error) {
	var results []*domain.WidgetRecord
	for _, w := range homeWidgets {
		record, err := s.store.Get(ctx, domain.WidgetKey{
			ProductID:    w.ProductID,
			Platform:     platform,
			AudienceType: domain.AudienceUser,
			AudienceID:   userID,
			Key:          w.Key,
		})
		if err != nil {
			s.log.Errorf("widget store lookup failed: %s", err)
			return nil, platform_errors.ErrServiceUnavailable
		}
		if record == nil {
			record, err = s.store.Get(ctx, domain.WidgetKey{
				ProductID:    w.ProductID,
				Platform:     platform,
				AudienceType: domain.AudienceDefault,
				AudienceID:   "global",
				Key:          w.Key,
			})
			if err != nil {
				s.log.Errorf("widget store lookup failed: %s", err)
				return nil, platform_errors.ErrServiceUnavailable
			}
		}
		if record != nil {
			results = append(results, record)
		}
	}
	return results, nil
}

// AdminUpsert writes directly to the store, bypassing the event pipeline,
// and invalidates the cached copy instead of repopulating it.
func (s *DeliveryService) AdminUpsert(ctx context.Context, record *domain.WidgetRecord) error {
	if _, err := s.store.Upsert(ctx, record); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, record.WidgetKey); err != nil {
		s.log.Warnf("cache invalidation failed for %s: %s", record.CacheKey(), err)
	}
	return nil
}

func (s *DeliveryService) gate(record *domain.WidgetRecord, requester Identity) bool {
	if record.AudienceType == domain.AudienceUser && record.AudienceID != requester.UserID {
		metrics.WidgetsGated.Inc()
		return false
	}
	return true
}
