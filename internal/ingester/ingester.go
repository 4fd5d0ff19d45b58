// Package ingester consumes widget events from the stream and applies them
// to the versioned store and the cache. Application is idempotent: the
// store's version gate makes duplicate and out-of-order delivery harmless,
// so every failure mode here resolves to "leave the entry pending and let
// redelivery re-run the same apply".
package ingester

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
	"github.com/Nawaf-TBE/home-widget-platform/internal/metrics"
	"github.com/Nawaf-TBE/home-widget-platform/internal/repository"
	"github.com/Nawaf-TBE/home-widget-platform/internal/stream"
	"github.com/Nawaf-TBE/home-widget-platform/internal/validate"
	"github.com/Nawaf-TBE/home-widget-platform/pkg/logger"
)

// Cache is the slice of the widget cache the ingester needs.
type Cache interface {
	Put(ctx context.Context, record *domain.WidgetRecord, ttl time.Duration) error
}

// Config tunes the two consumer loops.
type Config struct {
	StreamKey       string
	Group           string
	Consumer        string
	ReadBlock       time.Duration
	ReadRetrySleep  time.Duration
	ReclaimInterval time.Duration
	ReclaimMinIdle  time.Duration
	ReclaimBatch    int
	CacheTTL        time.Duration
}

type Ingester struct {
	broker stream.Broker
	store  repository.WidgetRepository
	cache  Cache
	log    *logger.Logger
	cfg    Config
}

func New(broker stream.Broker, store repository.WidgetRepository, cache Cache, log *logger.Logger, cfg Config) *Ingester {
	return &Ingester{
		broker: broker,
		store:  store,
		cache:  cache,
		log:    log,
		cfg:    cfg,
	}
}

// Run ensures the consumer group exists, then drives the primary read loop
// and the reclaim loop until ctx is cancelled. Both loops share the same
// consumer identity and the same idempotent apply.
func (i *Ingester) Run(ctx context.Context) error {
	if err := i.broker.EnsureGroup(ctx, i.cfg.StreamKey, i.cfg.Group); err != nil {
		return err
	}
	i.log.Infof("ingester started (stream=%s group=%s consumer=%s)",
		i.cfg.StreamKey, i.cfg.Group, i.cfg.Consumer)

	go i.reclaimLoop(ctx)
	i.readLoop(ctx)
	return nil
}

// readLoop continuously pulls one new entry at a time. The bounded blocking
// read keeps shutdown responsive without polling hot.
func (i *Ingester) readLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			i.log.Infof("ingester read loop stopped")
			return
		}

		entries, err := i.broker.ReadGroup(ctx, i.cfg.StreamKey, i.cfg.Group, i.cfg.Consumer, 1, i.cfg.ReadBlock)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			i.log.Errorf("stream read failed: %s", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(i.cfg.ReadRetrySleep):
			}
			continue
		}

		for _, entry := range entries {
			i.ProcessEntry(ctx, entry)
		}
	}
}

// reclaimLoop periodically claims entries another consumer read but never
// acknowledged, so work abandoned by a crashed consumer is not lost.
func (i *Ingester) reclaimLoop(ctx context.Context) {
	ticker := time.NewTicker(i.cfg.ReclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			i.log.Infof("ingester reclaim loop stopped")
			return
		case <-ticker.C:
		}

		entries, err := i.broker.AutoClaim(ctx, i.cfg.StreamKey, i.cfg.Group, i.cfg.Consumer, i.cfg.ReclaimMinIdle, i.cfg.ReclaimBatch)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			i.log.Errorf("reclaim failed: %s", err)
			continue
		}
		if len(entries) == 0 {
			continue
		}

		i.log.Infof("reclaimed %d pending entries", len(entries))
		metrics.EntriesReclaimed.Add(float64(len(entries)))
		for _, entry := range entries {
			i.ProcessEntry(ctx, entry)
		}
	}
}

// ProcessEntry is the idempotent apply step shared by both loops: parse,
// validate, upsert, cache, acknowledge. Returning without acknowledging
// leaves the entry pending for the reclaim loop.
func (i *Ingester) ProcessEntry(ctx context.Context, entry stream.Entry) {
	raw := entry.Values["event"]
	if raw == "" {
		// Older producers wrote the serialized event under "payload".
		raw = entry.Values["payload"]
	}
	if raw == "" {
		metrics.EventsInvalid.Inc()
		i.log.Errorf("entry %s has no event or payload field, leaving pending", entry.ID)
		return
	}

	var event domain.WidgetEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		metrics.EventsInvalid.Inc()
		i.log.Errorf("entry %s does not parse, leaving pending: %s", entry.ID, err)
		return
	}

	if err := validate.Event(&event); err != nil {
		metrics.EventsInvalid.Inc()
		i.log.Errorf("entry %s failed validation, leaving pending: %s", entry.ID, err)
		return
	}

	record := event.Record()
	applied, err := i.store.Upsert(ctx, record)
	if err != nil {
		i.log.Errorf("entry %s store write failed, leaving pending: %s", entry.ID, err)
		return
	}
	if applied {
		metrics.EventsApplied.Inc()
	} else {
		metrics.EventsStale.Inc()
		i.log.Infof("entry %s carries stale data_version %d for %s, store unchanged",
			entry.ID, event.DataVersion, event.CacheKey())
	}

	// The cache write runs unconditionally so a redelivered entry repeats
	// the exact same steps. The store stays authoritative either way.
	if err := i.cache.Put(ctx, record, i.cfg.CacheTTL); err != nil {
		i.log.Errorf("entry %s cache write failed, leaving pending: %s", entry.ID, err)
		return
	}

	if err := i.broker.Ack(ctx, i.cfg.StreamKey, i.cfg.Group, entry.ID); err != nil {
		// Redelivery re-runs the same idempotent apply.
		i.log.Errorf("entry %s ack failed: %s", entry.ID, err)
		return
	}
	i.log.Infof("processed and acked entry %s (event %s)", entry.ID, event.EventID)
}
