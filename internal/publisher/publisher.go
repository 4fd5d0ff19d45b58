// Package publisher drains the transactional outbox onto the event stream.
// Appending to the stream is not transactional with the database, so a crash
// between append and commit redelivers; the consumer's idempotent apply makes
// that safe.
package publisher

import (
	"context"
	"time"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
	"github.com/Nawaf-TBE/home-widget-platform/internal/metrics"
	"github.com/Nawaf-TBE/home-widget-platform/internal/repository"
	"github.com/Nawaf-TBE/home-widget-platform/internal/stream"
	"github.com/Nawaf-TBE/home-widget-platform/pkg/logger"
)

// PayloadField is the stream entry field the serialized event is written to.
const PayloadField = "event"

type Publisher struct {
	repo       repository.OutboxRepository
	broker     stream.Broker
	log        *logger.Logger
	streamKey  string
	batchSize  int
	maxRetries int
	sleep      time.Duration
	backoff    time.Duration
}

func New(repo repository.OutboxRepository, broker stream.Broker, log *logger.Logger, streamKey string, batchSize, maxRetries int, sleep, backoff time.Duration) *Publisher {
	return &Publisher{
		repo:       repo,
		broker:     broker,
		log:        log,
		streamKey:  streamKey,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		sleep:      sleep,
		backoff:    backoff,
	}
}

// Run repeats publish cycles until ctx is cancelled. A failed cycle backs
// off longer than a clean one so broker outages don't hot-loop.
func (p *Publisher) Run(ctx context.Context) {
	p.log.Infof("outbox publisher started (stream=%s batch=%d)", p.streamKey, p.batchSize)
	for {
		n, err := p.Cycle(ctx)

		delay := p.sleep
		if err != nil {
			metrics.OutboxCycleErrors.Inc()
			p.log.Errorf("outbox cycle failed: %s", err)
			delay = p.backoff
		} else if n > 0 {
			p.log.Infof("published %d outbox events", n)
		}

		select {
		case <-ctx.Done():
			p.log.Infof("outbox publisher stopped")
			return
		case <-time.After(delay):
		}
	}
}

// Cycle publishes one locked batch of outbox rows and returns how many were
// marked published. Retry accounting on failure is handled inside the
// repository, in a transaction separate from the publishing one.
func (p *Publisher) Cycle(ctx context.Context) (int, error) {
	n, err := p.repo.PublishPending(ctx, p.batchSize, p.maxRetries, func(ctx context.Context, intent *domain.OutboxIntent) error {
		_, err := p.broker.Append(ctx, p.streamKey, map[string]string{
			PayloadField: string(intent.Payload),
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.OutboxPublished.Add(float64(n))
	return n, nil
}
