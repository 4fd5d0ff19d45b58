package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Outbox publisher metrics
	OutboxPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_outbox_published_total",
			Help: "Total number of outbox rows published to the event stream",
		},
	)

	OutboxCycleErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_outbox_cycle_errors_total",
			Help: "Total number of failed outbox publish cycles",
		},
	)

	// Ingester metrics
	EventsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_events_applied_total",
			Help: "Total number of stream events applied to the store",
		},
	)

	EventsStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_events_stale_total",
			Help: "Total number of events skipped by the version gate",
		},
	)

	EventsInvalid = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_events_invalid_total",
			Help: "Total number of events that failed parsing or validation",
		},
	)

	EntriesReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_entries_reclaimed_total",
			Help: "Total number of pending stream entries reclaimed from dead consumers",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_cache_hits_total",
			Help: "Total number of widget cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_cache_misses_total",
			Help: "Total number of widget cache misses",
		},
	)

	// Delivery metrics
	DeliveryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_delivery_requests_total",
			Help: "Total number of delivery requests",
		},
		[]string{"status"},
	)

	WidgetsGated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_delivery_gated_total",
			Help: "Total number of records suppressed by the audience gate",
		},
	)
)
