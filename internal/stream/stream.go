// Package stream defines the client-side protocol the pipeline needs from an
// append-only event log with consumer groups: durable append, group read
// with per-entry acknowledgment, and reclamation of entries abandoned by a
// dead consumer.
package stream

import (
	"context"
	"time"
)

// Entry is one durably logged record, identified by a broker-assigned id.
type Entry struct {
	ID     string
	Values map[string]string
}

// Broker is the minimal contract the publisher and ingester depend on. The
// Redis implementation backs production; the in-memory one backs tests.
type Broker interface {
	// Append durably logs values and returns the assigned entry id.
	Append(ctx context.Context, stream string, values map[string]string) (string, error)

	// EnsureGroup creates the consumer group if it does not exist yet.
	// Creating an existing group is not an error.
	EnsureGroup(ctx context.Context, stream, group string) error

	// ReadGroup returns up to count entries not yet delivered to any
	// consumer in the group, blocking up to block if none are available.
	// A nil slice means the wait timed out with nothing to read.
	ReadGroup(ctx context.Context, stream, group, consumer string, count int, block time.Duration) ([]Entry, error)

	// Ack removes entries from the group's pending set.
	Ack(ctx context.Context, stream, group string, ids ...string) error

	// AutoClaim transfers pending entries idle for at least minIdle to the
	// calling consumer, up to count of them.
	AutoClaim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int) ([]Entry, error)
}
