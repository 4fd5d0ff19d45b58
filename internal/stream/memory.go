package stream

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBroker is an in-process Broker with the same delivery semantics as
// the Redis implementation: consumer groups, a per-group pending set, and
// idle-based reclamation. It exists so pipeline logic can be tested without
// a live broker.
type MemoryBroker struct {
	mu        sync.Mutex
	streams   map[string]*memStream
	appendErr error
	now       func() time.Time
}

type memStream struct {
	entries []Entry
	groups  map[string]*memGroup
}

type memGroup struct {
	cursor  int
	pending map[string]*pendingEntry
}

type pendingEntry struct {
	idx         int
	consumer    string
	deliveredAt time.Time
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		streams: make(map[string]*memStream),
		now:     time.Now,
	}
}

// SetAppendError makes every subsequent Append fail with err. Pass nil to
// restore normal behavior.
func (b *MemoryBroker) SetAppendError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendErr = err
}

// SetClock overrides the broker's clock, letting tests age pending entries.
func (b *MemoryBroker) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Len returns the number of entries logged on stream.
func (b *MemoryBroker) Len(stream string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.streams[stream]; ok {
		return len(s.entries)
	}
	return 0
}

// PendingCount returns the size of the group's pending set.
func (b *MemoryBroker) PendingCount(stream, group string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.streams[stream]
	if !ok {
		return 0
	}
	g, ok := s.groups[group]
	if !ok {
		return 0
	}
	return len(g.pending)
}

func (b *MemoryBroker) Append(ctx context.Context, stream string, values map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.appendErr != nil {
		return "", b.appendErr
	}

	s := b.stream(stream)
	id := fmt.Sprintf("%d-0", len(s.entries)+1)
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	s.entries = append(s.entries, Entry{ID: id, Values: copied})
	return id, nil
}

func (b *MemoryBroker) EnsureGroup(ctx context.Context, stream, group string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.stream(stream)
	if _, ok := s.groups[group]; !ok {
		s.groups[group] = &memGroup{pending: make(map[string]*pendingEntry)}
	}
	return nil
}

func (b *MemoryBroker) ReadGroup(ctx context.Context, stream, group, consumer string, count int, block time.Duration) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.stream(stream)
	g, ok := s.groups[group]
	if !ok {
		return nil, fmt.Errorf("no such group %q on stream %q", group, stream)
	}

	var out []Entry
	for g.cursor < len(s.entries) && len(out) < count {
		e := s.entries[g.cursor]
		g.pending[e.ID] = &pendingEntry{
			idx:         g.cursor,
			consumer:    consumer,
			deliveredAt: b.now(),
		}
		out = append(out, e)
		g.cursor++
	}
	return out, nil
}

func (b *MemoryBroker) Ack(ctx context.Context, stream, group string, ids ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.stream(stream)
	g, ok := s.groups[group]
	if !ok {
		return fmt.Errorf("no such group %q on stream %q", group, stream)
	}
	for _, id := range ids {
		delete(g.pending, id)
	}
	return nil
}

func (b *MemoryBroker) AutoClaim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.stream(stream)
	g, ok := s.groups[group]
	if !ok {
		return nil, fmt.Errorf("no such group %q on stream %q", group, stream)
	}

	now := b.now()
	var out []Entry
	// Scan in log order so reclamation is deterministic.
	for idx := 0; idx < len(s.entries) && len(out) < count; idx++ {
		e := s.entries[idx]
		p, ok := g.pending[e.ID]
		if !ok {
			continue
		}
		if now.Sub(p.deliveredAt) < minIdle {
			continue
		}
		p.consumer = consumer
		p.deliveredAt = now
		out = append(out, e)
	}
	return out, nil
}

func (b *MemoryBroker) stream(name string) *memStream {
	s, ok := b.streams[name]
	if !ok {
		s = &memStream{groups: make(map[string]*memGroup)}
		b.streams[name] = s
	}
	return s
}
