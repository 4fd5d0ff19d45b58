package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisBroker(t *testing.T) (*miniredis.Miniredis, *RedisBroker) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisBroker(client)
}

func TestRedisBroker_EnsureGroupIdempotent(t *testing.T) {
	ctx := context.Background()
	_, broker := setupRedisBroker(t)

	require.NoError(t, broker.EnsureGroup(ctx, "events", "core"))
	// A second create answers BUSYGROUP, which is not an error here.
	require.NoError(t, broker.EnsureGroup(ctx, "events", "core"))
}

func TestRedisBroker_AppendReadAck(t *testing.T) {
	ctx := context.Background()
	_, broker := setupRedisBroker(t)
	require.NoError(t, broker.EnsureGroup(ctx, "events", "core"))

	id, err := broker.Append(ctx, "events", map[string]string{"event": `{"event_id":"e1"}`})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := broker.ReadGroup(ctx, "events", "core", "c1", 1, 50*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, `{"event_id":"e1"}`, entries[0].Values["event"])

	require.NoError(t, broker.Ack(ctx, "events", "core", entries[0].ID))

	// Nothing new on the stream: the blocking read times out empty.
	entries, err = broker.ReadGroup(ctx, "events", "core", "c1", 1, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRedisBroker_AutoClaimPendingEntry(t *testing.T) {
	ctx := context.Background()
	_, broker := setupRedisBroker(t)
	require.NoError(t, broker.EnsureGroup(ctx, "events", "core"))

	id, err := broker.Append(ctx, "events", map[string]string{"event": "a"})
	require.NoError(t, err)

	// c1 reads the entry and dies before acking.
	entries, err := broker.ReadGroup(ctx, "events", "core", "c1", 1, 50*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// With a zero idle threshold c2 claims it immediately.
	claimed, err := broker.AutoClaim(ctx, "events", "core", "c2", 0, 100)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, id, claimed[0].ID)
	assert.Equal(t, "a", claimed[0].Values["event"])

	require.NoError(t, broker.Ack(ctx, "events", "core", id))
	claimed, err = broker.AutoClaim(ctx, "events", "core", "c2", 0, 100)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestRedisBroker_AutoClaimRespectsMinIdle(t *testing.T) {
	ctx := context.Background()
	_, broker := setupRedisBroker(t)
	require.NoError(t, broker.EnsureGroup(ctx, "events", "core"))

	_, err := broker.Append(ctx, "events", map[string]string{"event": "a"})
	require.NoError(t, err)
	entries, err := broker.ReadGroup(ctx, "events", "core", "c1", 1, 50*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Delivered just now, so a one minute threshold claims nothing.
	claimed, err := broker.AutoClaim(ctx, "events", "core", "c2", time.Minute, 100)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}
