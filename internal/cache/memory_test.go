package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saif-byte/event-website/internal/testutil"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	_, ok := m.Get(ctx, "missing")
	assert.False(t, ok)

	m.Set(ctx, "key", []byte("value"), time.Minute)
	got, ok := m.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	m.Set(ctx, "key", []byte("updated"), time.Minute)
	got, ok = m.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, []byte("updated"), got)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	m.Set(ctx, "short", []byte("v"), 10*time.Millisecond)
	_, ok := m.Get(ctx, "short")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = m.Get(ctx, "short")
	assert.False(t, ok, "expired entry must not be returned")
}

func TestMemoryDefaultTTL(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	// ttl <= 0 falls back to the default.
	m.Set(ctx, "key", []byte("v"), 0)
	_, ok := m.Get(ctx, "key")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = m.Get(ctx, "key")
	assert.False(t, ok)
}

func TestMemoryFlush(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	m.Set(ctx, "a", []byte("1"), time.Minute)
	m.Set(ctx, "b", []byte("2"), time.Minute)
	m.Flush(ctx)

	_, ok := m.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "b")
	assert.False(t, ok)
}

func TestMemoryCloseIdempotent(t *testing.T) {
	m := NewMemory(time.Minute)
	m.Close()
	m.Close()
}

func TestNewFallsBackToMemory(t *testing.T) {
	logger := testutil.TestLogger()

	c := New(Config{}, logger)
	defer c.Close()
	_, ok := c.(*Memory)
	assert.True(t, ok, "empty redis URL should select the memory backend")

	// Unreachable Redis also falls back rather than failing startup.
	c2 := New(Config{RedisURL: "redis://127.0.0.1:1/0"}, logger)
	defer c2.Close()
	_, ok = c2.(*Memory)
	assert.True(t, ok, "unreachable redis should fall back to memory")
}
