package ipblock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry_BlockAndExpire(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	reg := NewMemoryRegistry()
	reg.now = func() time.Time { return now }

	ctx := context.Background()

	blocked, err := reg.IsBlocked(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, blocked, "unknown ip should not be blocked")

	require.NoError(t, reg.Block(ctx, "203.0.113.7", 30*time.Minute))

	blocked, err = reg.IsBlocked(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, blocked)

	// Entry expires once the clock passes the ttl.
	now = now.Add(31 * time.Minute)
	blocked, err = reg.IsBlocked(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, blocked)

	// Lazy eviction removed the entry entirely.
	reg.mu.Lock()
	_, present := reg.entries["203.0.113.7"]
	reg.mu.Unlock()
	assert.False(t, present)
}

func TestMemoryRegistry_LastCallWins(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	reg := NewMemoryRegistry()
	reg.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, reg.Block(ctx, "203.0.113.7", 24*time.Hour))
	// A shorter block overwrites; durations do not merge or extend.
	require.NoError(t, reg.Block(ctx, "203.0.113.7", time.Minute))

	now = now.Add(2 * time.Minute)
	blocked, err := reg.IsBlocked(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestMemoryRegistry_Unblock(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, reg.Block(ctx, "203.0.113.7", time.Hour))
	require.NoError(t, reg.Unblock(ctx, "203.0.113.7"))

	blocked, err := reg.IsBlocked(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, blocked)

	// Unblocking an absent ip is a no-op.
	require.NoError(t, reg.Unblock(ctx, "198.51.100.1"))
}

func TestMemoryRegistry_EmptyIP(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, reg.Block(ctx, "", time.Hour))
	blocked, err := reg.IsBlocked(ctx, "")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestMemoryRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	// Same IP hammered from many goroutines; the race detector is the assert.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = reg.Block(ctx, "203.0.113.7", time.Minute)
		}()
		go func() {
			defer wg.Done()
			_, _ = reg.IsBlocked(ctx, "203.0.113.7")
		}()
		go func() {
			defer wg.Done()
			_ = reg.Unblock(ctx, "203.0.113.7")
		}()
	}
	wg.Wait()
}
