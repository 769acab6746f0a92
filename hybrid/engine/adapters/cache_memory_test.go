package adapters

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryResponseCache(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "pergunta", "resposta", 60))

	got, ok := c.Get(ctx, "pergunta")
	assert.True(t, ok)
	assert.Equal(t, "resposta", got)

	_, ok = c.Get(ctx, "outra")
	assert.False(t, ok)
}

func TestMemoryCacheTTLExpiryOnRead(t *testing.T) {
	c := NewMemoryResponseCache(10)
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", 60))

	// Still fresh just before the deadline.
	c.now = func() time.Time { return now.Add(59 * time.Second) }
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	// Expired entries disappear on read.
	c.now = func() time.Time { return now.Add(61 * time.Second) }
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheEvictsOldestAtCapacity(t *testing.T) {
	c := NewMemoryResponseCache(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), "v", 60))
	}
	require.NoError(t, c.Set(ctx, "k3", "v", 60))

	_, ok := c.Get(ctx, "k0")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = c.Get(ctx, "k3")
	assert.True(t, ok)
	assert.Equal(t, 3, c.Len())
}

func TestMemoryCacheUpdateRefreshesAge(t *testing.T) {
	c := NewMemoryResponseCache(2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 60))
	require.NoError(t, c.Set(ctx, "b", "2", 60))
	// Rewriting "a" makes "b" the oldest.
	require.NoError(t, c.Set(ctx, "a", "1b", 60))
	require.NoError(t, c.Set(ctx, "c", "3", 60))

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok)
	got, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "1b", got)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryResponseCache(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 60))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	// Deleting a missing key is fine.
	assert.NoError(t, c.Delete(ctx, "k"))
}
