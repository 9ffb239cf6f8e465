package memory

import (
	"context"
	"testing"
	"time"

	"talentinsight/common/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	c := New(cache.Options{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "body", 0))

	var got string
	require.NoError(t, c.Get(ctx, "a", &got))
	assert.Equal(t, "body", got)

	var raw []byte
	require.NoError(t, c.Get(ctx, "a", &raw))
	assert.Equal(t, []byte("body"), raw)

	assert.ErrorIs(t, c.Get(ctx, "missing", &got), cache.ErrNotFound)
	assert.ErrorIs(t, c.Set(ctx, "", "x", 0), cache.ErrInvalidKey)
	assert.ErrorIs(t, c.Set(ctx, "n", 42, 0), cache.ErrInvalidValue)
}

func TestExpiry(t *testing.T) {
	c := New(cache.Options{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Second))
	now = now.Add(2 * time.Second)

	var got string
	assert.ErrorIs(t, c.Get(ctx, "k", &got), cache.ErrNotFound)

	c.evictExpired()
	assert.Empty(t, c.items)
}

func TestClearOnlyPrefixed(t *testing.T) {
	c := New(cache.Options{Prefix: "ti"})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, cache.Key("ti", "adzuna", "fr"), "x", 0))
	require.NoError(t, c.Set(ctx, "other:key", "y", 0))
	require.NoError(t, c.Clear(ctx))

	var got string
	assert.ErrorIs(t, c.Get(ctx, "ti:adzuna:fr", &got), cache.ErrNotFound)
	require.NoError(t, c.Get(ctx, "other:key", &got))
	assert.Equal(t, "y", got)
}

func TestClosed(t *testing.T) {
	c := New(cache.Options{CleanupInterval: time.Millisecond})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	var got string
	assert.ErrorIs(t, c.Get(context.Background(), "k", &got), cache.ErrClosed)
	assert.ErrorIs(t, c.Set(context.Background(), "k", "v", 0), cache.ErrClosed)
}
