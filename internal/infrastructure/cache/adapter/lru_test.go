package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-roomchat/internal/infrastructure/cache/port"
)

func TestLRUCache_SetGetDel(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(8)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "rooms:groups", `[{"id":1}]`, 0))
	v, err := c.Get(ctx, "rooms:groups")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, v)

	n, err := c.Del(ctx, "rooms:groups", "absent")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = c.Get(ctx, "rooms:groups")
	assert.ErrorIs(t, err, port.ErrMiss)
}

func TestLRUCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(8)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, port.ErrMiss)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(2)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	_, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", "3", 0))

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, port.ErrMiss)
	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestLRUCache_RejectsNonPositiveSize(t *testing.T) {
	_, err := NewLRUCache(0)
	assert.Error(t, err)
}
