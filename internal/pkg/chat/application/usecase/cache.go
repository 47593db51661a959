package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"go-roomchat/internal/infrastructure/cache/port"
	"go-roomchat/internal/infrastructure/metrics"
)

// RoomCache holds rendered room listings. Entries are dropped explicitly at
// the mutations that change them; the TTL only bounds staleness across
// processes sharing a cache. A nil *RoomCache caches nothing.
type RoomCache struct {
	cache port.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewRoomCache(cache port.Cache, ttl time.Duration, log zerolog.Logger) *RoomCache {
	return &RoomCache{cache: cache, ttl: ttl, log: log.With().Str("component", "room_cache").Logger()}
}

func groupRoomsKey() string { return "rooms:groups" }

func roomKey(roomID int64) string { return "rooms:" + strconv.FormatInt(roomID, 10) }

func userRoomsKey(userID int64) string { return "rooms:user:" + strconv.FormatInt(userID, 10) }

func (c *RoomCache) get(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, port.ErrMiss) {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		metrics.RecordCacheLookup(false)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry is corrupt")
		metrics.RecordCacheLookup(false)
		return false
	}
	metrics.RecordCacheLookup(true)
	return true
}

func (c *RoomCache) set(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := c.cache.Set(ctx, key, string(raw), c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *RoomCache) invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if _, err := c.cache.Del(ctx, keys...); err != nil {
		c.log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

// invalidateUsers drops the room listings of every given user.
func (c *RoomCache) invalidateUsers(ctx context.Context, userIDs []int64, extra ...string) {
	keys := make([]string, 0, len(userIDs)+len(extra))
	for _, id := range userIDs {
		keys = append(keys, userRoomsKey(id))
	}
	c.invalidate(ctx, append(keys, extra...)...)
}
