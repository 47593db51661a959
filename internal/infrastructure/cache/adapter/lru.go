package adapter

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"go-roomchat/internal/infrastructure/cache/port"
)

// LRUCache is an in-process port.Cache bounded by entry count. Entries carry
// their own expiry and are dropped lazily on read.
type LRUCache struct {
	cache *lru.Cache
	now   func() time.Time
}

type lruEntry struct {
	value     string
	expiresAt time.Time
}

func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("lru: %w", err)
	}
	return &LRUCache{cache: c, now: time.Now}, nil
}

var _ port.Cache = (*LRUCache)(nil)

func (l *LRUCache) Get(_ context.Context, key string) (string, error) {
	val, ok := l.cache.Get(key)
	if !ok {
		return "", port.ErrMiss
	}
	entry := val.(lruEntry)
	if !entry.expiresAt.IsZero() && !l.now().Before(entry.expiresAt) {
		l.cache.Remove(key)
		return "", port.ErrMiss
	}
	return entry.value, nil
}

func (l *LRUCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	entry := lruEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = l.now().Add(ttl)
	}
	l.cache.Add(key, entry)
	return nil
}

func (l *LRUCache) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if l.cache.Remove(k) {
			n++
		}
	}
	return n, nil
}

func (l *LRUCache) Ping(context.Context) error { return nil }

func (l *LRUCache) Close() error {
	l.cache.Purge()
	return nil
}
