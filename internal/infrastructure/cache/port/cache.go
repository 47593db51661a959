package port

import (
	"context"
	"errors"
	"time"
)

// Cache is a string key-value store shared by the room listing read paths.
// Callers serialize values themselves; adapters are safe for concurrent use.
type Cache interface {
	// Get returns ErrMiss when key is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A non-positive ttl keeps it until evicted.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del drops keys and reports how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// ErrMiss separates an absent key from a backend fault.
var ErrMiss = errors.New("cache: miss")
