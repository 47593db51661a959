package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Option tunes the pool configuration before the pool is created.
type Option func(*pgxpool.Config)

// Connect opens a pgx pool for dsn and pings it. "+asyncpg" style driver
// suffixes in the scheme are stripped first.
func Connect(ctx context.Context, dsn string, opts ...Option) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(normalizeDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	applyPoolDefaults(cfg)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

func applyPoolDefaults(cfg *pgxpool.Config) {
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 4
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	if cfg.MaxConnLifetime == 0 {
		cfg.MaxConnLifetime = time.Hour
	}
	if cfg.HealthCheckPeriod == 0 {
		cfg.HealthCheckPeriod = time.Minute
	}
}

// WithMaxConns caps the pool size when n is positive.
func WithMaxConns(n int32) Option {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = n
		}
	}
}

// WithApplicationName tags server-side sessions so they show up in pg_stat_activity.
func WithApplicationName(name string) Option {
	return func(cfg *pgxpool.Config) {
		if name != "" {
			cfg.ConnConfig.RuntimeParams["application_name"] = name
		}
	}
}

// normalizeDSN converts known non-pgx DSN variants to a pgx-compatible DSN.
func normalizeDSN(dsn string) string {
	s := strings.TrimSpace(dsn)
	if s == "" {
		return s
	}
	// Normalize SQLAlchemy-style driver suffixes often found in .env files
	// e.g., postgresql+asyncpg:// -> postgresql://
	s = strings.Replace(s, "postgresql+asyncpg://", "postgresql://", 1)
	s = strings.Replace(s, "postgres+asyncpg://", "postgres://", 1)
	s = strings.Replace(s, "postgresql+pgx://", "postgresql://", 1)
	s = strings.Replace(s, "postgres+pgx://", "postgres://", 1)

	return s
}

// migrateURL rewrites a pgx DSN for the golang-migrate pgx/v5 driver.
func migrateURL(dsn string) string {
	s := normalizeDSN(dsn)
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(s, scheme) {
			return "pgx5://" + strings.TrimPrefix(s, scheme)
		}
	}
	return s
}
