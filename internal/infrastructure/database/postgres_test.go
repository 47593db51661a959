package database

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  postgres://u:p@db:5432/chat  ", "postgres://u:p@db:5432/chat"},
		{"postgresql+asyncpg://u:p@db/chat", "postgresql://u:p@db/chat"},
		{"postgres+pgx://u@db/chat", "postgres://u@db/chat"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeDSN(tt.in))
	}
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/chat?sslmode=disable", migrateURL("postgres://u:p@db:5432/chat?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/chat", migrateURL("postgresql+asyncpg://u@db/chat"))
}

func TestWithMaxConns(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/chat")
	require.NoError(t, err)

	WithMaxConns(12)(cfg)
	assert.EqualValues(t, 12, cfg.MaxConns)

	WithMaxConns(0)(cfg)
	assert.EqualValues(t, 12, cfg.MaxConns)
}

func TestPoolOptions(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/chat")
	require.NoError(t, err)

	WithMaxConns(12)(cfg)
	WithApplicationName("go-roomchat")(cfg)
	WithMaxConns(0)(cfg)
	applyPoolDefaults(cfg)

	assert.Equal(t, int32(12), cfg.MaxConns)
	assert.Equal(t, "go-roomchat", cfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
}
