package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backend selectors.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"

	QueueInline = "inline"
	QueueLocal  = "local"
	QueueAsynq  = "asynq"
)

// Config holds the environment driven configuration for the chat service.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"go-roomchat"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StoreBackend  string `env:"STORE_BACKEND" envDefault:"memory"`
	DatabaseURL   string `env:"DB_URL"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	RedisURL     string        `env:"REDIS_URL"`
	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"none"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	CacheSize    int           `env:"CACHE_SIZE" envDefault:"1024"`

	QueueBackend      string        `env:"QUEUE_BACKEND" envDefault:"local"`
	QueueName         string        `env:"QUEUE_NAME" envDefault:"chat"`
	SeenQueueName     string        `env:"SEEN_QUEUE_NAME"`
	QueueWeights      string        `env:"QUEUE_WEIGHTS"`
	WorkerConcurrency int           `env:"WORKER_CONCURRENCY" envDefault:"10"`
	JobRetention      time.Duration `env:"JOB_RETENTION" envDefault:"1h"`
	RunWorker         bool          `env:"RUN_WORKER" envDefault:"true"`

	EnableTracing bool   `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	SeedDemoUsers int `env:"SEED_DEMO_USERS" envDefault:"0"`
}

// Load parses environment variables into Config and validates backend choices.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum values and the cross-field requirements between backends.
func (c *Config) Validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
	c.QueueBackend = strings.ToLower(strings.TrimSpace(c.QueueBackend))

	if err := oneOf("STORE_BACKEND", c.StoreBackend, StoreMemory, StorePostgres); err != nil {
		return err
	}
	if err := oneOf("CACHE_BACKEND", c.CacheBackend, CacheNone, CacheMemory, CacheRedis); err != nil {
		return err
	}
	if err := oneOf("QUEUE_BACKEND", c.QueueBackend, QueueInline, QueueLocal, QueueAsynq); err != nil {
		return err
	}

	if c.StoreBackend == StorePostgres && strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DB_URL is required when STORE_BACKEND is %s", StorePostgres)
	}
	if c.CacheBackend == CacheRedis && strings.TrimSpace(c.RedisURL) == "" {
		return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND is %s", CacheRedis)
	}
	if c.QueueBackend == QueueAsynq {
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required when QUEUE_BACKEND is %s", QueueAsynq)
		}
		if c.StoreBackend == StoreMemory {
			return fmt.Errorf("QUEUE_BACKEND %s needs a shared store, set STORE_BACKEND=%s", QueueAsynq, StorePostgres)
		}
		// tasks may run in another process, whose invalidations never reach a local LRU
		if c.CacheBackend == CacheMemory {
			return fmt.Errorf("QUEUE_BACKEND %s needs a shared cache, set CACHE_BACKEND=%s or %s", QueueAsynq, CacheRedis, CacheNone)
		}
	}
	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.WorkerConcurrency)
	}
	if c.CacheBackend == CacheMemory && c.CacheSize <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.CacheSize)
	}
	c.QueueName = strings.TrimSpace(c.QueueName)
	if c.QueueName == "" {
		return fmt.Errorf("QUEUE_NAME must not be empty")
	}
	c.SeenQueueName = strings.TrimSpace(c.SeenQueueName)
	if c.SeenQueueName == "" {
		c.SeenQueueName = c.QueueName
	}
	if _, err := c.QueuePriorities(); err != nil {
		return err
	}
	return nil
}

// QueuePriorities parses QUEUE_WEIGHTS ("chat=6,chat_seen=1") into the
// weighted queue set a worker consumes. QUEUE_NAME and SEEN_QUEUE_NAME are
// always present, with weight 1 unless listed.
func (c *Config) QueuePriorities() (map[string]int, error) {
	out := map[string]int{c.QueueName: 1, c.SeenQueueName: 1}
	for _, part := range strings.Split(c.QueueWeights, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, raw, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		w, err := strconv.Atoi(strings.TrimSpace(raw))
		if !ok || name == "" || err != nil || w <= 0 {
			return nil, fmt.Errorf("QUEUE_WEIGHTS entry %q must look like name=positive_int", part)
		}
		out[name] = w
	}
	return out, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, "|"), value)
}
