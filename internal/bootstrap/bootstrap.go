// Package bootstrap assembles the chat service from its configuration: the
// store, the account directory, the room cache and the job executor.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"go-roomchat/internal/config"
	cacheadapter "go-roomchat/internal/infrastructure/cache/adapter"
	cacheport "go-roomchat/internal/infrastructure/cache/port"
	"go-roomchat/internal/infrastructure/database"
	qadapter "go-roomchat/internal/infrastructure/queue/adapter"
	qport "go-roomchat/internal/infrastructure/queue/port"
	"go-roomchat/internal/pkg/chat/application/task"
	"go-roomchat/internal/pkg/chat/application/usecase"
	chatadapter "go-roomchat/internal/pkg/chat/persistence/repository/adapter"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	httpHandler "go-roomchat/internal/pkg/chat/presentation/http"
	useradapter "go-roomchat/internal/repository/adapter"
	userport "go-roomchat/internal/repository/port"
)

// userStore is both halves of the account directory.
type userStore interface {
	userport.UserRepository
	userport.UserSeeder
}

// App is the wired service. Close releases everything New opened.
type App struct {
	Config     *config.Config
	Log        zerolog.Logger
	Pool       *pgxpool.Pool
	Repo       repository.ChatRepository
	Users      userStore
	Cache      cacheport.Cache
	RoomCache  *usecase.RoomCache
	Executor   qport.Executor
	Dispatcher *task.Dispatcher
}

// New opens the configured backends and registers the chat task handlers on
// the executor. The executor's server is not started.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	app := &App{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	if err = app.openStore(ctx); err != nil {
		return nil, err
	}
	if err = app.openCache(); err != nil {
		return nil, err
	}
	if err = app.openExecutor(); err != nil {
		return nil, err
	}

	handlers := &task.Handlers{
		SendDirect: usecase.NewSendDirectMessageUseCase(app.Repo, app.Users, app.RoomCache, log),
		SendGroup:  usecase.NewSendGroupMessageUseCase(app.Repo, app.Users),
		MarkSeen:   usecase.NewMarkSeenUseCase(app.Repo, app.Users),
		Log:        log,
	}
	handlers.Register(app.Executor)
	app.Dispatcher = task.NewDispatcher(app.Executor, app.Executor, cfg.QueueName, log)
	app.Dispatcher.SeenQueue = cfg.SeenQueueName

	if err = app.seed(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.StoreBackend {
	case config.StorePostgres:
		if a.Config.DBAutoMigrate {
			if err := database.Migrate(a.Config.DatabaseURL, a.Log); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		pool, err := database.Connect(ctx, a.Config.DatabaseURL,
			database.WithMaxConns(a.Config.DBMaxConns),
			database.WithApplicationName(a.Config.ServiceName),
		)
		if err != nil {
			return err
		}
		a.Pool = pool
		a.Repo = chatadapter.NewPgChatRepository(pool)
		a.Users = useradapter.NewPgUserRepository(pool)
		a.Log.Info().Msg("Database connection established")
	default:
		a.Repo = chatadapter.NewMemoryChatRepository()
		a.Users = useradapter.NewMemoryUserRepository()
		a.Log.Warn().Msg("using in-memory store, data is lost on restart")
	}
	return nil
}

func (a *App) openCache() error {
	switch a.Config.CacheBackend {
	case config.CacheRedis:
		c, err := cacheadapter.NewRedisAdapter(a.Config.RedisURL, a.Config.ServiceName)
		if err != nil {
			return fmt.Errorf("redis cache: %w", err)
		}
		a.Cache = c
	case config.CacheMemory:
		c, err := cacheadapter.NewLRUCache(a.Config.CacheSize)
		if err != nil {
			return fmt.Errorf("lru cache: %w", err)
		}
		a.Cache = c
	default:
		a.Cache = cacheadapter.NoopCache{}
		return nil
	}
	a.RoomCache = usecase.NewRoomCache(a.Cache, a.Config.CacheTTL, a.Log)
	return nil
}

func (a *App) openExecutor() error {
	switch a.Config.QueueBackend {
	case config.QueueAsynq:
		queues, err := a.Config.QueuePriorities()
		if err != nil {
			return err
		}
		exec, err := qadapter.NewAsynqExecutor(qadapter.AsynqConfig{
			RedisURL:    a.Config.RedisURL,
			Queue:       a.Config.QueueName,
			Concurrency: a.Config.WorkerConcurrency,
			Retention:   a.Config.JobRetention,
			Queues:      queues,
		}, a.Log)
		if err != nil {
			return err
		}
		a.Executor = exec
	case config.QueueInline:
		a.Executor = qadapter.NewInlineExecutor(a.Config.JobRetention)
	default:
		a.Executor = qadapter.NewLocalExecutor(a.Config.WorkerConcurrency, a.Config.JobRetention, a.Log)
	}
	a.Log.Info().Str("backend", a.Config.QueueBackend).Str("queue", a.Config.QueueName).Msg("job executor ready")
	return nil
}

// seed creates the demo accounts user_1..user_N.
func (a *App) seed(ctx context.Context) error {
	for i := 1; i <= a.Config.SeedDemoUsers; i++ {
		if _, err := a.Users.EnsureUser(ctx, fmt.Sprintf("user_%d", i)); err != nil {
			return fmt.Errorf("seed demo users: %w", err)
		}
	}
	if a.Config.SeedDemoUsers > 0 {
		a.Log.Info().Int("count", a.Config.SeedDemoUsers).Msg("demo users seeded")
	}
	return nil
}

// Services builds the HTTP-facing use cases.
func (a *App) Services() httpHandler.Services {
	return httpHandler.NewServices(a.Repo, a.Users, a.RoomCache, a.Dispatcher, a.Log)
}

// Ready checks the backends a request depends on.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	if a.Pool != nil {
		if err := a.Pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the executor client, cache and pool.
func (a *App) Close() {
	if a.Executor != nil {
		if err := a.Executor.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("close executor")
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("close cache")
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
