// Command worker runs the chat job handlers against a shared asynq queue,
// for deployments where the API runs with RUN_WORKER=false.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"go-roomchat/internal/bootstrap"
	"go-roomchat/internal/config"
	"go-roomchat/internal/infrastructure/logger"
	"go-roomchat/internal/infrastructure/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg).With().Str("role", "worker").Logger()
	if cfg.QueueBackend != config.QueueAsynq {
		log.Fatal().Str("backend", cfg.QueueBackend).Msg("standalone worker needs QUEUE_BACKEND=asynq")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, cfg, observability.RoleWorker, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start worker")
	}
	defer app.Close()

	queues, _ := cfg.QueuePriorities()
	log.Info().Interface("queues", queues).Int("concurrency", cfg.WorkerConcurrency).Msg("worker started")
	if err := app.Executor.Run(ctx); err != nil {
		log.Error().Err(err).Msg("worker stopped")
	}
	log.Info().Msg("worker exited")
}
