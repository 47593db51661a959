package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	v1 "go-roomchat/cmd/api/router/v1"
	"go-roomchat/internal/bootstrap"
	"go-roomchat/internal/config"
	"go-roomchat/internal/infrastructure/logger"
	"go-roomchat/internal/infrastructure/metrics"
	"go-roomchat/internal/infrastructure/observability"
)

func main() {
	// Load .env file from the working directory or its parent
	envErr := godotenv.Overload(".env")
	if envErr != nil {
		envErr = godotenv.Overload("../.env")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg)
	if envErr != nil {
		log.Debug().Err(envErr).Msg(".env file not found or could not be loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, cfg, observability.RoleAPI, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	app, err := bootstrap.New(startCtx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start chat service")
	}
	defer app.Close()

	workerDone := make(chan error, 1)
	if cfg.RunWorker {
		go func() { workerDone <- app.Executor.Run(ctx) }()
		log.Info().Str("backend", cfg.QueueBackend).Msg("worker started")
	} else {
		close(workerDone)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newEngine(app),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := app.Executor.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("worker did not drain")
	}
	select {
	case err := <-workerDone:
		if err != nil {
			log.Warn().Err(err).Msg("worker stopped with error")
		}
	case <-shutdownCtx.Done():
		log.Warn().Msg("worker shutdown timed out")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("Server exited")
}

// newEngine mounts the health checks, the metrics endpoint and the versioned API.
func newEngine(app *bootstrap.App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), metrics.GinMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := app.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1.RegisterRoutes(r, app.Services())
	return r
}
