package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/channy-sao/admin-gateway/docs"
	"github.com/channy-sao/admin-gateway/internal/api"
	"github.com/channy-sao/admin-gateway/internal/auth"
	"github.com/channy-sao/admin-gateway/internal/core/ports"
	"github.com/channy-sao/admin-gateway/internal/core/service"
	"github.com/channy-sao/admin-gateway/internal/infrastructure/backend"
	"github.com/channy-sao/admin-gateway/internal/infrastructure/config"
	mongodb "github.com/channy-sao/admin-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/channy-sao/admin-gateway/internal/infrastructure/db/redis"
	"github.com/channy-sao/admin-gateway/internal/infrastructure/queue"
	"github.com/channy-sao/admin-gateway/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := api.Deps{Log: log}

	// Login limiter, enabled when Redis is configured. Without it every
	// attempt is allowed.
	var limiter ports.LoginLimiter
	if cfg.Redis.Addr != "" {
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer client.Close()
		limiter = redisdb.NewLoginLimiter(client, cfg.Login.MaxAttempts, cfg.Login.Window)
		deps.Redis = client
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login limiter enabled")
	}

	// Audit trail, enabled when Mongo is configured.
	var audit ports.AuditRecorder
	if cfg.Mongo.URI != "" {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}()

		dispatcher := queue.NewAuditDispatcher(0, mongodb.NewAuditRepository(db), log)
		dispatcher.Start(ctx)
		audit = dispatcher
		deps.Mongo = db
		log.Info().Str("database", cfg.Mongo.Database).Msg("audit trail enabled")
	}

	backendClient := backend.NewClient(cfg.BackendBaseURL, log)
	authService := service.NewAuthService(backendClient, limiter, audit, log)

	deps.AuthService = authService
	deps.Cookies = auth.NewCookieStore(cfg.IsProduction())

	e := api.NewRouter(cfg, deps)

	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.BackendBaseURL).Msg("gateway listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
