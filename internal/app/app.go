package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jesusbgwork-hub/ai-agent-directory/internal/config"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/database"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/http/handler"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/http/middleware"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/observability"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/repository"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/service"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/x402"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	Server *http.Server
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("database initialized", "path", cfg.DatabasePath)

	agents := repository.NewAgentRepository(db)
	ledger := repository.NewTransactionRepository(db)
	svc := service.NewDirectoryService(db, agents, ledger, logger)

	verifier := x402.NewFacilitatorVerifier(cfg.FacilitatorURL, cfg.VerifyTimeout, logger)
	gate := middleware.NewPaymentGate(cfg, verifier, ledger, logger)

	var limiterBackend middleware.Limiter
	if cfg.RedisAddr != "" {
		limiterBackend = middleware.NewRedisFixedWindowLimiter(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), "rl")
	} else {
		limiterBackend = middleware.NewLocalFixedWindowLimiter()
	}
	limiter := middleware.NewRateLimiter(limiterBackend, cfg.FreeRateLimitPerMin, time.Minute, middleware.FailOpen, logger)

	router := handler.NewRouter(cfg, logger, svc, gate, limiter)
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{Config: cfg, Logger: logger, Server: server}, nil
}
