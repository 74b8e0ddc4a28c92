package handler

import (
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jesusbgwork-hub/ai-agent-directory/internal/config"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/http/middleware"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/service"
)

// NewRouter assembles the HTTP surface: two paid endpoints behind the
// payment gate and two free endpoints behind the rate limiter.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	svc *service.DirectoryService,
	gate *middleware.PaymentGate,
	limiter *middleware.RateLimiter,
) *chi.Mux {
	dir := NewDirectoryHandler(svc, logger)
	meta := NewMetaHandler(cfg, svc, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	free := limiter.Middleware()
	r.With(free).Get("/", meta.Root)
	r.With(free).Get("/health", meta.Health)

	registerDesc := fmt.Sprintf("Register agent in AI Directory — %.2f USDC", config.USDC(cfg.RegisterPriceAtomic))
	searchDesc := fmt.Sprintf("Search AI Agent Directory — %.2f USDC", config.USDC(cfg.SearchPriceAtomic))
	r.With(gate.Require(cfg.RegisterPriceAtomic, registerDesc)).Post("/register", dir.Register)
	r.With(gate.Require(cfg.SearchPriceAtomic, searchDesc)).Get("/search", dir.Search)

	return r
}
