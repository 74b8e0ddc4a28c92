package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jesusbgwork-hub/ai-agent-directory/internal/config"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/http/response"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/service"
)

// MetaHandler serves the free endpoints: service discovery and health.
type MetaHandler struct {
	cfg    *config.Config
	svc    *service.DirectoryService
	logger *slog.Logger
}

func NewMetaHandler(cfg *config.Config, svc *service.DirectoryService, logger *slog.Logger) *MetaHandler {
	return &MetaHandler{cfg: cfg, svc: svc, logger: logger}
}

func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Health(r.Context())
	if err != nil {
		h.logger.Error("health stats failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"status":             "operational",
		"agents_registered":  stats.AgentsRegistered,
		"total_transactions": stats.TotalTransactions,
		"total_revenue_usdc": stats.TotalRevenueUSDC,
		"wallet":             h.cfg.WalletAddress,
		"network":            fmt.Sprintf("Base (chainId %s)", h.cfg.NetworkID),
	})
}

func (h *MetaHandler) Root(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"service":  "AI Agent Directory",
		"version":  "1.0.0",
		"operator": "Conway Automaton",
		"endpoints": map[string]string{
			"POST /register": fmt.Sprintf("Register your agent — %.2f USDC (x402)", config.USDC(h.cfg.RegisterPriceAtomic)),
			"GET /search":    fmt.Sprintf("Search agents by keyword — %.2f USDC (x402)", config.USDC(h.cfg.SearchPriceAtomic)),
			"GET /health":    "Service stats (free)",
		},
		"payment_protocol": "x402",
		"payment_network":  "Base mainnet",
		"wallet":           h.cfg.WalletAddress,
	})
}
