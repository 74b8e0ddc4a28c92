package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jesusbgwork-hub/ai-agent-directory/internal/domain"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/http/middleware"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/http/response"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/repository"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/service"
)

type DirectoryHandler struct {
	svc    *service.DirectoryService
	logger *slog.Logger
}

func NewDirectoryHandler(svc *service.DirectoryService, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{svc: svc, logger: logger}
}

// Register runs behind the payment gate: by the time it is invoked the
// proof has been verified and a grant sits in the context.
func (h *DirectoryHandler) Register(w http.ResponseWriter, r *http.Request) {
	grant, ok := middleware.PaymentGrantFrom(r.Context())
	if !ok {
		h.logger.Error("register reached without payment grant")
		response.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	receipt := service.Receipt{Endpoint: grant.Endpoint, Reference: grant.Reference, AmountUSDC: grant.AmountUSDC}

	// A body that fails to decode leaves the input empty and is rejected
	// by the service as a missing-fields validation failure, which still
	// records the consumed payment.
	var input service.RegisterInput
	_ = json.NewDecoder(r.Body).Decode(&input)

	agent, err := h.svc.Register(r.Context(), input, receipt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			response.Error(w, http.StatusBadRequest, "Required fields: name, description, payment_endpoint")
		case errors.Is(err, repository.ErrAgentNameTaken):
			h.logger.Warn("duplicate registration attempt", "tx", grant.Reference)
			response.Error(w, http.StatusConflict, "Agent name already registered")
		default:
			h.logger.Error("register failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"agent_id": agent.ID,
		"message":  fmt.Sprintf("Agent '%s' registered. tx: %s", agent.Name, grant.Reference),
	})
}

func (h *DirectoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	grant, ok := middleware.PaymentGrantFrom(r.Context())
	if !ok {
		h.logger.Error("search reached without payment grant")
		response.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	receipt := service.Receipt{Endpoint: grant.Endpoint, Reference: grant.Reference, AmountUSDC: grant.AmountUSDC}

	query := r.URL.Query().Get("q")
	agents, err := h.svc.Search(r.Context(), query, receipt)
	if err != nil {
		h.logger.Error("search failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if agents == nil {
		agents = []domain.Agent{}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"results": agents,
		"count":   len(agents),
		"query":   query,
	})
}
