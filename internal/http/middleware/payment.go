package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jesusbgwork-hub/ai-agent-directory/internal/config"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/domain"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/http/response"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/repository"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/x402"
)

// PaymentGrant is attached to the request context once a proof has been
// verified. Handlers downstream must record exactly one ledger row for it.
type PaymentGrant struct {
	Endpoint   string
	Reference  string
	AmountUSDC float64
}

type paymentGrantKeyType struct{}

var paymentGrantKey paymentGrantKeyType

func PaymentGrantFrom(ctx context.Context) (PaymentGrant, bool) {
	grant, ok := ctx.Value(paymentGrantKey).(PaymentGrant)
	return grant, ok
}

// PaymentGate prices endpoints per the x402 protocol. Per request it walks
// a fixed sequence: no proof header -> 402 challenge, nothing written;
// proof present -> verify; invalid -> one "invalid" ledger row, then 402;
// valid -> grant injected and the wrapped handler runs. The verifier is
// always consulted before the ledger, and the ledger before the handler.
type PaymentGate struct {
	cfg      *config.Config
	verifier x402.Verifier
	ledger   repository.TransactionRepository
	logger   *slog.Logger
}

func NewPaymentGate(cfg *config.Config, verifier x402.Verifier, ledger repository.TransactionRepository, logger *slog.Logger) *PaymentGate {
	return &PaymentGate{cfg: cfg, verifier: verifier, ledger: ledger, logger: logger}
}

// Require gates the wrapped handler behind a payment of amountAtomic.
func (g *PaymentGate) Require(amountAtomic int64, description string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			endpoint := r.URL.Path
			amountUSDC := config.USDC(amountAtomic)
			requirements := x402.BuildRequirements(g.cfg.PublicBaseURL+endpoint, amountAtomic, description, g.cfg)

			proof := r.Header.Get(x402.ProofHeader)
			if proof == "" {
				g.logger.Info("402 issued", "endpoint", endpoint, "reason", "no payment header")
				w.Header().Set(x402.RequirementsHeader, x402.EncodeRequirements(requirements))
				response.JSON(w, http.StatusPaymentRequired, map[string]any{
					"error":      "Payment required",
					"price_usdc": amountUSDC,
				})
				return
			}

			verdict := g.verifier.Verify(r.Context(), proof, requirements)
			if !verdict.Valid {
				if err := g.ledger.Append(&domain.Transaction{
					Endpoint:    endpoint,
					PaymentHash: verdict.Reference,
					AmountUSDC:  amountUSDC,
					Status:      domain.TxStatusInvalid,
				}); err != nil {
					g.logger.Error("ledger write failed", "endpoint", endpoint, "error", err)
					response.Error(w, http.StatusInternalServerError, "Internal server error")
					return
				}
				g.logger.Warn("invalid payment rejected", "endpoint", endpoint)
				response.Error(w, http.StatusPaymentRequired, "Invalid or insufficient payment")
				return
			}

			grant := PaymentGrant{Endpoint: endpoint, Reference: verdict.Reference, AmountUSDC: amountUSDC}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), paymentGrantKey, grant)))
		})
	}
}
