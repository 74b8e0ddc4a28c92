package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// unverifiedReference is reported when the facilitator approves a payment
// without naming a settlement transaction.
const unverifiedReference = "unverified"

// Result is the verdict for one submitted proof. Reference is the
// settlement transaction hash when the facilitator supplied one.
type Result struct {
	Valid     bool
	Reference string
}

// Verifier decides whether a submitted payment proof satisfies the stated
// requirements. Implementations must fail closed: any error on their side
// surfaces as an invalid result, never as a granted payment.
type Verifier interface {
	Verify(ctx context.Context, proofHeader string, req Requirements) Result
}

type verifyRequest struct {
	Payment             json.RawMessage `json:"payment"`
	PaymentRequirements Requirements    `json:"paymentRequirements"`
}

type verifyResponse struct {
	IsValid bool    `json:"isValid"`
	TxHash  *string `json:"txHash"`
}

// FacilitatorVerifier verifies proofs by calling POST {baseURL}/verify on
// the external facilitator.
type FacilitatorVerifier struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewFacilitatorVerifier(baseURL string, timeout time.Duration, logger *slog.Logger) *FacilitatorVerifier {
	return &FacilitatorVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (v *FacilitatorVerifier) Verify(ctx context.Context, proofHeader string, req Requirements) Result {
	payload, err := DecodeProof(proofHeader)
	if err != nil {
		v.logger.Warn("payment proof rejected before verification", "error", err)
		return Result{}
	}

	body, err := json.Marshal(verifyRequest{Payment: payload, PaymentRequirements: req})
	if err != nil {
		v.logger.Error("payment verification failed", "error", err)
		return Result{}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		v.logger.Error("payment verification failed", "error", err)
		return Result{}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		v.logger.Error("payment verification failed", "error", err, "facilitator", v.baseURL)
		return Result{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Error("payment verification failed", "status", resp.StatusCode, "facilitator", v.baseURL)
		return Result{}
	}

	var verdict verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		v.logger.Error("payment verification failed", "error", err, "facilitator", v.baseURL)
		return Result{}
	}

	reference := unverifiedReference
	if verdict.TxHash != nil {
		reference = *verdict.TxHash
	}
	return Result{Valid: verdict.IsValid, Reference: reference}
}
