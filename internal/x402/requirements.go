// Package x402 implements the seller side of the x402 payment protocol:
// building payment requirements, encoding 402 challenges, and verifying
// client payment proofs against an external facilitator.
package x402

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/jesusbgwork-hub/ai-agent-directory/internal/config"
)

// Header names are protocol constants shared with clients.
const (
	RequirementsHeader = "X-PAYMENT-REQUIREMENTS"
	ProofHeader        = "X-PAYMENT"
)

var ErrMalformedProof = errors.New("malformed payment proof")

// Requirements describes one payment the server is willing to accept.
// Field order and JSON casing are part of the wire protocol; changing
// either breaks every deployed client.
type Requirements struct {
	Version           string            `json:"version"`
	Scheme            string            `json:"scheme"`
	NetworkID         string            `json:"networkId"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource"`
	Description       string            `json:"description"`
	MimeType          string            `json:"mimeType"`
	PayTo             string            `json:"payTo"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Asset             string            `json:"asset"`
	Extra             map[string]string `json:"extra"`
}

// BuildRequirements produces the requirements descriptor for one priced
// resource. Pure: the same inputs always yield the same descriptor.
func BuildRequirements(resource string, amountAtomic int64, description string, cfg *config.Config) Requirements {
	return Requirements{
		Version:           "1",
		Scheme:            "exact",
		NetworkID:         cfg.NetworkID,
		MaxAmountRequired: strconv.FormatInt(amountAtomic, 10),
		Resource:          resource,
		Description:       description,
		MimeType:          "application/json",
		PayTo:             cfg.WalletAddress,
		MaxTimeoutSeconds: 300,
		Asset:             cfg.AssetContract,
		Extra:             map[string]string{"name": "USDC", "version": "2"},
	}
}

// EncodeRequirements serializes requirements for transport in the
// challenge header: compact JSON, base64.
func EncodeRequirements(req Requirements) string {
	raw, _ := json.Marshal(req)
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeProof unpacks a client proof header into the JSON payload that is
// forwarded verbatim to the facilitator. The payload itself stays opaque.
func DecodeProof(header string) (json.RawMessage, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, ErrMalformedProof
	}
	if !json.Valid(raw) {
		return nil, ErrMalformedProof
	}
	return json.RawMessage(raw), nil
}
