package integration

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jesusbgwork-hub/ai-agent-directory/internal/config"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/database"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/domain"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/http/handler"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/http/middleware"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/repository"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/service"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/x402"
)

// fakeFacilitator approves proofs whose decoded payload carries
// {"token":"valid"} and rejects everything else.
type fakeFacilitator struct {
	srv *httptest.Server

	mu    sync.Mutex
	delay time.Duration
	calls int
}

func newFakeFacilitator(t *testing.T) *fakeFacilitator {
	t.Helper()
	f := &fakeFacilitator{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls++
		delay := f.delay
		f.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		var body struct {
			Payment             json.RawMessage   `json:"payment"`
			PaymentRequirements x402.Requirements `json:"paymentRequirements"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var payment struct {
			Token string `json:"token"`
		}
		_ = json.Unmarshal(body.Payment, &payment)
		if payment.Token == "valid" {
			_ = json.NewEncoder(w).Encode(map[string]any{"isValid": true, "txHash": "0xabc123"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"isValid": false, "txHash": ""})
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeFacilitator) setDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

type testEnv struct {
	baseURL     string
	client      *http.Client
	db          *gorm.DB
	cfg         *config.Config
	facilitator *fakeFacilitator
}

type testEnvOptions struct {
	cfgOverride func(cfg *config.Config)
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithOptions(t, testEnvOptions{})
}

func newTestEnvWithOptions(t *testing.T, opts testEnvOptions) *testEnv {
	t.Helper()

	facilitator := newFakeFacilitator(t)
	cfg := &config.Config{
		Env:                 "test",
		HTTPPort:            "0",
		DatabasePath:        fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
		PublicBaseURL:       "https://directory.example",
		WalletAddress:       "0x0F330101B2eA5347AEBAF4257eE46e1355d2F953",
		AssetContract:       "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		NetworkID:           "8453",
		FacilitatorURL:      facilitator.srv.URL,
		RegisterPriceAtomic: 500000,
		SearchPriceAtomic:   10000,
		VerifyTimeout:       time.Second,
		LogLevel:            "error",
		FreeRateLimitPerMin: 1000,
	}
	if opts.cfgOverride != nil {
		opts.cfgOverride(cfg)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agents := repository.NewAgentRepository(db)
	ledger := repository.NewTransactionRepository(db)
	svc := service.NewDirectoryService(db, agents, ledger, logger)
	verifier := x402.NewFacilitatorVerifier(cfg.FacilitatorURL, cfg.VerifyTimeout, logger)
	gate := middleware.NewPaymentGate(cfg, verifier, ledger, logger)
	limiter := middleware.NewRateLimiter(middleware.NewLocalFixedWindowLimiter(), cfg.FreeRateLimitPerMin, time.Minute, middleware.FailOpen, logger)

	srv := httptest.NewServer(handler.NewRouter(cfg, logger, svc, gate, limiter))
	t.Cleanup(srv.Close)

	return &testEnv{
		baseURL:     srv.URL,
		client:      srv.Client(),
		db:          db,
		cfg:         cfg,
		facilitator: facilitator,
	}
}

func proofHeader(token string) string {
	raw, _ := json.Marshal(map[string]string{"token": token})
	return base64.StdEncoding.EncodeToString(raw)
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func (e *testEnv) ledgerRows(t *testing.T) []domain.Transaction {
	t.Helper()
	var rows []domain.Transaction
	if err := e.db.Order("id asc").Find(&rows).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	return rows
}

func (e *testEnv) agentCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&domain.Agent{}).Count(&n).Error; err != nil {
		t.Fatalf("count agents: %v", err)
	}
	return n
}
