package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// USDCDecimals is the number of decimals of the settlement asset. Prices
// are configured in atomic units and reported to humans in whole USDC.
const USDCDecimals = 6

type Config struct {
	Env      string
	HTTPPort string

	DatabasePath string

	// PublicBaseURL is prepended to the request path when building payment
	// requirements, binding each challenge to the endpoint that issued it.
	PublicBaseURL string

	WalletAddress  string
	AssetContract  string
	NetworkID      string
	FacilitatorURL string

	RegisterPriceAtomic int64
	SearchPriceAtomic   int64

	VerifyTimeout time.Duration

	LogLevel string

	FreeRateLimitPerMin int
	RedisAddr           string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPPort:            getEnv("HTTP_PORT", "8000"),
		DatabasePath:        getEnv("DATABASE_PATH", "agents.db"),
		PublicBaseURL:       strings.TrimRight(getEnv("PUBLIC_BASE_URL", "https://agent-directory.life.conway.tech"), "/"),
		WalletAddress:       getEnv("WALLET_ADDRESS", "0x0F330101B2eA5347AEBAF4257eE46e1355d2F953"),
		AssetContract:       getEnv("ASSET_CONTRACT", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		NetworkID:           getEnv("NETWORK_ID", "8453"),
		FacilitatorURL:      strings.TrimRight(getEnv("FACILITATOR_URL", "https://x402.org/facilitator"), "/"),
		RegisterPriceAtomic: getEnvInt64("REGISTER_PRICE_ATOMIC", 500000),
		SearchPriceAtomic:   getEnvInt64("SEARCH_PRICE_ATOMIC", 10000),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		FreeRateLimitPerMin: getEnvInt("FREE_RATE_LIMIT_PER_MIN", 120),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
	}

	verifyTimeout, err := time.ParseDuration(getEnv("VERIFY_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse VERIFY_TIMEOUT: %w", err)
	}
	cfg.VerifyTimeout = verifyTimeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabasePath == "" {
		errs = append(errs, "DATABASE_PATH is required")
	}
	if c.PublicBaseURL == "" {
		errs = append(errs, "PUBLIC_BASE_URL is required")
	}
	if c.WalletAddress == "" {
		errs = append(errs, "WALLET_ADDRESS is required")
	}
	if c.AssetContract == "" {
		errs = append(errs, "ASSET_CONTRACT is required")
	}
	if c.NetworkID == "" {
		errs = append(errs, "NETWORK_ID is required")
	}
	if c.FacilitatorURL == "" {
		errs = append(errs, "FACILITATOR_URL is required")
	}
	if c.RegisterPriceAtomic <= 0 {
		errs = append(errs, "REGISTER_PRICE_ATOMIC must be > 0")
	}
	if c.SearchPriceAtomic <= 0 {
		errs = append(errs, "SEARCH_PRICE_ATOMIC must be > 0")
	}
	if c.VerifyTimeout <= 0 || c.VerifyTimeout > time.Minute {
		errs = append(errs, "VERIFY_TIMEOUT must be between 1s and 1m")
	}
	if c.FreeRateLimitPerMin <= 0 {
		errs = append(errs, "FREE_RATE_LIMIT_PER_MIN must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// USDC converts an atomic amount of the settlement asset to whole units.
func USDC(atomic int64) float64 {
	div := 1.0
	for i := 0; i < USDCDecimals; i++ {
		div *= 10
	}
	return float64(atomic) / div
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
