package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validNetworks = map[string]bool{
	"solana":         true,
	"solana-devnet":  true,
	"solana-testnet": true,
}

// validate checks that the assembled configuration is internally
// consistent and usable before the process accepts traffic.
func (c *Config) validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("config: CHAIN_RPC_URL is required")
	}
	u, err := url.Parse(c.Chain.RPCURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config: CHAIN_RPC_URL must be an http(s) URL, got %q", c.Chain.RPCURL)
	}

	if strings.TrimSpace(c.Chain.FeePayerKey) == "" {
		return fmt.Errorf("config: FEE_PAYER_PRIVATE_KEY is required")
	}

	if !validNetworks[c.Chain.Network] {
		return fmt.Errorf("config: NETWORK must be one of solana, solana-devnet, solana-testnet, got %q", c.Chain.Network)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Cache.Size <= 0 {
		return fmt.Errorf("config: CACHE_SIZE must be positive")
	}
	if c.Dedup.MaxEntries <= 0 {
		return fmt.Errorf("config: DEDUP_MAX_ENTRIES must be positive")
	}
	if c.Payment.ExpirySeconds <= 0 {
		return fmt.Errorf("config: PAYMENT_EXPIRY_SECONDS must be positive")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.PerSecond <= 0 {
			return fmt.Errorf("config: RATE_LIMIT_PER_SECOND must be positive when rate limiting is enabled")
		}
		if c.RateLimit.BurstSize <= 0 {
			return fmt.Errorf("config: RATE_LIMIT_BURST_SIZE must be positive when rate limiting is enabled")
		}
	}

	if c.Webhook.URL != "" {
		if _, err := url.Parse(c.Webhook.URL); err != nil {
			return fmt.Errorf("config: WEBHOOK_URL is not a valid URL: %w", err)
		}
		if c.Webhook.Secret == "" {
			return fmt.Errorf("config: WEBHOOK_SECRET is required when WEBHOOK_URL is set")
		}
		if c.Webhook.RetryAttempts < 0 {
			return fmt.Errorf("config: WEBHOOK_RETRY_ATTEMPTS must not be negative")
		}
	}

	return nil
}
