package config

import (
	"time"

	"github.com/joho/godotenv"
)

// Load assembles configuration from the process environment, optionally
// seeded by a ".env" file if one is present in the working directory.
// Env vars always win over whatever ".env" provides, since godotenv.Load
// never overwrites variables already set in the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := defaultConfig()
	c.applyEnvOverrides()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3000,
		},
		Chain: ChainConfig{
			Network: "solana-devnet",
		},
		Cache: CacheConfig{
			Size: 1_000,
			TTL:  Duration{Duration: 30 * time.Second},
		},
		Dedup: DedupConfig{
			MaxEntries: 10_000,
			Window:     Duration{Duration: 300 * time.Second},
		},
		Payment: PaymentConfig{
			ExpirySeconds: 600,
		},
		RateLimit: RateLimitConfig{
			Enabled:   true,
			PerSecond: 10,
			BurstSize: 20,
		},
		Webhook: WebhookConfig{
			Timeout:       Duration{Duration: 10 * time.Second},
			RetryAttempts: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Breaker: BreakerConfig{
			Enabled: true,
		},
	}
}
