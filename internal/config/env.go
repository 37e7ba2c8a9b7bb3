package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setIntIfEnv sets an int pointer from an environment variable.
func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// setInt64IfEnv sets an int64 pointer from an environment variable.
func setInt64IfEnv(target *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = n
		}
	}
}

// setStringListIfEnv sets a string slice from a comma-separated environment
// variable, trimming whitespace around each entry and dropping empty ones.
func setStringListIfEnv(target *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			list = append(list, p)
		}
	}
	*target = list
}

// setSecondsIfEnv sets a Duration pointer from a plain integer number of seconds.
func setSecondsIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = Duration{Duration: time.Duration(n) * time.Second}
		}
	}
}

// applyEnvOverrides populates every field of c from its environment variable.
func (c *Config) applyEnvOverrides() {
	setIntIfEnv(&c.Server.Port, "PORT")
	setStringListIfEnv(&c.Server.CORSAllowedOrigins, "CORS_ALLOWED_ORIGINS")

	setIfEnv(&c.Chain.RPCURL, "CHAIN_RPC_URL")
	setIfEnv(&c.Chain.FeePayerKey, "FEE_PAYER_PRIVATE_KEY")
	setIfEnv(&c.Chain.Network, "NETWORK")

	setIntIfEnv(&c.Cache.Size, "CACHE_SIZE")
	setSecondsIfEnv(&c.Cache.TTL, "CACHE_TTL_SECONDS")

	setIntIfEnv(&c.Dedup.MaxEntries, "DEDUP_MAX_ENTRIES")
	setSecondsIfEnv(&c.Dedup.Window, "DEDUP_WINDOW_SECONDS")

	setInt64IfEnv(&c.Payment.ExpirySeconds, "PAYMENT_EXPIRY_SECONDS")

	setBoolIfEnv(&c.RateLimit.Enabled, "ENABLE_RATE_LIMIT")
	setIntIfEnv(&c.RateLimit.PerSecond, "RATE_LIMIT_PER_SECOND")
	setIntIfEnv(&c.RateLimit.BurstSize, "RATE_LIMIT_BURST_SIZE")

	setIfEnv(&c.Webhook.URL, "WEBHOOK_URL")
	setIfEnv(&c.Webhook.Secret, "WEBHOOK_SECRET")
	setSecondsIfEnv(&c.Webhook.Timeout, "WEBHOOK_TIMEOUT_SECONDS")
	setIntIfEnv(&c.Webhook.RetryAttempts, "WEBHOOK_RETRY_ATTEMPTS")

	setIfEnv(&c.Logging.Level, "LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "LOG_FORMAT")

	setBoolIfEnv(&c.Breaker.Enabled, "CIRCUIT_BREAKER_ENABLED")
}
