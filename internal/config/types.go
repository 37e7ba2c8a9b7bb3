package config

import "time"

// Duration wraps time.Duration so it can be loaded from a plain integer
// number of seconds in an environment variable.
type Duration struct {
	time.Duration
}

// Config holds all facilitator configuration, assembled entirely from
// environment variables. There is no config file.
type Config struct {
	Server     ServerConfig
	Chain      ChainConfig
	Cache      CacheConfig
	Dedup      DedupConfig
	Payment    PaymentConfig
	RateLimit  RateLimitConfig
	Webhook    WebhookConfig
	Logging    LoggingConfig
	Breaker    BreakerConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port               int
	CORSAllowedOrigins []string
}

// ChainConfig describes how to reach the blockchain and sign transactions.
type ChainConfig struct {
	RPCURL         string
	FeePayerKey    string
	Network        string
}

// CacheConfig bounds the account-existence cache.
type CacheConfig struct {
	Size int
	TTL  Duration
}

// DedupConfig bounds the replay-protection store.
type DedupConfig struct {
	MaxEntries int
	Window     Duration
}

// PaymentConfig controls payment-payload freshness checks.
type PaymentConfig struct {
	ExpirySeconds int64
}

// RateLimitConfig controls the global HTTP rate limiter.
type RateLimitConfig struct {
	Enabled      bool
	PerSecond    int
	BurstSize    int
}

// WebhookConfig controls outbound settlement-event delivery.
type WebhookConfig struct {
	URL            string
	Secret         string
	Timeout        Duration
	RetryAttempts  int
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string
	Format string
}

// BreakerConfig toggles the circuit breakers wrapping the chain RPC client
// and the webhook dispatcher.
type BreakerConfig struct {
	Enabled bool
}
