package config

import (
	"os"
	"strings"
	"time"

	"github.com/onnwee/school-dashboard/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	// HTTP server
	HTTPAddr string

	// Dashboard cache / fetch scheduling
	MaxConcurrentFetches int           // worker pool size shared by all data keys
	DefaultTTL           time.Duration // TTL applied when a key registers with ttl <= 0
	AutoRefreshTick      time.Duration // period of the auto-refresh ticker
	SweepInterval        time.Duration // period of the expired-entry sweep
	ShutdownGrace        time.Duration // how long to wait for in-flight fetches on shutdown
	EventBufferSize      int           // per-subscriber event channel buffer

	// Snapshot response cache
	RespCacheMaxMB      int64
	RespCacheMaxEntries int64
	RespCacheTTL        time.Duration

	// Database
	DBStatementTimeout time.Duration

	// Admin API token for gating admin endpoints (Bearer token)
	AdminAPIToken string

	// Security settings
	RateLimitGlobal      float64  // requests per second globally
	RateLimitGlobalBurst int      // burst size for global rate limit
	RateLimitPerIP       float64  // requests per second per IP
	RateLimitPerIPBurst  int      // burst size for per-IP rate limit
	CORSAllowedOrigins   []string // allowed CORS origins
	EnableRateLimit      bool     // enable rate limiting middleware

	// Observability settings
	LogLevel          string  // log level: debug, info, warn, error
	OTELEnabled       bool    // enable OpenTelemetry tracing
	OTELEndpoint      string  // OpenTelemetry collector endpoint
	MetricsInterval   time.Duration
	SentryDSN         string  // Sentry DSN for error reporting
	SentryEnvironment string  // Sentry environment (dev, staging, production)
	SentrySampleRate  float64 // Sentry error sampling rate (0.0 to 1.0)
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	cached = &Config{
		HTTPAddr:             strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		MaxConcurrentFetches: utils.GetEnvAsInt("MAX_CONCURRENT_FETCHES", 8),
		DefaultTTL:           utils.GetEnvAsSeconds("DEFAULT_TTL_SECONDS", 300),
		AutoRefreshTick:      utils.GetEnvAsSeconds("AUTO_REFRESH_TICK_SECONDS", 1),
		SweepInterval:        utils.GetEnvAsSeconds("SWEEP_INTERVAL_SECONDS", 60),
		ShutdownGrace:        utils.GetEnvAsSeconds("SHUTDOWN_GRACE_SECONDS", 5),
		EventBufferSize:      utils.GetEnvAsInt("EVENT_BUFFER_SIZE", 64),
		RespCacheMaxMB:       int64(utils.GetEnvAsInt("RESP_CACHE_MAX_MB", 16)),
		RespCacheMaxEntries:  int64(utils.GetEnvAsInt("RESP_CACHE_MAX_ENTRIES", 256)),
		RespCacheTTL:         utils.GetEnvAsSeconds("RESP_CACHE_TTL_SECONDS", 5),
		DBStatementTimeout:   time.Duration(utils.GetEnvAsInt("DB_STATEMENT_TIMEOUT_MS", 25000)) * time.Millisecond,
		AdminAPIToken:        strings.TrimSpace(os.Getenv("ADMIN_API_TOKEN")),
		// Security settings with sensible defaults
		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 100.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 200),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 10.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 20),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),
		// Observability settings
		LogLevel:         strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		OTELEnabled:      utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:     strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		MetricsInterval:  utils.GetEnvAsSeconds("METRICS_INTERVAL_SECONDS", 30),
		SentryDSN:        strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentrySampleRate: utils.GetEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
	}
	if cached.HTTPAddr == "" {
		cached.HTTPAddr = ":8000"
	}
	if cached.LogLevel == "" {
		cached.LogLevel = "info"
	}
	if cached.MaxConcurrentFetches <= 0 {
		cached.MaxConcurrentFetches = 8
	}
	cached.SentryEnvironment = strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT"))
	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}

	// Parse CORS allowed origins
	corsOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if corsOrigins == "" {
		// Default to common development origins
		cached.CORSAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	} else {
		cached.CORSAllowedOrigins = strings.Split(corsOrigins, ",")
		for i := range cached.CORSAllowedOrigins {
			cached.CORSAllowedOrigins[i] = strings.TrimSpace(cached.CORSAllowedOrigins[i])
		}
	}

	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }
