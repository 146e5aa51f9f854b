// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Source    SourceConfig
	Dashboard DashboardConfig
	Export    ExportConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for streamed exports)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SourceConfig locates and bounds the transaction export.
type SourceConfig struct {
	// Path is the location of the delimited transaction file (required)
	Path string `env:"SOURCE_PATH" envAlt:"DATA_PATH" required:"true"`

	// Delimiter is the single-character field separator (default: ,)
	Delimiter string `env:"SOURCE_DELIMITER" default:","`

	// MaxFileSize is the largest file the loader will read, in bytes (default: 1GB)
	MaxFileSize int64 `env:"SOURCE_MAX_FILE_SIZE" default:"1073741824"`

	// LoadTimeout bounds how long a request waits for the first load (default: 5m)
	LoadTimeout time.Duration `env:"SOURCE_LOAD_TIMEOUT" default:"5m"`

	// Preload loads the dataset at startup instead of on the first request (default: true)
	Preload bool `env:"SOURCE_PRELOAD" default:"true"`
}

// DashboardConfig sizes the series returned to clients.
type DashboardConfig struct {
	// TopN is the length of the top-N rankings (default: 10)
	TopN int `env:"DASHBOARD_TOP_N" default:"10"`

	// FAQTopN is the length of the quick-answer rankings (default: 3)
	FAQTopN int `env:"DASHBOARD_FAQ_TOP_N" default:"3"`

	// PreviewRows is the default page size of the fact preview (default: 10)
	PreviewRows int `env:"DASHBOARD_PREVIEW_ROWS" default:"10"`

	// ScatterQuantile clips the price/discount scatter axes (default: 0.99)
	ScatterQuantile float64 `env:"DASHBOARD_SCATTER_QUANTILE" default:"0.99"`

	// ScatterMaxPoints thins the scatter; 0 keeps every point (default: 5000)
	ScatterMaxPoints int `env:"DASHBOARD_SCATTER_MAX_POINTS" default:"5000"`
}

// ExportConfig bounds CSV exports.
type ExportConfig struct {
	// MaxConcurrent is the maximum number of exports streaming at once (default: 2)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long to wait for an export slot (default: 10s)
	MaxWaitTime time.Duration `env:"EXPORT_MAX_WAIT_TIME" default:"10s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ExportLimit is requests per minute for the export and reload endpoints (default: 10)
	ExportLimit int `env:"RATE_LIMIT_EXPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects /api routes with the X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	// Enabled mounts the metrics endpoint (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`

	// Path is where metrics are served (default: /metrics)
	Path string `env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// DelimiterRune returns the configured delimiter as a rune, ',' if unset.
func (c *SourceConfig) DelimiterRune() rune {
	if c.Delimiter == "" {
		return ','
	}
	if c.Delimiter == `\t` {
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}
