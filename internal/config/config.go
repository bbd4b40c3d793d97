// Package config reads osintdesk settings from environment variables. Struct
// tags name each variable and its default; Load rejects the whole
// configuration when any value is malformed or out of range.
package config

import (
	"strconv"
	"time"
)

// Config is the full set of settings shared by the server and osintctl.
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Search    SearchConfig
	Session   SessionConfig
	Reference ReferenceConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 5000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"5000"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds database file ingestion settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed size of one file in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxRequestSize caps a whole multipart request in bytes (default: 200MB)
	MaxRequestSize int64 `env:"UPLOAD_MAX_REQUEST_SIZE" default:"209715200"`

	// MaxConcurrent is the maximum number of upload batches processed at once (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// BatchConcurrency is how many files of one batch are parsed in parallel (default: 4)
	BatchConcurrency int `env:"UPLOAD_BATCH_CONCURRENCY" default:"4"`

	// CSVQuoting enables RFC 4180 CSV parsing instead of plain comma splitting (default: false)
	CSVQuoting bool `env:"INGEST_CSV_QUOTING" default:"false"`
}

// SearchConfig holds lookup settings.
type SearchConfig struct {
	// RemoteURL is the base URL of the remote lookup service. Empty means
	// local-only lookups.
	RemoteURL string `env:"SEARCH_REMOTE_URL"`

	// RemoteTimeout bounds the remote lookup call (default: 5s)
	RemoteTimeout time.Duration `env:"SEARCH_REMOTE_TIMEOUT" default:"5s"`

	// RemoteRateLimit caps remote lookups per second, 0 for no cap (default: 0)
	RemoteRateLimit float64 `env:"SEARCH_REMOTE_RATE_LIMIT" default:"0"`

	// RemoteBurst is how many remote lookups may go out back to back (default: 1)
	RemoteBurst int `env:"SEARCH_REMOTE_BURST" default:"1"`

	// ReferenceLimit caps rows returned by /api/database-search (default: 100)
	ReferenceLimit int `env:"SEARCH_REFERENCE_LIMIT" default:"100"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	// IdleTTL is how long an unused session lives (default: 2h)
	IdleTTL time.Duration `env:"SESSION_IDLE_TTL" default:"2h"`

	// SweepInterval is how often idle sessions are removed (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// CookieName is the name of the session cookie (default: osintdesk_session)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"osintdesk_session"`

	// SecureCookie sets the Secure flag on the session cookie (default: false)
	SecureCookie bool `env:"SESSION_SECURE_COOKIE" default:"false"`
}

// ReferenceConfig holds the optional PostgreSQL reference store settings.
type ReferenceConfig struct {
	// URL is the PostgreSQL connection string. Empty disables the store.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a reference database is configured.
func (c *ReferenceConfig) Enabled() bool {
	return c.URL != ""
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File is an optional log file path, rotated by size. Empty logs to stdout only.
	File string `env:"LOG_FILE"`

	// MaxSizeMB is the size at which the log file is rotated (default: 100)
	MaxSizeMB int `env:"LOG_MAX_SIZE_MB" default:"100"`

	// MaxBackups is the number of rotated files kept (default: 5)
	MaxBackups int `env:"LOG_MAX_BACKUPS" default:"5"`

	// MaxAgeDays is how long rotated files are kept (default: 28)
	MaxAgeDays int `env:"LOG_MAX_AGE_DAYS" default:"28"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
