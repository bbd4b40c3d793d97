package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
)

// problems collects validation failures; each one names the variable to fix.
type problems []error

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Errorf(format, args...))
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var p problems

	s := c.Server
	p.check(s.Port > 0 && s.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", s.Port)
	p.check(s.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must not be negative")
	p.check(s.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	u := c.Upload
	p.check(u.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE must be positive")
	p.check(u.MaxRequestSize >= u.MaxFileSize,
		"UPLOAD_MAX_REQUEST_SIZE (%d) must be at least UPLOAD_MAX_FILE_SIZE (%d)", u.MaxRequestSize, u.MaxFileSize)
	p.check(u.MaxConcurrent > 0, "UPLOAD_MAX_CONCURRENT must be positive")
	p.check(u.MaxWaitTime > 0, "UPLOAD_MAX_WAIT_TIME must be positive")
	p.check(u.BatchConcurrency > 0, "UPLOAD_BATCH_CONCURRENCY must be positive")

	if raw := c.Search.RemoteURL; raw != "" {
		p.check(isHTTPURL(raw), "SEARCH_REMOTE_URL (%q) must be an absolute http(s) URL", raw)
	}
	p.check(c.Search.RemoteTimeout > 0, "SEARCH_REMOTE_TIMEOUT must be positive")
	p.check(c.Search.RemoteRateLimit >= 0, "SEARCH_REMOTE_RATE_LIMIT must not be negative")
	p.check(c.Search.RemoteBurst > 0, "SEARCH_REMOTE_BURST must be positive")
	p.check(c.Search.ReferenceLimit > 0, "SEARCH_REFERENCE_LIMIT must be positive")

	p.check(c.Session.IdleTTL > 0, "SESSION_IDLE_TTL must be positive")
	p.check(c.Session.SweepInterval > 0, "SESSION_SWEEP_INTERVAL must be positive")
	p.check(c.Session.CookieName != "", "SESSION_COOKIE_NAME must not be empty")

	if ref := c.Reference; ref.Enabled() {
		p.check(ref.MaxConns > 0, "DB_MAX_CONNS must be positive")
		p.check(ref.MinConns >= 0, "DB_MIN_CONNS must not be negative")
		p.check(ref.MaxConns >= ref.MinConns,
			"DB_MAX_CONNS (%d) must be at least DB_MIN_CONNS (%d)", ref.MaxConns, ref.MinConns)
	}

	if c.Rate.Enabled {
		p.check(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is on")
		p.check(c.Rate.UploadLimit > 0, "RATE_LIMIT_UPLOAD must be positive when rate limiting is on")
	}

	l := c.Logging
	p.check(slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(l.Level)),
		"LOG_LEVEL (%q) must be debug, info, warn or error", l.Level)
	p.check(slices.Contains([]string{"text", "json"}, strings.ToLower(l.Format)),
		"LOG_FORMAT (%q) must be text or json", l.Format)
	p.check(l.File == "" || l.MaxSizeMB > 0, "LOG_MAX_SIZE_MB must be positive when LOG_FILE is set")

	if len(p) == 0 {
		return nil
	}
	return errors.Join(p...)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// LogValue summarises the settings for the startup log. Connection strings
// are never included.
func (c *Config) LogValue() slog.Value {
	reference := "disabled"
	if c.Reference.Enabled() {
		reference = "configured"
	}
	remote := "none"
	if c.Search.RemoteURL != "" {
		remote = c.Search.RemoteURL
	}

	return slog.GroupValue(
		slog.String("addr", c.Server.Addr()),
		slog.Int64("upload_max_file_size", c.Upload.MaxFileSize),
		slog.Int("upload_max_concurrent", c.Upload.MaxConcurrent),
		slog.Bool("csv_quoting", c.Upload.CSVQuoting),
		slog.String("remote", remote),
		slog.Duration("remote_timeout", c.Search.RemoteTimeout),
		slog.Float64("remote_rate_limit", c.Search.RemoteRateLimit),
		slog.Duration("session_idle_ttl", c.Session.IdleTTL),
		slog.String("reference", reference),
		slog.Bool("rate_limit", c.Rate.Enabled),
		slog.String("log_level", c.Logging.Level),
	)
}
