package core

import (
	"context"
	"log/slog"
	"time"
)

// SweepConfig controls the session sweeper.
type SweepConfig struct {
	IdleTTL  time.Duration // Sessions unused for this long are ended (default: 2h)
	Interval time.Duration // How often to sweep (default: 5m)
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.IdleTTL <= 0 {
		c.IdleTTL = 2 * time.Hour
	}
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	return c
}

// StartSessionSweeper ends idle sessions every Interval. It blocks until ctx
// is cancelled, so run it in its own goroutine.
func StartSessionSweeper(ctx context.Context, st *SessionStore, cfg SweepConfig) {
	cfg = cfg.withDefaults()
	slog.Info("session sweeper started", "idle_ttl", cfg.IdleTTL, "interval", cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			runSweep(st, cfg.IdleTTL, time.Now())
		}
	}
}

// runSweep ends the sessions last used before now-ttl and reports how many
// it ended.
func runSweep(st *SessionStore, ttl time.Duration, now time.Time) int {
	expired := st.Expire(now.Add(-ttl))
	level := slog.LevelDebug
	if expired > 0 {
		level = slog.LevelInfo
	}
	slog.Log(context.Background(), level, "session sweep", "expired", expired, "remaining", st.Count())
	return expired
}
