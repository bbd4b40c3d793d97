package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/osintdesk/internal/config"
	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/logging"
	"github.com/JonMunkholm/osintdesk/internal/reference"
	"github.com/JonMunkholm/osintdesk/internal/remote"
	"github.com/JonMunkholm/osintdesk/internal/web"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logCloser := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File: logging.FileOptions{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   true,
		},
	})
	defer logCloser.Close()

	slog.Info("configuration loaded", "config", cfg)

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := core.NewMetrics(reg)

	// Reference store backs /api/database-search
	var store *reference.Store
	if cfg.Reference.Enabled() {
		pool, err := reference.Connect(ctx, cfg.Reference.URL, reference.PoolOptions{
			MaxConns:        cfg.Reference.MaxConns,
			MinConns:        cfg.Reference.MinConns,
			MaxConnLifetime: cfg.Reference.MaxConnLifetime,
			MaxConnIdleTime: cfg.Reference.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to reference database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store = reference.NewStore(pool, cfg.Search.ReferenceLimit)
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create reference schema", "error", err)
			os.Exit(1)
		}
		slog.Info("reference store ready", "table", reference.TableName)
	}

	// Remote lookup: an explicit URL wins, else the local reference store
	var remoteSource core.RemoteSource
	switch {
	case cfg.Search.RemoteURL != "":
		remoteSource = remote.New(cfg.Search.RemoteURL, cfg.Search.RemoteTimeout,
			remote.WithRateLimit(cfg.Search.RemoteRateLimit, cfg.Search.RemoteBurst))
		slog.Info("remote lookup enabled", "url", cfg.Search.RemoteURL)
	case store != nil:
		remoteSource = store
		slog.Info("remote lookup served by reference store")
	default:
		slog.Info("remote lookup disabled, local databases only")
	}

	sessions := core.NewSessionStore()
	sessions.OnChange(metrics.SetActiveSessions)

	service := core.NewService(core.Options{
		MaxFileSize:      cfg.Upload.MaxFileSize,
		BatchConcurrency: cfg.Upload.BatchConcurrency,
		CSVQuoting:       cfg.Upload.CSVQuoting,
		RemoteTimeout:    cfg.Search.RemoteTimeout,
		Remote:           remoteSource,
		Limiter:          core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		Metrics:          metrics,
	})

	deps := web.Deps{
		Service:  service,
		Sessions: sessions,
		Gatherer: reg,
	}
	if store != nil {
		deps.Reference = store
	}
	server := web.NewServer(cfg, deps)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go core.StartSessionSweeper(jobCtx, sessions, core.SweepConfig{
		IdleTTL:  cfg.Session.IdleTTL,
		Interval: cfg.Session.SweepInterval,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active uploads to complete (with timeout)
		if status := service.UploadStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		logCloser.Close()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
