// Package web provides the HTTP server, pages and JSON API of the desk.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/osintdesk/internal/config"
	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/tools"
	mw "github.com/JonMunkholm/osintdesk/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static
var staticFiles embed.FS

// ReferenceSearcher answers /api/database-search. The reference store
// implements it.
type ReferenceSearcher interface {
	Search(ctx context.Context, query string) ([]core.Record, error)
}

// Deps are the collaborators of a Server. Service and Sessions are required.
type Deps struct {
	Service   *core.Service
	Sessions  *core.SessionStore
	Reference ReferenceSearcher   // Optional
	Assistant *tools.Assistant    // Optional, defaults to NewAssistant()
	Gatherer  prometheus.Gatherer // Optional, /metrics is not mounted without it
}

// Server is the HTTP server of the desk.
type Server struct {
	cfg       *config.Config
	service   *core.Service
	sessions  *core.SessionStore
	reference ReferenceSearcher
	assistant *tools.Assistant
	gatherer  prometheus.Gatherer

	router   *chi.Mux
	server   *http.Server
	limiters []*ipLimiter
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		service:   deps.Service,
		sessions:  deps.Sessions,
		reference: deps.Reference,
		assistant: deps.Assistant,
		gatherer:  deps.Gatherer,
		router:    chi.NewRouter(),
	}
	if s.assistant == nil {
		s.assistant = tools.NewAssistant()
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// uploadLimit wraps upload routes in the stricter per-IP upload limit.
func (s *Server) uploadLimit() func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.newLimiter(s.cfg.Rate.UploadLimit).middleware
}

func (s *Server) newLimiter(perMinute int) *ipLimiter {
	l := newIPLimiter(perMinute)
	s.limiters = append(s.limiters, l)
	return l
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	uploads := s.uploadLimit()

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Get("/", s.handleIndex)
		r.With(uploads).Post("/databases", s.handleUploadPage)
		r.Post("/databases/remove", s.handleRemovePage)
		r.Post("/search", s.handleSearchPage)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Session-bound
		r.Group(func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/databases", s.handleListDatabases)
			r.With(uploads).Post("/databases", s.handleUploadDatabases)
			r.Delete("/databases/{name}", s.handleRemoveDatabase)
			r.Post("/lookup", s.handleLookup)
		})
		r.Delete("/session", s.handleEndSession)

		// Remote search backend
		r.Post("/database-search", s.handleDatabaseSearch)

		// Canned tools
		r.Post("/"+string(tools.PhoneLookup), toolHandler(s, tools.LookupPhone))
		r.Post("/"+string(tools.SocialAnalysis), toolHandler(s, tools.AnalyzeSocial))
		r.Post("/"+string(tools.MetadataAnalysis), toolHandler(s, tools.AnalyzeMetadata))
		r.Post("/"+string(tools.Geolocation), toolHandler(s, tools.Geolocate))
		r.Post("/"+string(tools.DocumentVerify), toolHandler(s, tools.VerifyDocument))
		r.Post("/"+string(tools.NeuralAssistant), s.handleNeuralAssistant)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Pages carry no scripts; styles come from /static only
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self'; img-src 'self' data:; form-action 'self'")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// handleHealth reports liveness with session and upload counters.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"sessions":  s.sessions.Count(),
		"uploads":   s.service.UploadStatus(),
		"remote":    s.service.HasRemote(),
		"reference": s.reference != nil,
		"time":      time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError writes a JSON error response with a plain message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
