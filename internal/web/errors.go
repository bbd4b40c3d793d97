package web

// Every handler failure goes through respondError: the technical error is
// logged with the request ID, and the client gets the core.UserMessage for it
// as JSON under /api/ or as an alert fragment elsewhere.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/logging"
	"github.com/JonMunkholm/osintdesk/internal/web/templates"
)

// ErrorResponse is the body of a failed API call. Error repeats Message for
// clients that only read the error field.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status of an error.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr),
		errors.Is(err, core.ErrFileTooLarge),
		strings.Contains(err.Error(), "request body too large"):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrEmptyQuery),
		errors.Is(err, core.ErrNoDatabases),
		errors.Is(err, core.ErrNoFiles),
		errors.Is(err, core.ErrMissingInput),
		errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, core.ErrInvalidJSON):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrSearchFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and answers with its user message. A zero
// statusCode is derived from the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if statusCode == 0 {
		statusCode = statusFor(err)
	}
	msg := core.MapError(err)

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request failed",
		"route", r.Method+" "+r.URL.Path, "status", statusCode, "code", msg.Code, "error", err)

	if wantsJSON(r) {
		respondErrorJSON(w, msg, statusCode)
		return
	}
	respondErrorHTML(w, r, msg, statusCode)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code})
}

// respondErrorHTML renders the error alert fragment.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error alert", "error", err)
	}
}

// wantsJSON is true for /api/ routes and for callers that send or accept
// JSON.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	for _, h := range []string{"Accept", "Content-Type"} {
		if strings.Contains(r.Header.Get(h), "application/json") {
			return true
		}
	}
	return false
}
