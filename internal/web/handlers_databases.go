package web

import (
	"net/http"
	"net/url"

	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/go-chi/chi/v5"
)

// fileResult is one file of an upload response.
type fileResult struct {
	File     string        `json:"file"`
	OK       bool          `json:"ok"`
	Database *core.Summary `json:"database,omitempty"`
	Error    string        `json:"error,omitempty"`
	Code     string        `json:"code,omitempty"`
}

// uploadResponse is the body of POST /api/databases.
type uploadResponse struct {
	Added     int            `json:"added"`
	Failed    int            `json:"failed"`
	Files     []fileResult   `json:"files"`
	Databases []core.Summary `json:"databases"`
}

func newFileResults(report *core.UploadReport) []fileResult {
	out := make([]fileResult, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		fr := fileResult{File: o.FileName, OK: o.OK()}
		if o.OK() {
			sum := o.Database.Summary()
			fr.Database = &sum
		} else {
			msg := core.MapError(o.Err)
			fr.Error = msg.Message
			fr.Code = msg.Code
		}
		out = append(out, fr)
	}
	return out
}

// handleListDatabases lists the databases of the caller's session.
func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    sessionFrom(r).Summaries(),
	})
}

// handleUploadDatabases ingests a multipart batch into the caller's session.
// Per-file failures are reported in the body; the request itself succeeds.
func (s *Server) handleUploadDatabases(w http.ResponseWriter, r *http.Request) {
	batch, err := s.readUploadBatch(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	defer batch.Close()

	sess := sessionFrom(r)
	report, err := s.service.Upload(r.Context(), sess, batch.inputs)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": report.Added > 0,
		"data": uploadResponse{
			Added:     report.Added,
			Failed:    report.Failed,
			Files:     newFileResults(report),
			Databases: sess.Summaries(),
		},
	})
}

// handleRemoveDatabase removes every database with the given name.
func (s *Server) handleRemoveDatabase(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" {
		s.respondError(w, r, core.ErrMissingInput, http.StatusBadRequest)
		return
	}

	sess := sessionFrom(r)
	removed := sess.Remove(name)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"removed":   removed,
			"databases": sess.Summaries(),
		},
	})
}

// handleEndSession discards the caller's session and clears the cookie.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		// An already expired session is fine
		_ = s.sessions.End(c.Value)
	}
	http.SetCookie(w, s.sessionCookie("", -1))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
