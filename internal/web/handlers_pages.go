package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/logging"
	"github.com/JonMunkholm/osintdesk/internal/tools"
	"github.com/JonMunkholm/osintdesk/internal/web/templates"
)

// pageData fills the parts of the page every handler shows.
func (s *Server) pageData(r *http.Request) templates.PageData {
	return templates.PageData{
		Databases:     sessionFrom(r).Summaries(),
		Tools:         tools.Catalog,
		Welcome:       tools.WelcomeMessage,
		RemoteEnabled: s.service.HasRemote(),
	}
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, data templates.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handleIndex renders the desk.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, s.pageData(r))
}

// handleUploadPage ingests the submitted files and re-renders the page with
// one notice per file.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	batch, err := s.readUploadBatch(w, r)
	if err != nil {
		s.renderPageError(w, r, err)
		return
	}
	defer batch.Close()

	report, err := s.service.Upload(r.Context(), sessionFrom(r), batch.inputs)
	if err != nil {
		s.renderPageError(w, r, err)
		return
	}

	data := s.pageData(r)
	data.Notices = uploadNotices(report)
	s.renderPage(w, r, http.StatusOK, data)
}

func uploadNotices(report *core.UploadReport) []templates.Notice {
	notices := make([]templates.Notice, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		if o.OK() {
			notices = append(notices, templates.Notice{
				Kind: templates.NoticeSuccess,
				Text: fmt.Sprintf("Database %q loaded (%d records)", o.FileName, len(o.Database.Records)),
			})
			continue
		}
		notices = append(notices, templates.Notice{
			Kind: templates.NoticeError,
			Text: fmt.Sprintf("Error loading %s: %s", o.FileName, core.FormatUserError(o.Err)),
		})
	}
	return notices
}

// handleRemovePage removes a database by name and goes back to the desk.
func (s *Server) handleRemovePage(w http.ResponseWriter, r *http.Request) {
	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		sessionFrom(r).Remove(name)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSearchPage runs a lookup and renders its results or error in the
// results area.
func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	query := r.FormValue("query")
	data := s.pageData(r)
	data.Query = query

	result, err := s.service.Lookup(r.Context(), sessionFrom(r), query)
	if err != nil {
		logging.FromContext(r.Context()).Warn("lookup failed", "error", err)
		msg := core.MapError(err)
		data.Error = &msg
		s.renderPage(w, r, statusFor(err), data)
		return
	}

	data.Result = result
	s.renderPage(w, r, http.StatusOK, data)
}

// renderPageError shows err as an alert on the page.
func (s *Server) renderPageError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Warn("page request failed", "path", r.URL.Path, "error", err)
	msg := core.MapError(err)
	data := s.pageData(r)
	data.Error = &msg
	s.renderPage(w, r, statusFor(err), data)
}
