package web

import (
	"net/http"

	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/logging"
)

type queryRequest struct {
	Query string `json:"query"`
}

// lookupResponse is the data of POST /api/lookup.
type lookupResponse struct {
	*core.LookupResult
	RemoteWarning string `json:"remoteWarning,omitempty"`
}

// handleLookup searches the caller's databases and the remote source.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	result, err := s.service.Lookup(r.Context(), sessionFrom(r), req.Query)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	resp := lookupResponse{LookupResult: result}
	if result.RemoteErr != nil {
		resp.RemoteWarning = core.MapError(result.RemoteErr).Message
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    resp,
	})
}

// handleDatabaseSearch is the server side of the remote lookup protocol.
// It answers {"success": true, "data": [...]} from the reference store, or
// an empty list when no store is configured.
func (s *Server) handleDatabaseSearch(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, core.MapError(err).Message)
		return
	}

	records := []core.Record{}
	if s.reference != nil {
		found, err := s.reference.Search(r.Context(), req.Query)
		if err != nil {
			logging.FromContext(r.Context()).Error("reference search failed", "error", err)
			writeError(w, http.StatusInternalServerError, core.MapError(err).Message)
			return
		}
		records = found
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    records,
	})
}
