package web

import (
	"net/http"

	"github.com/JonMunkholm/osintdesk/internal/tools"
)

// toolHandler decodes Req, runs the tool and answers {"success": true,
// "data": result}.
func toolHandler[Req, Res any](s *Server, run func(Req) (Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := decodeJSON(w, r, &req); err != nil {
			s.respondError(w, r, err, 0)
			return
		}

		res, err := run(req)
		if err != nil {
			s.respondError(w, r, err, 0)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    res,
		})
	}
}

// handleNeuralAssistant answers a chat message with a scripted reply.
func (s *Server) handleNeuralAssistant(w http.ResponseWriter, r *http.Request) {
	var req tools.AssistantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	reply, err := s.assistant.Reply(req)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"response": reply,
	})
}
