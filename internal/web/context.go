package web

import (
	"net/http"

	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/logging"
)

// withSession binds the caller's session to the request context, creating
// one and setting the cookie when the browser has none or it expired.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *core.Session
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			sess, _ = s.sessions.Get(c.Value)
		}
		if sess == nil {
			sess = s.sessions.Create()
			http.SetCookie(w, s.sessionCookie(sess.ID, int(s.cfg.Session.IdleTTL.Seconds())))
			logging.FromContext(r.Context()).Debug("session started", "session_id", sess.ID)
		}

		ctx := logging.With(r.Context(), "session_id", sess.ID)
		ctx = core.ContextWithSession(ctx, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionFrom returns the session bound by withSession.
func sessionFrom(r *http.Request) *core.Session {
	sess, _ := core.SessionFromContext(r.Context())
	return sess
}
