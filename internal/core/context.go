package core

import "context"

type contextKey string

const ctxKeySession contextKey = "session"

// ContextWithSession attaches the caller's session to ctx.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, sess)
}

// SessionFromContext returns the session attached by ContextWithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKeySession).(*Session)
	return sess, ok && sess != nil
}
