package tools

import (
	"context"

	"github.com/tellerbot/teller/internal/session"
)

// sessionKey is an unexported context key for zero-allocation type safety.
type sessionKey struct{}

// SessionFromContext retrieves the active conversation session from context.
// Returns nil if not set; tool handlers treat a nil session as
// unauthenticated and skip state updates.
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// requestIDKey is an unexported context key for the request identifier.
type requestIDKey struct{}

// RequestIDFromContext retrieves the request ID from context, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID stores the request ID in context so tool
// invocations can be attributed to the originating request in metrics.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ContextWithSession stores the active conversation session in context.
// The turn runner injects the session before tools execute so handlers
// can read authentication state and record tool activity.
func ContextWithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}
