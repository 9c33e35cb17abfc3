// Package request holds per-request plumbing shared by middleware and
// handlers: client IP extraction and session-id context propagation.
package request

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionIDHeader carries the caller's session identifier.
const SessionIDHeader = "X-Session-ID"

// sessionIDPattern accepts UUIDs plus the legacy "user_<ts>_<rand>" format so
// migrated clients keep their identity.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// ClientIP extracts the client IP from the request, respecting
// X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// ValidSessionID reports whether the given session identifier is acceptable.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// WithSessionID returns a context with the session id attached.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionContextKey, sessionID)
}

// SessionIDFromContext returns the session id from the request context, or ""
// when missing.
func SessionIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionContextKey).(string)
	return s
}
