package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/realitypatch/realitypatch/internal/request"
)

// Session extracts the session id from the X-Session-ID header, generating a
// fresh one when the header is absent. The id is attached to the request
// context and echoed back on the response so first-contact clients learn
// their identity. A malformed id is rejected outright; no state is touched.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(request.SessionIDHeader)
		if sessionID == "" {
			sessionID = uuid.NewString()
		} else if !request.ValidSessionID(sessionID) {
			http.Error(w, "Invalid session ID", http.StatusBadRequest)
			return
		}

		w.Header().Set(request.SessionIDHeader, sessionID)
		next.ServeHTTP(w, r.WithContext(request.WithSessionID(r.Context(), sessionID)))
	})
}
