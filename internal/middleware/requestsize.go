package middleware

import (
	"net/http"
)

// DefaultMaxRequestSize is the maximum request body size (1MB). Message
// payloads are small; anything near this bound is abuse.
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize caps request body size, rejecting oversized Content-Length
// up front and bounding chunked bodies with MaxBytesReader.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			defer r.Body.Close()

			next.ServeHTTP(w, r)
		})
	}
}