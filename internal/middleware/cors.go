package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"

	"github.com/realitypatch/realitypatch/internal/request"
)

// CORS builds CORS middleware from a comma-separated origin list (typically
// FRONTEND_URL). Localhost is always allowed for development.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	origins := allowedOrigins(frontendURL)

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", request.SessionIDHeader},
		ExposedHeaders:   []string{request.SessionIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return c.Handler
}

func allowedOrigins(frontendURL string) []string {
	origins := []string{"http://localhost:3000"}
	for _, o := range strings.Split(frontendURL, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		dup := false
		for _, existing := range origins {
			if existing == o {
				dup = true
				break
			}
		}
		if !dup {
			origins = append(origins, o)
		}
	}
	return origins
}
