package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the web UI origins. The media route answers range requests,
// so the range headers are exposed to the <video> element's scripts.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// Credentials are never combined with a wildcard origin
	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Range"},
		ExposedHeaders:   []string{"Accept-Ranges", "Content-Length", "Content-Range", "Retry-After"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	})
}
