package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns CORS middleware for the briefing API. Credentials are only
// allowed when origins are listed explicitly.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	credentials := true
	for _, o := range allowedOrigins {
		if o == "*" {
			credentials = false
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Correlation-ID"},
		ExposedHeaders:   []string{"X-Correlation-ID", "Retry-After"},
		AllowCredentials: credentials,
		MaxAge:           300,
	})
}
