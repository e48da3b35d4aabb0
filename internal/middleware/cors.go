package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the browser client at clientURL to call the API with cookies.
// Credentialed requests forbid a wildcard origin, so exactly one origin is
// allowed.
func CORS(clientURL string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{clientURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
