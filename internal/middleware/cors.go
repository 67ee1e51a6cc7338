package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORS returns middleware that lets the listed browser origins call the API.
// A single "*" allows any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", "X-Request-Id"}),
		handlers.MaxAge(600),
	)
}
