package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// EnableCORS wraps next with CORS handling. With no allowed origins configured
// any origin is reflected back, which suits mobile and emulator clients.
func EnableCORS(next http.Handler, allowedOrigins []string) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if len(allowedOrigins) == 0 {
		opts.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		opts.AllowedOrigins = allowedOrigins
	}
	return cors.New(opts).Handler(next)
}
