// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/contactform/config"
	"github.com/go-chi/cors"
)

// default CORS methods and headers for a cross-origin form post.
var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	defaultCORSHeaders = []string{"Accept", "Content-Type", "X-Requested-With"}
)

// CORS applies the configured CORS policy, or passes through when disabled.
func CORS(c config.CORSConfig) func(next http.Handler) http.Handler {
	if !c.EnableCORS {
		return func(next http.Handler) http.Handler { return next }
	}

	methods := c.CORSAllowedMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	headers := c.CORSAllowedHeaders
	if len(headers) == 0 {
		headers = defaultCORSHeaders
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   c.CORSAllowedOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		AllowCredentials: c.CORSAllowCredentials,
		MaxAge:           c.CORSMaxAge,
	})
}
