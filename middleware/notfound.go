// middleware/notfound.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/contactform/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler answers unknown paths with a plain-text 404.
func NotFoundHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Debug("not_found",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
		}
		writePlain(w, http.StatusNotFound, "not found")
	}
}

// MethodNotAllowedHandler answers known paths hit with the wrong method.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Debug("method_not_allowed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
		}
		writePlain(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func writePlain(w http.ResponseWriter, status int, body string) {
	httputil.WriteText(w, status, body)
}
