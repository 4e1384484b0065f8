// router/router.go
package router

import (
	"github.com/dalemusser/contactform/config"
	"github.com/dalemusser/contactform/logging"
	"github.com/dalemusser/contactform/metrics"
	"github.com/dalemusser/contactform/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New returns a chi.Router with the service middleware stack and plain-text
// 404/405 handlers. Routes are mounted by the caller.
//
// CORS sits ahead of the body limit so preflights are answered untouched.
func New(cfg *config.Config, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.LimitBodySize(cfg.MaxRequestBodyBytes))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
