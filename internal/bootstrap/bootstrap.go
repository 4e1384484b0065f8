// Package bootstrap wires the contact form service into app.Run.
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/contactform/app"
	"github.com/dalemusser/contactform/config"
	"github.com/dalemusser/contactform/internal/handler"
	"github.com/dalemusser/contactform/internal/health"
	"github.com/dalemusser/contactform/internal/mailer"
	"github.com/dalemusser/contactform/internal/version"
	"github.com/dalemusser/contactform/metrics"
	"github.com/dalemusser/contactform/router"
	"go.uber.org/zap"
)

// startupCheckTimeout bounds the transport probe run once at startup.
const startupCheckTimeout = 10 * time.Second

// Deps holds the backends shared by every request.
type Deps struct {
	Mail *mailer.Dispatcher
}

// LoadConfig resolves the service configuration.
func LoadConfig(logger *zap.Logger, args []string) (*config.Config, error) {
	return config.Load(logger, args)
}

// Connect builds the configured mail transport. An unhealthy transport is
// reported but does not stop startup; /readyz keeps reporting it.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Deps, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tr, err := mailer.New(ctx, cfg.Mail, logger)
	if err != nil {
		return Deps{}, err
	}
	d := mailer.NewDispatcher(tr, cfg.Mail.SendTimeout, logger)

	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()
	if err := d.Check(checkCtx); err != nil {
		logger.Warn("mail transport not ready", zap.String("transport", d.TransportName()), zap.Error(err))
	}
	return Deps{Mail: d}, nil
}

// BuildHandler mounts the contact routes and the operational endpoints.
func BuildHandler(cfg *config.Config, deps Deps, logger *zap.Logger) (http.Handler, error) {
	r := router.New(cfg, logger)

	handler.New(cfg.Mail.SendingEmail, cfg.Mail.DestinationEmail, deps.Mail, logger).Mount(r)

	r.Method(http.MethodGet, "/healthz", health.Live())
	r.Method(http.MethodGet, "/readyz", health.Ready(map[string]health.Check{
		"mail": deps.Mail.Check,
	}, health.DefaultTimeout, logger))
	r.Method(http.MethodGet, "/version", version.Handler())
	if cfg.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	return r, nil
}

// Hooks is the contact form service.
var Hooks = app.Hooks[Deps]{
	Name:         "contactform",
	LoadConfig:   LoadConfig,
	Connect:      Connect,
	BuildHandler: BuildHandler,
}
