// app/app.go
package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/contactform/config"
	"github.com/dalemusser/contactform/internal/version"
	"github.com/dalemusser/contactform/logging"
	"github.com/dalemusser/contactform/metrics"
	"github.com/dalemusser/contactform/server"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Hooks are the service-specific steps of the startup sequence. D is the
// bundle of backends built by Connect and handed to BuildHandler.
type Hooks[D any] struct {
	// Name is used only for logging.
	Name string

	// LoadConfig resolves configuration from args, files and env.
	LoadConfig func(logger *zap.Logger, args []string) (*config.Config, error)

	// Connect builds backends (the mail transport). It may be slow; ctx is
	// canceled on shutdown signals.
	Connect func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (D, error)

	// BuildHandler returns the complete http.Handler.
	BuildHandler func(cfg *config.Config, deps D, logger *zap.Logger) (http.Handler, error)
}

// Run loads config, builds the logger, connects backends, builds the
// handler and serves until ctx is canceled or SIGINT/SIGTERM arrives.
// Every failure is logged before it is returned.
func Run[D any](ctx context.Context, hooks Hooks[D], args []string) error {
	boot := logging.Bootstrap()
	defer func() { _ = boot.Sync() }()

	cfg, err := hooks.LoadConfig(boot, args)
	if errors.Is(err, pflag.ErrHelp) {
		return err
	}
	if err != nil {
		boot.Error("config load failed", zap.Error(err))
		return err
	}

	logger, err := logging.Build(cfg.LogLevel, cfg.Env)
	if err != nil {
		boot.Error("logger build failed", zap.Error(err))
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting",
		zap.String("app", hooks.Name),
		zap.String("version", version.String()),
		zap.String("env", cfg.Env),
		zap.String("profile", cfg.Profile),
		zap.String("config_file", cfg.ConfigFile),
		zap.String("mail_transport", cfg.Mail.Transport))
	logger.Debug("resolved config", zap.String("config", cfg.Dump()))

	metrics.RegisterDefault(logger)

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	deps, err := hooks.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("backend connect failed", zap.Error(err))
		return err
	}

	handler, err := hooks.BuildHandler(cfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return err
	}

	if err := server.ListenAndServe(ctx, cfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	return nil
}
