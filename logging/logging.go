// logging/logging.go
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels accepted by Build, lowest first.
var Levels = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

// ValidLevel reports whether level names a zap level (case-insensitive).
func ValidLevel(level string) bool {
	var l zapcore.Level
	return l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))) == nil
}

// Bootstrap returns the stderr logger used until config is resolved.
func Bootstrap() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Build returns the service logger. env "prod" selects JSON output with
// sampling; anything else selects the console encoder. Both write to stderr.
func Build(level, env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if err := cfg.Level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return nil, fmt.Errorf("log level %q: want one of %s", level, strings.Join(Levels, ", "))
	}

	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build(zap.Fields(zap.String("service", "contactform")))
}
