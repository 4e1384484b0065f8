// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/dalemusser/contactform/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM. The
// cancel func also releases the signal handler.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Stringer("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServe binds cfg.HTTPPort and serves until ctx is canceled.
// TLS is used when a certificate pair is configured.
func ListenAndServe(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return errors.New("server: nil config")
	}
	addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return Serve(ctx, ln, cfg, handler, logger)
}

// Serve runs the HTTP server on ln until ctx is canceled, then shuts down
// gracefully within cfg.HTTP.ShutdownTimeout. ln is closed on return.
func Serve(ctx context.Context, ln net.Listener, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	if handler == nil {
		_ = ln.Close()
		return errors.New("server: nil handler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}

	scheme := "http"
	if cfg.HTTP.UseTLS() {
		tlsCfg, err := loadTLS(cfg.HTTP.CertFile, cfg.HTTP.KeyFile, cfg.Env, logger)
		if err != nil {
			_ = ln.Close()
			return err
		}
		srv.TLSConfig = tlsCfg
		ln = tls.NewListener(ln, tlsCfg)
		scheme = "https"
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()
	logger.Info("server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("scheme", scheme))

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.Duration("timeout", cfg.HTTP.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("server shutdown: %w", err)
	}
	<-serveErr
	logger.Info("server stopped gracefully")
	return nil
}

func loadTLS(certFile, keyFile, env string, logger *zap.Logger) (*tls.Config, error) {
	if err := checkTLSFiles(certFile, keyFile); err != nil {
		var perm *permissionError
		if !errors.As(err, &perm) || env == "prod" {
			return nil, err
		}
		logger.Warn("TLS key file is readable by others; this is refused in prod", zap.Error(err))
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load TLS cert/key: %w", err)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}, nil
}

type permissionError struct {
	path string
	mode os.FileMode
}

func (e *permissionError) Error() string {
	return fmt.Sprintf("TLS key file %s has permissions %o (want 0600)", e.path, e.mode)
}

// checkTLSFiles verifies both files exist and the key is not group or
// world accessible.
func checkTLSFiles(certFile, keyFile string) error {
	for _, f := range []struct{ kind, path string }{{"certificate", certFile}, {"key", keyFile}} {
		fi, err := os.Stat(f.path)
		if err != nil {
			return fmt.Errorf("TLS %s file: %w", f.kind, err)
		}
		if fi.IsDir() {
			return fmt.Errorf("TLS %s path %s is a directory", f.kind, f.path)
		}
		if f.kind == "key" && runtime.GOOS != "windows" && fi.Mode().Perm()&0o077 != 0 {
			return &permissionError{path: f.path, mode: fi.Mode().Perm()}
		}
	}
	return nil
}
