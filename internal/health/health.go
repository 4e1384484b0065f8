// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dalemusser/contactform/httputil"
	"go.uber.org/zap"
)

// Check probes one dependency; nil means healthy.
type Check func(ctx context.Context) error

// Response is the JSON body of both probes.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DefaultTimeout bounds one readiness run.
const DefaultTimeout = 5 * time.Second

// Live always answers 200 {"status":"ok"} while the process serves HTTP.
func Live() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"}, nil)
	})
}

// Ready runs every check and answers 503 when any of them fails. Checks run
// in name order under one shared timeout.
func Ready(checks map[string]Check, timeout time.Duration, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		resp := Response{Status: "ok", Checks: make(map[string]string, len(names))}
		for _, name := range names {
			check := checks[name]
			if check == nil {
				resp.Checks[name] = "ok"
				continue
			}
			if err := check(ctx); err != nil {
				resp.Status = "error"
				resp.Checks[name] = "error: " + err.Error()
				logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
				continue
			}
			resp.Checks[name] = "ok"
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp, logger)
	})
}
