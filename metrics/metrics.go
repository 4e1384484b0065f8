// metrics/metrics.go
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "contactform"

var (
	reqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.01, 0.1, 0.3, 1.2, 5},
		},
		[]string{"route", "method", "status"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Contact submissions by outcome (the error kind, or \"sent\").",
		},
		[]string{"outcome"},
	)

	sendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mail_send_duration_seconds",
			Help:      "Time spent handing one message to the mail transport.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 30},
		},
		[]string{"transport", "result"},
	)
)

// RegisterDefault registers the runtime, process and contactform collectors
// on the default registry. Calling it twice is harmless.
func RegisterDefault(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for name, c := range map[string]prometheus.Collector{
		"go":            collectors.NewGoCollector(),
		"process":       collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		"http duration": reqDuration,
		"submissions":   submissions,
		"send duration": sendDuration,
	} {
		if err := prometheus.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			logger.Fatal("failed to register collector", zap.String("collector", name), zap.Error(err))
		}
	}
}

// ObserveSubmission counts one POST / outcome.
func ObserveSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

// ObserveSend records one transport hand-off.
func ObserveSend(transport string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	sendDuration.WithLabelValues(transport, result).Observe(d.Seconds())
}

// HTTPMetrics records request duration labeled by chi route pattern, so
// unmatched paths collapse into one "unmatched" series.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		proto := r.ProtoMajor
		if proto < 1 {
			proto = 1
		}
		ww := middleware.NewWrapResponseWriter(w, proto)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status < 100 || status > 599 {
			status = http.StatusInternalServerError
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		reqDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
