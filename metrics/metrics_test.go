package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSubmission(t *testing.T) {
	before := testutil.ToFloat64(submissions.WithLabelValues("sent"))
	ObserveSubmission("sent")
	ObserveSubmission("sent")
	assert.Equal(t, before+2, testutil.ToFloat64(submissions.WithLabelValues("sent")))
}

func TestObserveSend(t *testing.T) {
	ObserveSend("smtp-test", nil, 10*time.Millisecond)
	ObserveSend("smtp-test", errors.New("refused"), time.Second)

	assert.Equal(t, 2, testutil.CollectAndCount(sendDuration.MustCurryWith(map[string]string{"transport": "smtp-test"})))
}

func TestHTTPMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Post("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	const want = `contactform_http_request_duration_seconds_count{method="POST",route="/",status="418"} 1`
	body := scrape(t)
	assert.True(t, strings.Contains(body, want), "missing %q", want)
}

func TestRegisterDefault_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterDefault(nil)
		RegisterDefault(nil)
	})
}

func scrape(t *testing.T) string {
	t.Helper()
	RegisterDefault(nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
