package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestValidLevel(t *testing.T) {
	for _, l := range Levels {
		assert.True(t, ValidLevel(l), l)
	}
	assert.True(t, ValidLevel(" WARN "))
	assert.False(t, ValidLevel("verbose"))
}

func TestBuild(t *testing.T) {
	for _, env := range []string{"dev", "prod"} {
		logger, err := Build("debug", env)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	}

	_, err := Build("loud", "prod")
	assert.Error(t, err)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("missing"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.EqualValues(t, 422, fields["status"])
	assert.EqualValues(t, 7, fields["bytes"])
	assert.Equal(t, "application/json", fields["content_type"])
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := Recoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "an internal error occurred", rec.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}
