package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	assert.Error(t, Init("verbose"))
	require.NoError(t, Init("debug"))
	assert.NoError(t, Sync())
}

func TestWithLoggingHTTPMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	previous := Log
	Log = zap.New(core).Sugar()
	defer func() { Log = previous }()

	handler := middleware.RequestID(WithLoggingHTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("hello"))
		assert.NoError(t, err)
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, logs.Len())

	message := logs.All()[0].Message
	assert.Contains(t, message, "/ping")
	assert.Contains(t, message, "status 200")
	assert.Contains(t, message, "size 5")
	assert.Contains(t, message, "request_id")
}
