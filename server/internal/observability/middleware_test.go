package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := NewMetrics(10)

	e := echo.New()
	e.Use(Middleware(logger, metrics))
	e.GET("/ok", func(c echo.Context) error {
		reqCtx, ok := FromContext(c.Request().Context())
		require.True(t, ok)
		return c.String(http.StatusOK, reqCtx.RequestID)
	})
	e.GET("/boom", func(echo.Context) error {
		return errors.New("store down")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, rec.Header().Get(HeaderRequestID), rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(HeaderRequestID, "fixed-id")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "fixed-id", rec.Header().Get(HeaderRequestID))

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(2), snapshot.RequestTotal)
	assert.Equal(t, int64(1), snapshot.RequestFailed)
	assert.Equal(t, int64(1), snapshot.Routes["GET /boom"].ErrorCount)
	assert.Contains(t, logs.String(), `"request_id":"fixed-id"`)
	assert.Contains(t, logs.String(), "store down")
}
