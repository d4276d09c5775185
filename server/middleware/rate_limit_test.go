package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/hrygo/notegraph/server/internal/errors"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiterWithRate(0, 2)
	defer rl.Close()

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are limited independently")
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiterWithRate(0, 1)
	defer rl.Close()

	e := echo.New()
	handler := rl.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	serve := func() error {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	require.NoError(t, serve())
	err := serve()
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.ErrCodeRateLimitExceeded))
}
