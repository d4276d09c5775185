package observability

import (
	"log/slog"

	"github.com/labstack/echo/v4"
)

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = "X-Request-Id"

// Middleware attaches a RequestContext to each request, then logs and
// records the outcome under the matched route.
func Middleware(logger *slog.Logger, metrics *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route := req.Method + " " + c.Path()

			requestID := req.Header.Get(HeaderRequestID)
			var reqCtx *RequestContext
			if requestID == "" {
				reqCtx = NewRequestContext(logger, route)
			} else {
				reqCtx = NewRequestContextWithID(logger, requestID, route)
			}
			c.SetRequest(req.WithContext(WithRequestContext(req.Context(), reqCtx)))
			c.Response().Header().Set(HeaderRequestID, reqCtx.RequestID)

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			status := c.Response().Status
			metrics.RecordRequest(route)
			metrics.RecordDuration(route, reqCtx.Duration())
			attrs := []slog.Attr{
				slog.Int(LogFieldStatus, status),
				slog.Int64(LogFieldDuration, reqCtx.DurationMs()),
			}
			if status >= 500 {
				metrics.RecordFailure(route)
				if err != nil {
					reqCtx.Error("request failed", err, attrs...)
				} else {
					reqCtx.Warn("request failed", attrs...)
				}
			} else {
				reqCtx.Debug("request served", attrs...)
			}
			return nil
		}
	}
}
