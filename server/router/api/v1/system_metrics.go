package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/notegraph/server/internal/observability"
)

// MetricsOverviewResponse represents the overview response of request metrics.
type MetricsOverviewResponse struct {
	TotalRequests int64                                          `json:"total_requests"`
	ErrorCount    int64                                          `json:"error_count"`
	SuccessRate   float64                                        `json:"success_rate"`
	P95LatencyMs  int64                                          `json:"p95_latency_ms"`
	SampleCount   int                                            `json:"sample_count"`
	Routes        map[string]*observability.RouteMetricsSnapshot `json:"routes"`
}

// GetMetricsOverview returns request metrics collected since the server started.
// GET /api/v1/system/metrics
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	snapshot := s.Metrics.Snapshot()
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests: snapshot.RequestTotal,
		ErrorCount:    snapshot.RequestFailed,
		SuccessRate:   snapshot.SuccessRate(),
		P95LatencyMs:  snapshot.P95DurationMs,
		SampleCount:   snapshot.DurationCount,
		Routes:        snapshot.Routes,
	})
}
