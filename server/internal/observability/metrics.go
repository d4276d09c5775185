package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects request counters per route and a bounded window of durations.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	routeMetrics map[string]*RouteMetrics

	durations    []time.Duration
	maxDurations int
}

// RouteMetrics represents metrics for a specific route.
type RouteMetrics struct {
	requestCount  atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector keeping the last maxDurations durations.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		routeMetrics: make(map[string]*RouteMetrics),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

// RecordRequest records a request.
func (m *Metrics) RecordRequest(route string) {
	m.requestTotal.Add(1)
	m.getRouteMetrics(route).requestCount.Add(1)
}

// RecordFailure records a failed request.
func (m *Metrics) RecordFailure(route string) {
	m.requestFailed.Add(1)
	m.getRouteMetrics(route).errorCount.Add(1)
}

// RecordDuration records a request duration.
func (m *Metrics) RecordDuration(route string, duration time.Duration) {
	rm := m.getRouteMetrics(route)
	rm.totalDuration.Add(duration.Milliseconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
}

// GetRequestTotal returns the total number of requests.
func (m *Metrics) GetRequestTotal() int64 {
	return m.requestTotal.Load()
}

// GetRequestFailed returns the total number of failed requests.
func (m *Metrics) GetRequestFailed() int64 {
	return m.requestFailed.Load()
}

func (m *Metrics) getRouteMetrics(route string) *RouteMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	rm, ok := m.routeMetrics[route]
	if !ok {
		rm = &RouteMetrics{}
		m.routeMetrics[route] = rm
	}
	return rm
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)

	m.mu.Lock()
	m.routeMetrics = make(map[string]*RouteMetrics)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	routes := make(map[string]*RouteMetricsSnapshot, len(m.routeMetrics))
	for route, rm := range m.routeMetrics {
		count := rm.requestCount.Load()
		snapshot := &RouteMetricsSnapshot{
			RequestCount:  count,
			ErrorCount:    rm.errorCount.Load(),
			TotalDuration: rm.totalDuration.Load(),
		}
		if count > 0 {
			snapshot.AverageDuration = snapshot.TotalDuration / count
		}
		routes[route] = snapshot
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Routes:        routes,
		DurationCount: len(m.durations),
		P95DurationMs: percentile(m.durations, 0.95).Milliseconds(),
	}
}

// percentile returns the p-th percentile of durations using nearest rank.
func percentile(durations []time.Duration, p float64) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64                            `json:"request_total"`
	RequestFailed int64                            `json:"request_failed"`
	Routes        map[string]*RouteMetricsSnapshot `json:"routes"`
	DurationCount int                              `json:"duration_count"`
	P95DurationMs int64                            `json:"p95_duration_ms"`
}

// RouteMetricsSnapshot represents metrics for a specific route.
type RouteMetricsSnapshot struct {
	RequestCount    int64 `json:"request_count"`
	ErrorCount      int64 `json:"error_count"`
	TotalDuration   int64 `json:"total_duration_ms"`
	AverageDuration int64 `json:"average_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
