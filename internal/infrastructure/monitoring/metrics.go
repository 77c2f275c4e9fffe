package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation names used as the "operation" label
const (
	OpList   = "list"
	OpScan   = "scan"
	OpDelete = "delete"
	OpFetch  = "fetch"
	OpLink   = "link"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Filesystem operation metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	startTime time.Time

	// Snapshot for the health endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for JSON responses
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector with its own registry, so several
// servers can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileshelf_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fileshelf_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 120, 300},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fileshelf_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fileshelf_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000, 100000000},
			},
			[]string{"method", "path"},
		),

		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileshelf_operations_total",
				Help: "Total number of filesystem operations by result",
			},
			[]string{"operation", "result"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fileshelf_operation_duration_seconds",
				Help:    "Filesystem operation duration in seconds",
				Buckets: []float64{.001, .01, .1, 1, 5, 15, 60, 180, 300, 600},
			},
			[]string{"operation", "result"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "fileshelf_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.AvgDurationMs += (float64(duration.Milliseconds()) - m.snapshot.AvgDurationMs) / float64(m.snapshot.TotalRequests)
	if len(status) > 0 && status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordOperation records one filesystem operation
func (m *Metrics) RecordOperation(operation, result string, duration time.Duration) {
	m.Operations.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// Snapshot returns current totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
