package instrumentation

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values for upstream requests that never produced an HTTP
// response.
const (
	StatusNetworkError = "network_error"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "morgenmcp_upstream_requests_total",
		Help: "Outbound Morgen API requests by operation and status class.",
	}, []string{"operation", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "morgenmcp_upstream_request_duration_seconds",
		Help:    "Latency of outbound Morgen API requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "morgenmcp_cache_lookups_total",
		Help: "Cache lookups by key namespace and result.",
	}, []string{"namespace", "result"})

	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "morgenmcp_tool_calls_total",
		Help: "MCP tool invocations by tool name and status.",
	}, []string{"tool", "status"})
)

// RecordUpstreamRequest records one completed HTTP exchange with the
// Morgen API. The status label is the status class ("2xx", "4xx", ...)
// to keep metric cardinality bounded.
func RecordUpstreamRequest(operation string, statusCode int, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(operation, statusClass(statusCode)).Inc()
	upstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordUpstreamNetworkError records a request that failed at the
// transport level, before any HTTP status was received.
func RecordUpstreamNetworkError(operation string, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(operation, StatusNetworkError).Inc()
	upstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordCacheLookup records a cache hit or miss for a key namespace.
func RecordCacheLookup(namespace string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(namespace, result).Inc()
}

// RecordToolCall records one MCP tool invocation.
func RecordToolCall(tool string, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	toolCalls.WithLabelValues(tool, status).Inc()
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", code/100)
}
