// AngelaMos | 2026
// metrics.go

package core

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AttributionResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxdesk",
			Name:      "attribution_resolutions_total",
			Help:      "Attribution resolutions by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	AccessDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxdesk",
			Name:      "access_decisions_total",
			Help:      "Access gate decisions.",
		},
		[]string{"decision"},
	)

	ViewAsTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxdesk",
			Name:      "view_as_transitions_total",
			Help:      "Role preview switches, reverts and rejected states.",
		},
		[]string{"action"},
	)

	ProtectedOperationDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxdesk",
			Name:      "protected_operation_denials_total",
			Help:      "Protected operations refused for the actual role.",
		},
		[]string{"operation"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taxdesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

var registerOnce sync.Once

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			AttributionResolutions,
			AccessDecisions,
			ViewAsTransitions,
			ProtectedOperationDenials,
			HTTPRequests,
			HTTPDuration,
		)
	})
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
