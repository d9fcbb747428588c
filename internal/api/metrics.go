package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "card_point_http_requests_total",
		Help: "Total HTTP requests, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "card_point_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"method", "endpoint"})

	upstreamResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "card_point_upstream_results_total",
		Help: "Classified upstream lookups by outcome",
	}, []string{"outcome"})

	credentialExpiry = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "card_point_credential_expiry_seconds",
		Help: "Seconds until the upstream credential expires; negative once expired",
	})
)

// ObserveCredentialExpiry records the time left on the upstream credential.
func ObserveCredentialExpiry(remaining time.Duration) {
	credentialExpiry.Set(remaining.Seconds())
}
