// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crm_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	accountResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_account_resolutions_total",
			Help: "Account name reconciliations by outcome",
		},
		[]string{"result"},
	)

	leadConversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_lead_conversions_total",
			Help: "Lead conversion attempts by outcome",
		},
		[]string{"result"},
	)

	eventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_event_publish_failures_total",
			Help: "Domain events that could not be published",
		},
		[]string{"type"},
	)
)

// Outcome labels for lead conversions
const (
	ConversionSucceeded        = "succeeded"
	ConversionAlreadyConverted = "already_converted"
	ConversionRejected         = "rejected"
	ConversionFailed           = "failed"
)

// ObserveHTTP records one served request
func ObserveHTTP(method, route, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RequestStarted tracks an in-flight request; call the returned func when done
func RequestStarted() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// RecordAccountResolution counts a reconciliation that matched or created an account
func RecordAccountResolution(created bool) {
	result := "matched"
	if created {
		result = "created"
	}
	accountResolutions.WithLabelValues(result).Inc()
}

// RecordLeadConversion counts a conversion attempt by outcome
func RecordLeadConversion(result string) {
	leadConversions.WithLabelValues(result).Inc()
}

// RecordEventPublishFailure counts an event that did not reach the broker
func RecordEventPublishFailure(eventType string) {
	eventPublishFailures.WithLabelValues(eventType).Inc()
}
