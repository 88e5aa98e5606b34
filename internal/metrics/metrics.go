// Package metrics holds the Prometheus instrumentation for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for PromoPilot
type Metrics struct {
	EmailsSentTotal   prometheus.Counter
	EmailsFailedTotal prometheus.Counter

	ContactsImportedTotal *prometheus.CounterVec

	AiMessagesTotal *prometheus.CounterVec

	ImageJobTransitionsTotal *prometheus.CounterVec

	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EmailsSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "promopilot_emails_sent_total",
				Help: "Total number of campaign emails accepted by the provider",
			},
		),
		EmailsFailedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "promopilot_emails_failed_total",
				Help: "Total number of campaign emails the provider rejected",
			},
		),
		ContactsImportedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promopilot_contacts_imported_total",
				Help: "Total number of imported contacts",
			},
			[]string{"validity"},
		),
		AiMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promopilot_ai_messages_total",
				Help: "Total number of generated marketing messages",
			},
			[]string{"channel", "compliant"},
		),
		ImageJobTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promopilot_image_job_transitions_total",
				Help: "Total number of image job state transitions",
			},
			[]string{"to"},
		),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promopilot_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "promopilot_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.EmailsSentTotal,
		m.EmailsFailedTotal,
		m.ContactsImportedTotal,
		m.AiMessagesTotal,
		m.ImageJobTransitionsTotal,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
