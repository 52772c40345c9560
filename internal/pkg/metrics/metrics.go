package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared by the HTTP layer, the
// webhook pipeline and the geolocation client.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	webhookEvents *prometheus.CounterVec
	geoLookups    *prometheus.CounterVec
	subActions    *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics, registering them on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
		prometheus.MustRegister(
			instance.httpRequests,
			instance.httpDuration,
			instance.webhookEvents,
			instance.geoLookups,
			instance.subActions,
		)
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "arcana",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "arcana",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "arcana",
				Subsystem: "stripe",
				Name:      "webhook_events_total",
				Help:      "Total Stripe webhook events by type and outcome",
			},
			[]string{"event_type", "result"},
		),
		geoLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "arcana",
				Subsystem: "geo",
				Name:      "lookups_total",
				Help:      "Total region lookups by result",
			},
			[]string{"result"},
		),
		subActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "arcana",
				Subsystem: "subscription",
				Name:      "actions_total",
				Help:      "Total user subscription actions by action and result",
			},
			[]string{"action", "result"},
		),
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) RecordWebhook(eventType, result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) RecordGeoLookup(result string) {
	if m == nil {
		return
	}
	m.geoLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordSubscriptionAction(action, result string) {
	if m == nil {
		return
	}
	m.subActions.WithLabelValues(action, result).Inc()
}
