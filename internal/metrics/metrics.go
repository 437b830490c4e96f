package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors of the agent. A nil *Metrics is a valid no-op.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	FeedRefreshes    *prometheus.CounterVec
	FeedSize         *prometheus.GaugeVec
	WebhookEvents    *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_provider_requests_total",
				Help: "Chat completion requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_provider_latency_seconds",
				Help:    "Latency of successful chat completion requests",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"provider"},
		),
		FeedRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_feed_refreshes_total",
				Help: "Community feed refresh passes by feed and outcome",
			},
			[]string{"feed", "outcome"},
		),
		FeedSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agent_feed_items",
				Help: "Number of items currently held by a community feed",
			},
			[]string{"feed"},
		),
		WebhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_webhook_events_total",
				Help: "Host platform webhook events by type",
			},
			[]string{"type"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.ProviderRequests,
			m.ProviderLatency,
			m.FeedRefreshes,
			m.FeedSize,
			m.WebhookEvents,
			m.HTTPRequests,
		)
	}
	return m
}

func (m *Metrics) ObserveProvider(provider, outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	if outcome == "success" {
		m.ProviderLatency.WithLabelValues(provider).Observe(latency.Seconds())
	}
}

func (m *Metrics) ObserveRefresh(feed, outcome string, size int) {
	if m == nil {
		return
	}
	m.FeedRefreshes.WithLabelValues(feed, outcome).Inc()
	m.FeedSize.WithLabelValues(feed).Set(float64(size))
}

func (m *Metrics) IncWebhook(eventType string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncHTTP(method, route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
}
