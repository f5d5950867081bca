// file: internal/metrics/metrics.go

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects what a single credential run did. A run is short lived,
// so nothing is served; the registry is dumped to a textfile on exit.
type Metrics struct {
	registry *prometheus.Registry

	// Outbound API calls
	httpOutboundRequestsTotal *prometheus.CounterVec
	httpOutboundDuration      *prometheus.HistogramVec

	// Credential flow
	refreshTotal    *prometheus.CounterVec
	tokenPollsTotal prometheus.Counter
	promptsTotal    *prometheus.CounterVec
	flowTotal       *prometheus.CounterVec
}

// NewMetrics creates a new metrics instance with all collectors registered
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,

		httpOutboundRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obot_cred_http_outbound_requests_total",
				Help: "Total number of requests made to the Obot API by endpoint and status code",
			},
			[]string{"endpoint", "status_code"},
		),
		httpOutboundDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "obot_cred_http_outbound_duration_seconds",
				Help:    "Obot API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		refreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obot_cred_refresh_total",
				Help: "Refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
		tokenPollsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "obot_cred_token_polls_total",
				Help: "Total number of token-request status polls",
			},
		),
		promptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obot_cred_prompts_total",
				Help: "Prompts shown to the user by kind and whether the prompt handled them",
			},
			[]string{"kind", "handled"},
		),
		flowTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obot_cred_flow_total",
				Help: "Credential runs by path taken and result",
			},
			[]string{"path", "result"},
		),
	}

	collectors := []prometheus.Collector{
		m.httpOutboundRequestsTotal,
		m.httpOutboundDuration,
		m.refreshTotal,
		m.tokenPollsTotal,
		m.promptsTotal,
		m.flowTotal,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// GetRegistry returns the Prometheus registry
func (m *Metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

// IncHTTPOutboundRequestsTotal increments the API request counter
func (m *Metrics) IncHTTPOutboundRequestsTotal(endpoint string, statusCode int) {
	m.httpOutboundRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", statusCode)).Inc()
}

// ObserveHTTPOutboundDuration observes API request duration
func (m *Metrics) ObserveHTTPOutboundDuration(endpoint string, seconds float64) {
	m.httpOutboundDuration.WithLabelValues(endpoint).Observe(seconds)
}

// IncRefresh records a refresh outcome ("refreshed" or a failure reason)
func (m *Metrics) IncRefresh(outcome string) {
	m.refreshTotal.WithLabelValues(outcome).Inc()
}

// IncTokenPolls increments the poll counter
func (m *Metrics) IncTokenPolls() {
	m.tokenPollsTotal.Inc()
}

// IncPrompts records one prompt
func (m *Metrics) IncPrompts(kind string, handled bool) {
	m.promptsTotal.WithLabelValues(kind, fmt.Sprintf("%t", handled)).Inc()
}

// IncFlow records how a run ended
func (m *Metrics) IncFlow(path, result string) {
	m.flowTotal.WithLabelValues(path, result).Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
