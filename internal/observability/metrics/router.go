package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RouterMetrics contains all Prometheus metrics related to the client
// registry and distribution router.
type RouterMetrics struct {
	ConnectedClients  *prometheus.GaugeVec
	MessagesRouted    *prometheus.CounterVec
	BroadcastFanout   prometheus.Histogram
	RegistrationCount *prometheus.CounterVec
	registry          *prometheus.Registry
}

// NewRouterMetrics creates a new instance of RouterMetrics and registers it
// with the provided registry.
func NewRouterMetrics(registry *prometheus.Registry) (*RouterMetrics, error) {
	m := &RouterMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize router metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register router metrics: %w", err)
	}
	return m, nil
}

func (m *RouterMetrics) initMetrics() error {
	m.ConnectedClients = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "router_connected_clients",
		Help: "Number of currently connected clients by role",
	}, []string{"role"})

	m.MessagesRouted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "router_messages_routed_total",
		Help: "Total number of messages routed by message type",
	}, []string{"type"})

	m.BroadcastFanout = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "router_broadcast_fanout",
		Help:    "Number of recipients per broadcast",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})

	m.RegistrationCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "router_registrations_total",
		Help: "Total number of role registrations",
	}, []string{"role"})

	return nil
}

// Describe implements the prometheus.Collector interface.
func (m *RouterMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ConnectedClients.Describe(ch)
	m.MessagesRouted.Describe(ch)
	m.BroadcastFanout.Describe(ch)
	m.RegistrationCount.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *RouterMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ConnectedClients.Collect(ch)
	m.MessagesRouted.Collect(ch)
	m.BroadcastFanout.Collect(ch)
	m.RegistrationCount.Collect(ch)
}
