package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordingMetrics contains all Prometheus metrics related to session
// recording.
type RecordingMetrics struct {
	ActiveSession   prometheus.Gauge
	FramesPersisted prometheus.Counter
	PersistErrors   prometheus.Counter
	SessionsTotal   prometheus.Counter
	WriteLatency    prometheus.Histogram
	registry        *prometheus.Registry
}

// NewRecordingMetrics creates a new instance of RecordingMetrics and
// registers it with the provided registry.
func NewRecordingMetrics(registry *prometheus.Registry) (*RecordingMetrics, error) {
	m := &RecordingMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize recording metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register recording metrics: %w", err)
	}
	return m, nil
}

func (m *RecordingMetrics) initMetrics() error {
	m.ActiveSession = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recording_session_active",
		Help: "Whether a recording session is active (1) or not (0)",
	})

	m.FramesPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recording_frames_persisted_total",
		Help: "Total number of frame/annotation pairs written to disk",
	})

	m.PersistErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recording_persist_errors_total",
		Help: "Total number of failed artifact writes",
	})

	m.SessionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recording_sessions_total",
		Help: "Total number of completed recording sessions",
	})

	m.WriteLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recording_write_latency_seconds",
		Help:    "Latency of persisting one frame/annotation pair",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10),
	})

	return nil
}

// Describe implements the prometheus.Collector interface.
func (m *RecordingMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ActiveSession.Describe(ch)
	m.FramesPersisted.Describe(ch)
	m.PersistErrors.Describe(ch)
	m.SessionsTotal.Describe(ch)
	m.WriteLatency.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *RecordingMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ActiveSession.Collect(ch)
	m.FramesPersisted.Collect(ch)
	m.PersistErrors.Collect(ch)
	m.SessionsTotal.Collect(ch)
	m.WriteLatency.Collect(ch)
}
