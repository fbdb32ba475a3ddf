// Package metrics provides custom Prometheus metrics for the components of
// the thermal-ar-go application.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains all Prometheus metrics related to the frame
// processing pipeline.
type PipelineMetrics struct {
	FramesReceived    *prometheus.CounterVec
	FramesProcessed   *prometheus.CounterVec
	FramesDropped     *prometheus.CounterVec
	DecodeErrors      *prometheus.CounterVec
	ProcessingLatency prometheus.Histogram
	registry          *prometheus.Registry
}

// NewPipelineMetrics creates a new instance of PipelineMetrics and registers
// it with the provided registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() error {
	m.FramesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_frames_received_total",
		Help: "Total number of frames received from sensor devices",
	}, []string{"device"})

	m.FramesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_frames_processed_total",
		Help: "Total number of frames run through the analysis pipeline",
	}, []string{"device"})

	m.FramesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_frames_dropped_total",
		Help: "Total number of frames skipped by rate decimation",
	}, []string{"device"})

	m.DecodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_decode_errors_total",
		Help: "Total number of frames that failed to decode",
	}, []string{"device"})

	m.ProcessingLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_processing_latency_seconds",
		Help:    "Latency of one full frame processing cycle in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
	})

	return nil
}

// Describe implements the prometheus.Collector interface.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.FramesReceived.Describe(ch)
	m.FramesProcessed.Describe(ch)
	m.FramesDropped.Describe(ch)
	m.DecodeErrors.Describe(ch)
	m.ProcessingLatency.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.FramesReceived.Collect(ch)
	m.FramesProcessed.Collect(ch)
	m.FramesDropped.Collect(ch)
	m.DecodeErrors.Collect(ch)
	m.ProcessingLatency.Collect(ch)
}
