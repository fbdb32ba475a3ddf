// Package observability provides metrics and monitoring capabilities for the
// thermal-ar-go application.
package observability

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thermalab/thermal-ar-go/internal/logging"
	"github.com/thermalab/thermal-ar-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Pipeline  *metrics.PipelineMetrics
	Router    *metrics.RouterMetrics
	Recording *metrics.RecordingMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	pipelineMetrics, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	routerMetrics, err := metrics.NewRouterMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create router metrics: %w", err)
	}

	recordingMetrics, err := metrics.NewRecordingMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Pipeline:  pipelineMetrics,
		Router:    routerMetrics,
		Recording: recordingMetrics,
	}, nil
}

// RegisterHandlers registers the metrics endpoint with the provided ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

// metricsHandler is the HTTP handler for the /metrics endpoint.
func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	h.ServeHTTP(w, r)
}

// Serve runs a dedicated HTTP listener for the metrics endpoint until ctx is
// canceled.
func (m *Metrics) Serve(ctx context.Context, listen string) error {
	logger := logging.ForService("telemetry")

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)

	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("telemetry endpoint listening", "listen", listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
