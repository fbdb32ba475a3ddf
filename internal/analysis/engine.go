package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/detector"
	"github.com/thermalab/thermal-ar-go/internal/frame"
	"github.com/thermalab/thermal-ar-go/internal/logging"
)

// Engine dispatches a calibrated frame to the analysis for the requested
// mode. The engine is state-free per call and safe for concurrent use; all
// per-stream state lives in the pipeline that owns the stream.
type Engine struct {
	detector detector.Detector
	policy   conf.AnalysisSettings
	log      *slog.Logger
}

// New creates an analysis engine using det for object localization and the
// policy constants from settings.
func New(det detector.Detector, settings *conf.Settings) *Engine {
	return &Engine{
		detector: det,
		policy:   settings.Realtime.Analysis,
		log:      logging.ForService("analysis"),
	}
}

// Analyze runs the analysis for mode on a calibrated temperature frame.
// A failing or absent detector degrades to an empty detection list rather
// than failing the cycle. An unknown mode is an error.
func (e *Engine) Analyze(ctx context.Context, mode Mode, f *frame.Frame) (*Annotation, error) {
	start := time.Now()

	detections := e.detect(ctx, f)

	ann := &Annotation{
		Mode:       mode,
		Detections: detections,
		Timestamp:  start.UnixMilli(),
	}

	switch mode {
	case ModeBuilding:
		ann.ThermalAnomalies = e.analyzeBuilding(f)
	case ModeElectronics:
		ann.ComponentTemps = e.analyzeElectronics(f, detections)
	default:
		return nil, ErrUnknownMode
	}

	ann.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	return ann, nil
}

// detect runs the detector, treating unavailability and inference failures
// as a degraded empty result.
func (e *Engine) detect(ctx context.Context, f *frame.Frame) []detector.Detection {
	if e.detector == nil || !e.detector.Available() {
		return []detector.Detection{}
	}

	detections, err := e.detector.Detect(ctx, f)
	if err != nil {
		e.log.Warn("detector failed, continuing without detections", "error", err)
		return []detector.Detection{}
	}
	if detections == nil {
		detections = []detector.Detection{}
	}
	return detections
}
