// Package pipeline ties decoding, calibration, denoising, rate decimation
// and analysis together into one per-device processing context. All mutable
// stream state (denoiser history, frame counters, cached annotation) lives
// here, scoped to a single sensor device connection; two registered devices
// never share a pipeline.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thermalab/thermal-ar-go/internal/analysis"
	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/frame"
	"github.com/thermalab/thermal-ar-go/internal/logging"
	"github.com/thermalab/thermal-ar-go/internal/observability/metrics"
)

// Recorder persists processed cycles. Implemented by the recording manager;
// a nil Recorder disables persistence.
type Recorder interface {
	// Persist is called for every processed frame while a session is
	// active. Implementations must not block the processing path.
	Persist(raw *frame.Frame, ann *analysis.Annotation)
}

// Pipeline processes the frame stream of one sensor device. Submissions must
// arrive in order; the caller (the device's connection read loop) guarantees
// that. Stats reads may happen concurrently with submissions.
type Pipeline struct {
	deviceID string
	decoder  *frame.Decoder
	cal      frame.Calibration
	denoiser *frame.Denoiser
	engine   *analysis.Engine
	recorder Recorder
	metrics  *metrics.PipelineMetrics
	log      *slog.Logger

	// decimation: process one frame out of every 'every' received
	every uint64

	mu         sync.Mutex
	frameCount uint64
	cached     *analysis.Annotation
	stats      Stats
}

// New creates a pipeline for one device stream. recorder and m may be nil.
func New(deviceID string, settings *conf.Settings, cal frame.Calibration, engine *analysis.Engine, recorder Recorder, m *metrics.PipelineMetrics) *Pipeline {
	t := settings.Realtime.Thermal
	every := uint64(1)
	if t.TargetFPS > 0 && t.SensorFPS > t.TargetFPS {
		every = uint64(t.SensorFPS / t.TargetFPS)
	}

	return &Pipeline{
		deviceID: deviceID,
		decoder:  frame.NewDecoder(t.Width, t.Height),
		cal:      cal,
		denoiser: frame.NewDenoiser(),
		engine:   engine,
		recorder: recorder,
		metrics:  m,
		log:      logging.ForService("pipeline").With("device", deviceID),
		every:    every,
	}
}

// Submit runs one frame buffer through the stream. Frames falling on the
// decimation gate are fully processed and refresh the cached annotation;
// skipped frames return the cached annotation unchanged (nil until the first
// processed frame). The detected wire format is always reported so callers
// can confirm it to the device.
func (p *Pipeline) Submit(ctx context.Context, buf []byte, mode analysis.Mode) (*analysis.Annotation, frame.Format, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	p.stats.FramesReceived++
	if p.metrics != nil {
		p.metrics.FramesReceived.WithLabelValues(p.deviceID).Inc()
	}

	if p.frameCount%p.every != 0 {
		// skipped frame, serve the cached result
		p.stats.DroppedFrames++
		if p.metrics != nil {
			p.metrics.FramesDropped.WithLabelValues(p.deviceID).Inc()
		}
		return p.cached, frame.DetectFormat(buf), nil
	}

	start := time.Now()

	raw, format, err := p.decoder.Decode(buf)
	if err != nil {
		// the cycle aborts for this frame only, cached stays valid
		if p.metrics != nil {
			p.metrics.DecodeErrors.WithLabelValues(p.deviceID).Inc()
		}
		return p.cached, format, err
	}

	calibrated := p.cal.Apply(raw)
	denoised := p.denoiser.Denoise(calibrated)

	ann, err := p.engine.Analyze(ctx, mode, denoised)
	if err != nil {
		return p.cached, format, err
	}
	ann.FrameNumber = p.frameCount

	elapsed := time.Since(start)
	ann.ProcessingTimeMs = float64(elapsed.Microseconds()) / 1000.0

	p.cached = ann
	p.stats.FramesProcessed++
	p.stats.observeLatency(ann.ProcessingTimeMs)
	if p.metrics != nil {
		p.metrics.FramesProcessed.WithLabelValues(p.deviceID).Inc()
		p.metrics.ProcessingLatency.Observe(elapsed.Seconds())
	}

	if p.recorder != nil {
		p.recorder.Persist(raw, ann)
	}

	return ann, format, nil
}

// Cached returns the most recent annotation, or nil if none exists yet.
func (p *Pipeline) Cached() *analysis.Annotation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cached
}

// FrameCount returns the number of frames received so far.
func (p *Pipeline) FrameCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameCount
}

// Stats returns a snapshot of the stream counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Reset clears per-stream history, used when a device stream restarts.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.denoiser.Reset()
	p.frameCount = 0
	p.cached = nil
	p.stats = Stats{}
}
