// Package recording persists processed frame cycles to disk as replayable
// session artifacts: one raw frame file and one annotation file per cycle,
// plus a metadata index finalized when the session stops.
package recording

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thermalab/thermal-ar-go/internal/analysis"
	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/datastore"
	"github.com/thermalab/thermal-ar-go/internal/errors"
	"github.com/thermalab/thermal-ar-go/internal/frame"
	"github.com/thermalab/thermal-ar-go/internal/logging"
	"github.com/thermalab/thermal-ar-go/internal/observability/metrics"
)

// queueSize bounds the writer queue. Persist drops frames instead of
// blocking the processing loop when disk writes fall behind.
const queueSize = 64

// Sentinel errors for invalid state transitions.
var (
	ErrAlreadyRecording = errors.Newf("a recording session is already active").
				Component("recording").
				Category(errors.CategoryRecordingState).
				Build()
	ErrNotRecording = errors.Newf("no recording session is active").
			Component("recording").
			Category(errors.CategoryRecordingState).
			Build()
)

// Metadata is the session index written as metadata.json when a session
// finalizes.
type Metadata struct {
	SessionName     string       `json:"session_name"`
	StartTime       string       `json:"start_time"`
	EndTime         string       `json:"end_time"`
	Resolution      [2]int       `json:"resolution"`
	FPS             int          `json:"fps"`
	TotalFrames     int          `json:"total_frames"`
	DurationSeconds float64      `json:"duration_seconds"`
	Frames          []FrameEntry `json:"frames"`
}

// FrameEntry indexes one persisted cycle inside a session.
type FrameEntry struct {
	Frame          uint64 `json:"frame"`
	Timestamp      int64  `json:"timestamp"`
	FrameFile      string `json:"frame_file"`
	AnnotationFile string `json:"annotation_file"`
}

// capture is one frame cycle queued for the writer goroutine. The frame is
// cloned before queueing so the writer never races the pipeline.
type capture struct {
	raw *frame.Frame
	ann *analysis.Annotation
}

// session is the writer-side state of one active recording.
type session struct {
	name  string
	dir   string
	start time.Time
	queue chan capture
	done  chan struct{}

	// writer-owned, safe to read only after done is closed
	entries []FrameEntry

	dropped atomic.Int64
}

// Manager owns the recording state machine. At most one session is active
// at a time; frames submitted while idle are discarded silently.
type Manager struct {
	settings *conf.Settings
	store    datastore.Interface
	metrics  *metrics.RecordingMetrics
	log      *slog.Logger

	mu     sync.Mutex
	active *session
}

// NewManager creates a recording manager rooted at the configured recording
// path. The store may be a NoopStore when no database output is enabled.
func NewManager(settings *conf.Settings, store datastore.Interface, m *metrics.RecordingMetrics) *Manager {
	return &Manager{
		settings: settings,
		store:    store,
		metrics:  m,
		log:      logging.ForService("recording"),
	}
}

// Start begins a new recording session and returns its name. An empty name
// generates a timestamped one. Returns ErrAlreadyRecording when a session is
// active.
func (mgr *Manager) Start(name string) (string, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if mgr.active != nil {
		return "", ErrAlreadyRecording
	}

	now := time.Now()
	if name == "" {
		name = "recording_" + now.Format("20060102_150405")
	}
	dir := filepath.Join(conf.GetBasePath(mgr.settings.Realtime.Recording.Path), name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.New(err).
			Component("recording").
			Category(errors.CategoryFileIO).
			Context("operation", "create-session-dir").
			Context("path", dir).
			Build()
	}

	s := &session{
		name:  name,
		dir:   dir,
		start: now,
		queue: make(chan capture, queueSize),
		done:  make(chan struct{}),
	}
	mgr.active = s
	go mgr.writer(s)

	if mgr.metrics != nil {
		mgr.metrics.ActiveSession.Set(1)
		mgr.metrics.SessionsTotal.Inc()
	}
	mgr.log.Info("recording started", "session", name, "path", dir)
	return name, nil
}

// Stop finalizes the active session: drains the writer, writes the metadata
// index, and records the session in the datastore. Returns ErrNotRecording
// when no session is active.
func (mgr *Manager) Stop() (*Metadata, error) {
	mgr.mu.Lock()
	s := mgr.active
	mgr.active = nil
	mgr.mu.Unlock()

	if s == nil {
		return nil, ErrNotRecording
	}

	close(s.queue)
	<-s.done

	end := time.Now()
	meta := &Metadata{
		SessionName:     s.name,
		StartTime:       s.start.Format(time.RFC3339),
		EndTime:         end.Format(time.RFC3339),
		Resolution:      [2]int{mgr.settings.Realtime.Thermal.Width, mgr.settings.Realtime.Thermal.Height},
		FPS:             mgr.settings.Realtime.Thermal.TargetFPS,
		TotalFrames:     len(s.entries),
		DurationSeconds: end.Sub(s.start).Seconds(),
		Frames:          s.entries,
	}
	if meta.Frames == nil {
		meta.Frames = []FrameEntry{}
	}

	if err := writeJSON(filepath.Join(s.dir, "metadata.json"), meta); err != nil {
		return nil, err
	}

	if err := mgr.store.SaveSession(&datastore.Session{
		Name:            s.name,
		StartTime:       s.start,
		EndTime:         end,
		TotalFrames:     meta.TotalFrames,
		DurationSeconds: meta.DurationSeconds,
		Path:            s.dir,
	}); err != nil {
		// the on-disk artifacts are complete, losing the index row is not fatal
		mgr.log.Error("failed to index session", "session", s.name, "error", err)
	}

	if mgr.metrics != nil {
		mgr.metrics.ActiveSession.Set(0)
	}
	mgr.log.Info("recording stopped",
		"session", s.name,
		"frames", meta.TotalFrames,
		"duration_s", meta.DurationSeconds,
		"dropped", s.dropped.Load())
	return meta, nil
}

// Active reports whether a session is currently recording, and its name.
func (mgr *Manager) Active() (string, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if mgr.active == nil {
		return "", false
	}
	return mgr.active.name, true
}

// Persist queues one processed cycle for the active session. It never
// blocks: when idle the frame is discarded, when the writer queue is full
// the frame is dropped and counted.
func (mgr *Manager) Persist(raw *frame.Frame, ann *analysis.Annotation) {
	// The send must stay under mu: Stop clears active under the same lock
	// before closing the queue, so a locked send can never hit the closed
	// channel. The select never blocks, so the lock is held only briefly.
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	s := mgr.active
	if s == nil {
		return
	}

	select {
	case s.queue <- capture{raw: raw.Clone(), ann: ann}:
	default:
		s.dropped.Add(1)
		if mgr.metrics != nil {
			mgr.metrics.PersistErrors.Inc()
		}
	}
}

// writer drains the session queue, writing one raw frame file and one
// annotation file per cycle until the queue closes.
func (mgr *Manager) writer(s *session) {
	defer close(s.done)

	for c := range s.queue {
		start := time.Now()
		n := len(s.entries)
		frameFile := fmt.Sprintf("frame_%06d.raw", n)
		annotationFile := fmt.Sprintf("annotations_%06d.json", n)

		if err := writeRawFrame(filepath.Join(s.dir, frameFile), c.raw); err != nil {
			mgr.log.Error("failed to write frame", "session", s.name, "file", frameFile, "error", err)
			if mgr.metrics != nil {
				mgr.metrics.PersistErrors.Inc()
			}
			continue
		}
		if err := writeJSON(filepath.Join(s.dir, annotationFile), c.ann); err != nil {
			mgr.log.Error("failed to write annotations", "session", s.name, "file", annotationFile, "error", err)
			if mgr.metrics != nil {
				mgr.metrics.PersistErrors.Inc()
			}
			continue
		}

		s.entries = append(s.entries, FrameEntry{
			Frame:          c.ann.FrameNumber,
			Timestamp:      c.ann.Timestamp,
			FrameFile:      frameFile,
			AnnotationFile: annotationFile,
		})
		if mgr.metrics != nil {
			mgr.metrics.FramesPersisted.Inc()
			mgr.metrics.WriteLatency.Observe(time.Since(start).Seconds())
		}
	}
}

// writeRawFrame serializes frame samples as little-endian 16-bit values,
// row-major, matching the radiometric wire format.
func writeRawFrame(path string, f *frame.Frame) error {
	buf := make([]byte, len(f.Pix)*2)
	for i, v := range f.Pix {
		sample := math.Round(v)
		if sample < 0 {
			sample = 0
		} else if sample > math.MaxUint16 {
			sample = math.MaxUint16
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	if err := os.WriteFile(path, buf, 0o640); err != nil {
		return errors.New(err).
			Component("recording").
			Category(errors.CategoryFileIO).
			Context("operation", "write-frame").
			Context("path", path).
			Build()
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.New(err).
			Component("recording").
			Category(errors.CategoryFileIO).
			Context("operation", "marshal-json").
			Context("path", path).
			Build()
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return errors.New(err).
			Component("recording").
			Category(errors.CategoryFileIO).
			Context("operation", "write-json").
			Context("path", path).
			Build()
	}
	return nil
}
