// Package detector provides the object detection capability used by the
// thermal analysis engine. The model itself is opaque: callers hand in a
// temperature frame and get back localized detections.
package detector

import (
	"context"

	"github.com/thermalab/thermal-ar-go/internal/frame"
)

// Detection is one localized object in a frame.
type Detection struct {
	// Box is the bounding box in frame pixel coordinates: x1, y1, x2, y2.
	Box [4]float64 `json:"bbox"`
	// Confidence is the model score in [0, 1].
	Confidence float32 `json:"confidence"`
	// Class is the predicted label.
	Class string `json:"class"`
}

// Detector localizes objects in a thermal frame.
type Detector interface {
	// Detect runs inference on f. Implementations must be safe for
	// concurrent callers.
	Detect(ctx context.Context, f *frame.Frame) ([]Detection, error)
	// Available reports whether the detector can produce detections.
	Available() bool
	// Close releases model resources.
	Close() error
}

// Disabled is a Detector that never detects anything. Used when no model is
// configured; analysis then degrades to thermal-only results.
type Disabled struct{}

func (Disabled) Detect(ctx context.Context, f *frame.Frame) ([]Detection, error) {
	return nil, nil
}

func (Disabled) Available() bool { return false }

func (Disabled) Close() error { return nil }
