package frame

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/thermalab/thermal-ar-go/internal/errors"
)

// Calibration is the affine transform plus physical clamp bounds that convert
// raw radiometric counts to temperatures in °C. Loaded once at startup and
// shared read-only across all processing cycles; replaced wholesale, never
// partially mutated.
type Calibration struct {
	Offset        float64 `json:"offset"`
	Scale         float64 `json:"scale"`
	ReferenceTemp float64 `json:"reference_temp"`
	MinTemp       float64 `json:"min_temp"`
	MaxTemp       float64 `json:"max_temp"`
}

// DefaultCalibration returns the factory calibration for a Boson 320 class
// sensor.
func DefaultCalibration() Calibration {
	return Calibration{
		Offset:        -8192,
		Scale:         0.01,
		ReferenceTemp: 20.0,
		MinTemp:       -40,
		MaxTemp:       330,
	}
}

// LoadCalibration reads a calibration document from path. A missing document
// is not an error: defaults are returned. A malformed document is logged and
// also falls back to defaults, calibration problems must not prevent startup.
func LoadCalibration(path string, logger *slog.Logger) Calibration {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no calibration file found, using defaults", "path", path)
			return DefaultCalibration()
		}
		ee := errors.New(err).
			Component("frame").
			Category(errors.CategoryCalibration).
			Context("path", path).
			Build()
		logger.Warn("failed to read calibration, using defaults", "error", ee)
		return DefaultCalibration()
	}

	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		ee := errors.New(err).
			Component("frame").
			Category(errors.CategoryCalibration).
			Context("path", path).
			Build()
		logger.Warn("failed to parse calibration, using defaults", "error", ee)
		return DefaultCalibration()
	}

	logger.Info("loaded calibration", "path", path,
		"offset", cal.Offset, "scale", cal.Scale)
	return cal
}

// Apply converts a frame of raw counts to temperatures:
// temp = (raw + offset) * scale, clamped to [MinTemp, MaxTemp]. Pure
// per-element transform, the input frame is not modified.
func (c Calibration) Apply(raw *Frame) *Frame {
	out := NewFrame(raw.Width, raw.Height)
	for i, v := range raw.Pix {
		t := (v + c.Offset) * c.Scale
		if t < c.MinTemp {
			t = c.MinTemp
		} else if t > c.MaxTemp {
			t = c.MaxTemp
		}
		out.Pix[i] = t
	}
	return out
}
