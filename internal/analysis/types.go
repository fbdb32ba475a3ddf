// Package analysis implements the mode-dispatched thermal analysis engine:
// anomaly extraction for building inspection and component temperature
// grading for electronics inspection.
package analysis

import (
	"github.com/thermalab/thermal-ar-go/internal/detector"
	"github.com/thermalab/thermal-ar-go/internal/errors"
)

// Mode selects the analysis performed on a frame. The set is closed:
// unrecognized mode strings are rejected at parse time instead of silently
// producing empty results.
type Mode string

const (
	ModeBuilding    Mode = "building"
	ModeElectronics Mode = "electronics"
)

// ErrUnknownMode is returned for mode strings outside the closed set.
var ErrUnknownMode = errors.Newf("unknown analysis mode").
	Component("analysis").
	Category(errors.CategoryValidation).
	Build()

// ParseMode validates a mode string from the wire.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBuilding, ModeElectronics:
		return Mode(s), nil
	default:
		return "", errors.Newf("unknown analysis mode %q: %w", s, ErrUnknownMode).
			Component("analysis").
			Category(errors.CategoryValidation).
			Build()
	}
}

// Severity grades of a component or anomaly temperature.
const (
	SeverityNormal   = "normal"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Anomaly types.
const (
	HotSpot  = "hot_spot"
	ColdSpot = "cold_spot"
)

// Anomaly is a connected region whose temperature deviates from the frame
// baseline by more than the configured threshold.
type Anomaly struct {
	Box      [4]int  `json:"bbox"` // x1, y1, x2, y2
	Type     string  `json:"type"`
	MaxTemp  float64 `json:"max_temp,omitempty"`
	MinTemp  float64 `json:"min_temp,omitempty"`
	Area     float64 `json:"area"`
	Severity string  `json:"severity"`
}

// ThermalAnomalies is the building-mode analysis result.
type ThermalAnomalies struct {
	HotSpots     []Anomaly  `json:"hot_spots"`
	ColdSpots    []Anomaly  `json:"cold_spots"`
	BaselineTemp float64    `json:"baseline_temp"`
	TempRange    [2]float64 `json:"temp_range"`
}

// ComponentTemp is the electronics-mode grading of one detected component.
type ComponentTemp struct {
	Component string     `json:"component"`
	Box       [4]float64 `json:"bbox"`
	MaxTemp   float64    `json:"max_temp"`
	AvgTemp   float64    `json:"avg_temp"`
	IsHot     bool       `json:"is_hot"`
	Severity  string     `json:"severity"`
}

// Annotation is the structured result of one processed cycle. Immutable after
// creation; the rate controller caches the most recent one per device stream.
type Annotation struct {
	Mode             Mode                 `json:"mode"`
	Detections       []detector.Detection `json:"detections"`
	ThermalAnomalies *ThermalAnomalies    `json:"thermal_anomalies,omitempty"`
	ComponentTemps   []ComponentTemp      `json:"component_temps,omitempty"`
	Timestamp        int64                `json:"timestamp"`          // unix milliseconds at capture
	ProcessingTimeMs float64              `json:"processing_time_ms"` // pipeline latency
	FrameNumber      uint64               `json:"frame_number"`       // per-stream sequence number
}
