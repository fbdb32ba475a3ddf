package analysis

import (
	"github.com/thermalab/thermal-ar-go/internal/detector"
	"github.com/thermalab/thermal-ar-go/internal/frame"
)

// analyzeElectronics grades each detected component against its per-class
// temperature limit: above the limit is a warning, above limit plus the
// critical margin is critical.
func (e *Engine) analyzeElectronics(f *frame.Frame, detections []detector.Detection) []ComponentTemp {
	components := make([]ComponentTemp, 0, len(detections))

	for _, det := range detections {
		maxTemp, avgTemp, ok := regionStats(f, det.Box)
		if !ok {
			continue
		}

		threshold, found := e.policy.ComponentThresholds[det.Class]
		if !found {
			threshold = e.policy.DefaultThreshold
		}

		severity := SeverityNormal
		switch {
		case maxTemp > threshold+e.policy.CriticalMarginC:
			severity = SeverityCritical
		case maxTemp > threshold:
			severity = SeverityWarning
		}

		components = append(components, ComponentTemp{
			Component: det.Class,
			Box:       det.Box,
			MaxTemp:   maxTemp,
			AvgTemp:   avgTemp,
			IsHot:     maxTemp > threshold,
			Severity:  severity,
		})
	}

	return components
}

// regionStats computes max and mean temperature inside a bounding box,
// clipped to the frame. ok is false for boxes with no pixels in frame.
func regionStats(f *frame.Frame, box [4]float64) (maxTemp, avgTemp float64, ok bool) {
	x1, y1 := clip(int(box[0]), 0, f.Width), clip(int(box[1]), 0, f.Height)
	x2, y2 := clip(int(box[2]), 0, f.Width), clip(int(box[3]), 0, f.Height)
	if x2 <= x1 || y2 <= y1 {
		return 0, 0, false
	}

	maxTemp = f.At(x1, y1)
	var sum float64
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			v := f.At(x, y)
			sum += v
			if v > maxTemp {
				maxTemp = v
			}
		}
	}
	count := float64((x2 - x1) * (y2 - y1))
	return maxTemp, sum / count, true
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
