package analysis

import (
	"sort"

	"github.com/thermalab/thermal-ar-go/internal/frame"
)

// analyzeBuilding computes the frame's median temperature as baseline,
// classifies pixels deviating beyond the configured delta as hot or cold,
// extracts connected regions and keeps those above the minimum area.
func (e *Engine) analyzeBuilding(f *frame.Frame) *ThermalAnomalies {
	baseline := median(f.Pix)
	delta := e.policy.AnomalyDeltaC

	hotMask := make([]bool, len(f.Pix))
	coldMask := make([]bool, len(f.Pix))
	for i, v := range f.Pix {
		hotMask[i] = v > baseline+delta
		coldMask[i] = v < baseline-delta
	}

	minV, maxV := f.MinMax()
	return &ThermalAnomalies{
		HotSpots:     e.extractAnomalies(f, hotMask, baseline, HotSpot),
		ColdSpots:    e.extractAnomalies(f, coldMask, baseline, ColdSpot),
		BaselineTemp: baseline,
		TempRange:    [2]float64{minV, maxV},
	}
}

// extractAnomalies turns the surviving regions of a binary mask into
// anomalies with bounding box, extremal temperature and severity.
func (e *Engine) extractAnomalies(f *frame.Frame, mask []bool, baseline float64, kind string) []Anomaly {
	regions := connectedRegions(mask, f.Width, f.Height)

	anomalies := make([]Anomaly, 0, len(regions))
	for _, r := range regions {
		if float64(r.area) <= e.policy.MinAnomalyArea {
			continue
		}

		extreme := extremalTemp(f, r, kind)

		deviation := extreme - baseline
		if kind == ColdSpot {
			deviation = baseline - extreme
		}
		severity := SeverityWarning
		if deviation > 2*e.policy.AnomalyDeltaC {
			severity = SeverityCritical
		}

		a := Anomaly{
			Box:      [4]int{r.minX, r.minY, r.maxX + 1, r.maxY + 1},
			Type:     kind,
			Area:     float64(r.area),
			Severity: severity,
		}
		if kind == HotSpot {
			a.MaxTemp = extreme
		} else {
			a.MinTemp = extreme
		}
		anomalies = append(anomalies, a)
	}

	return anomalies
}

// extremalTemp scans the bounding box of r for the max (hot) or min (cold)
// temperature.
func extremalTemp(f *frame.Frame, r region, kind string) float64 {
	extreme := f.At(r.minX, r.minY)
	for y := r.minY; y <= r.maxY; y++ {
		for x := r.minX; x <= r.maxX; x++ {
			v := f.At(x, y)
			if kind == HotSpot && v > extreme {
				extreme = v
			}
			if kind == ColdSpot && v < extreme {
				extreme = v
			}
		}
	}
	return extreme
}

// median returns the middle value of vs without modifying it.
func median(vs []float64) float64 {
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
