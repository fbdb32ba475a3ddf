package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/detector"
	"github.com/thermalab/thermal-ar-go/internal/frame"
)

func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Realtime.Analysis = conf.AnalysisSettings{
		AnomalyDeltaC:  5.0,
		MinAnomalyArea: 50.0,
		ComponentThresholds: map[string]float64{
			"IC":         70,
			"resistor":   80,
			"capacitor":  60,
			"transistor": 70,
		},
		DefaultThreshold: 65.0,
		CriticalMarginC:  10.0,
	}
	return s
}

func baseFrame(w, h int, temp float64) *frame.Frame {
	f := frame.NewFrame(w, h)
	for i := range f.Pix {
		f.Pix[i] = temp
	}
	return f
}

// fillRect sets a w×h rectangle anchored at (x, y) to temp.
func fillRect(f *frame.Frame, x, y, w, h int, temp float64) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			f.Set(x+dx, y+dy, temp)
		}
	}
}

func TestBuildingSingleHotSpot(t *testing.T) {
	e := New(detector.Disabled{}, testSettings())

	f := baseFrame(64, 64, 20.0)
	fillRect(f, 10, 10, 10, 10, 30.0) // median+10, area 100

	ann, err := e.Analyze(context.Background(), ModeBuilding, f)
	require.NoError(t, err)
	require.NotNil(t, ann.ThermalAnomalies)

	ta := ann.ThermalAnomalies
	assert.InDelta(t, 20.0, ta.BaselineTemp, 1e-9)
	assert.Empty(t, ta.ColdSpots)
	require.Len(t, ta.HotSpots, 1)

	hot := ta.HotSpots[0]
	assert.Equal(t, [4]int{10, 10, 20, 20}, hot.Box)
	assert.InDelta(t, 30.0, hot.MaxTemp, 1e-9)
	assert.InDelta(t, 100.0, hot.Area, 1e-9)
	assert.Equal(t, SeverityWarning, hot.Severity)
}

func TestBuildingSmallRegionDiscarded(t *testing.T) {
	e := New(detector.Disabled{}, testSettings())

	f := baseFrame(64, 64, 20.0)
	fillRect(f, 40, 40, 3, 3, 30.0) // area 9, below the 50 px² floor

	ann, err := e.Analyze(context.Background(), ModeBuilding, f)
	require.NoError(t, err)
	assert.Empty(t, ann.ThermalAnomalies.HotSpots)
}

func TestBuildingMixedRegions(t *testing.T) {
	e := New(detector.Disabled{}, testSettings())

	f := baseFrame(64, 64, 20.0)
	fillRect(f, 5, 5, 10, 10, 29.0)   // hot, survives
	fillRect(f, 40, 40, 3, 3, 29.0)   // hot, too small
	fillRect(f, 20, 40, 10, 10, 8.0)  // cold, survives
	fillRect(f, 50, 10, 2, 2, 8.0)    // cold, too small
	fillRect(f, 40, 55, 12, 8, 36.0)  // hot, survives, deviation > 2×delta

	ann, err := e.Analyze(context.Background(), ModeBuilding, f)
	require.NoError(t, err)

	ta := ann.ThermalAnomalies
	require.Len(t, ta.HotSpots, 2)
	require.Len(t, ta.ColdSpots, 1)

	cold := ta.ColdSpots[0]
	assert.Equal(t, ColdSpot, cold.Type)
	assert.InDelta(t, 8.0, cold.MinTemp, 1e-9)

	// regions are discovered in scan order, the deep-hot region comes second
	assert.Equal(t, SeverityWarning, ta.HotSpots[0].Severity)
	assert.Equal(t, SeverityCritical, ta.HotSpots[1].Severity)
}

func TestBuildingTempRange(t *testing.T) {
	e := New(detector.Disabled{}, testSettings())

	f := baseFrame(16, 16, 20.0)
	f.Set(0, 0, -5.0)
	f.Set(15, 15, 95.0)

	ann, err := e.Analyze(context.Background(), ModeBuilding, f)
	require.NoError(t, err)
	assert.InDelta(t, -5.0, ann.ThermalAnomalies.TempRange[0], 1e-9)
	assert.InDelta(t, 95.0, ann.ThermalAnomalies.TempRange[1], 1e-9)
}

func TestUnknownModeRejected(t *testing.T) {
	e := New(detector.Disabled{}, testSettings())

	_, err := e.Analyze(context.Background(), Mode("xray"), baseFrame(8, 8, 20.0))
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"building", ModeBuilding, false},
		{"electronics", ModeElectronics, false},
		{"", "", true},
		{"BUILDING", "", true},
		{"thermal_only", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
