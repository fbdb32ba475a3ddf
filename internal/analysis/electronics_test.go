package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermalab/thermal-ar-go/internal/detector"
	"github.com/thermalab/thermal-ar-go/internal/frame"
)

// stubDetector returns a fixed detection list.
type stubDetector struct {
	detections []detector.Detection
	err        error
}

func (s *stubDetector) Detect(ctx context.Context, f *frame.Frame) ([]detector.Detection, error) {
	return s.detections, s.err
}

func (s *stubDetector) Available() bool { return true }
func (s *stubDetector) Close() error    { return nil }

func TestElectronicsSeverityGrading(t *testing.T) {
	f := baseFrame(64, 64, 25.0)
	fillRect(f, 0, 0, 10, 10, 75.0)   // IC at 75, limit 70: warning
	fillRect(f, 20, 20, 10, 10, 85.0) // IC at 85, above 70+10: critical
	fillRect(f, 40, 40, 10, 10, 55.0) // capacitor at 55, limit 60: normal

	det := &stubDetector{detections: []detector.Detection{
		{Box: [4]float64{0, 0, 10, 10}, Confidence: 0.9, Class: "IC"},
		{Box: [4]float64{20, 20, 30, 30}, Confidence: 0.8, Class: "IC"},
		{Box: [4]float64{40, 40, 50, 50}, Confidence: 0.7, Class: "capacitor"},
	}}

	e := New(det, testSettings())
	ann, err := e.Analyze(context.Background(), ModeElectronics, f)
	require.NoError(t, err)
	require.Len(t, ann.ComponentTemps, 3)

	warning := ann.ComponentTemps[0]
	assert.Equal(t, "IC", warning.Component)
	assert.InDelta(t, 75.0, warning.MaxTemp, 1e-9)
	assert.True(t, warning.IsHot)
	assert.Equal(t, SeverityWarning, warning.Severity)

	critical := ann.ComponentTemps[1]
	assert.Equal(t, SeverityCritical, critical.Severity)

	normal := ann.ComponentTemps[2]
	assert.False(t, normal.IsHot)
	assert.Equal(t, SeverityNormal, normal.Severity)
}

func TestElectronicsUnknownClassUsesDefault(t *testing.T) {
	f := baseFrame(32, 32, 25.0)
	fillRect(f, 0, 0, 8, 8, 68.0) // above the 65 default, below IC's 70

	det := &stubDetector{detections: []detector.Detection{
		{Box: [4]float64{0, 0, 8, 8}, Confidence: 0.5, Class: "inductor"},
	}}

	e := New(det, testSettings())
	ann, err := e.Analyze(context.Background(), ModeElectronics, f)
	require.NoError(t, err)
	require.Len(t, ann.ComponentTemps, 1)
	assert.True(t, ann.ComponentTemps[0].IsHot)
	assert.Equal(t, SeverityWarning, ann.ComponentTemps[0].Severity)
}

func TestElectronicsOutOfFrameBoxSkipped(t *testing.T) {
	f := baseFrame(32, 32, 25.0)

	det := &stubDetector{detections: []detector.Detection{
		{Box: [4]float64{40, 40, 50, 50}, Confidence: 0.5, Class: "IC"},
	}}

	e := New(det, testSettings())
	ann, err := e.Analyze(context.Background(), ModeElectronics, f)
	require.NoError(t, err)
	assert.Empty(t, ann.ComponentTemps)
}

func TestDetectorFailureDegrades(t *testing.T) {
	det := &stubDetector{err: assert.AnError}

	e := New(det, testSettings())
	ann, err := e.Analyze(context.Background(), ModeElectronics, baseFrame(16, 16, 25.0))
	require.NoError(t, err, "detector failure must not fail the cycle")
	assert.Empty(t, ann.Detections)
	assert.Empty(t, ann.ComponentTemps)
}

func TestAvgTempComputation(t *testing.T) {
	f := baseFrame(4, 4, 20.0)
	f.Set(0, 0, 40.0)

	maxTemp, avgTemp, ok := regionStats(f, [4]float64{0, 0, 2, 2})
	require.True(t, ok)
	assert.InDelta(t, 40.0, maxTemp, 1e-9)
	assert.InDelta(t, 25.0, avgTemp, 1e-9) // (40+20+20+20)/4
}
