package frame

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestCalibrationApply(t *testing.T) {
	cal := DefaultCalibration()

	raw := NewFrame(4, 4)
	for i := range raw.Pix {
		raw.Pix[i] = 8192
	}

	temps := cal.Apply(raw)

	// (8192 + -8192) * 0.01 = 0.0 °C
	for _, v := range temps.Pix {
		assert.InDelta(t, 0.0, v, 1e-9)
	}

	// input must not be modified
	assert.InDelta(t, 8192.0, raw.Pix[0], 1e-9)
}

func TestCalibrationClamp(t *testing.T) {
	cal := DefaultCalibration()

	raw := NewFrame(2, 1)
	raw.Pix[0] = 0     // (0 - 8192) * 0.01 = -81.92, below min
	raw.Pix[1] = 65535 // (65535 - 8192) * 0.01 = 573.43, above max

	temps := cal.Apply(raw)
	assert.InDelta(t, cal.MinTemp, temps.Pix[0], 1e-9)
	assert.InDelta(t, cal.MaxTemp, temps.Pix[1], 1e-9)
}

func TestCalibrationNeverOutOfBounds(t *testing.T) {
	cal := DefaultCalibration()

	raw := NewFrame(16, 16)
	for i := range raw.Pix {
		raw.Pix[i] = float64((i * 257) % 65536)
	}

	temps := cal.Apply(raw)
	for _, v := range temps.Pix {
		assert.GreaterOrEqual(t, v, cal.MinTemp)
		assert.LessOrEqual(t, v, cal.MaxTemp)
	}
}

func TestLoadCalibrationMissingFile(t *testing.T) {
	cal := LoadCalibration(filepath.Join(t.TempDir(), "nope.json"), testLogger())
	assert.Equal(t, DefaultCalibration(), cal)
}

func TestLoadCalibrationMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cal := LoadCalibration(path, testLogger())
	assert.Equal(t, DefaultCalibration(), cal)
}

func TestLoadCalibrationFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	doc := `{"offset": -8000, "scale": 0.02, "reference_temp": 25.0, "min_temp": -20, "max_temp": 150}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cal := LoadCalibration(path, testLogger())
	assert.InDelta(t, -8000.0, cal.Offset, 1e-9)
	assert.InDelta(t, 0.02, cal.Scale, 1e-9)
	assert.InDelta(t, 150.0, cal.MaxTemp, 1e-9)
}
