package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ThermalAR-Server", settings.Main.Name)
	assert.Equal(t, 320, settings.Realtime.Thermal.Width)
	assert.Equal(t, 256, settings.Realtime.Thermal.Height)
	assert.Equal(t, 60, settings.Realtime.Thermal.SensorFPS)
	assert.Equal(t, 30, settings.Realtime.Thermal.TargetFPS)
	assert.InDelta(t, 5.0, settings.Realtime.Analysis.AnomalyDeltaC, 1e-9)
	assert.InDelta(t, 50.0, settings.Realtime.Analysis.MinAnomalyArea, 1e-9)
	assert.InDelta(t, 80.0, settings.Realtime.Analysis.ComponentThresholds["resistor"], 1e-9)
	assert.Equal(t, 8081, settings.Discovery.Port)
	assert.Equal(t, "8080", settings.WebServer.Port)
	assert.Contains(t, settings.Discovery.Capabilities, "thermal_analysis")
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(s *Settings) {},
			wantErr: false,
		},
		{
			name:    "zero width",
			mutate:  func(s *Settings) { s.Realtime.Thermal.Width = 0 },
			wantErr: true,
		},
		{
			name:    "negative target fps",
			mutate:  func(s *Settings) { s.Realtime.Thermal.TargetFPS = -1 },
			wantErr: true,
		},
		{
			name:    "negative anomaly area",
			mutate:  func(s *Settings) { s.Realtime.Analysis.MinAnomalyArea = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &Settings{}
			settings.Realtime.Thermal = ThermalSettings{Width: 320, Height: 256, SensorFPS: 60, TargetFPS: 30}
			settings.Realtime.Analysis.MinAnomalyArea = 50
			tt.mutate(settings)

			err := ValidateSettings(settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
