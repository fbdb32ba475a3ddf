// config.go: This file contains the configuration for the thermal-ar-go application.
// It defines the settings struct and functions to load and save the settings.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/thermalab/thermal-ar-go/internal/errors"
)

// LogConfig contains settings for the main application log file.
type LogConfig struct {
	Enabled bool   // true to enable file logging
	Path    string // path to the log file
}

// MainSettings contains top-level application settings.
type MainSettings struct {
	Name string    // name of this node, used in discovery replies and MQTT client id
	Log  LogConfig // log file settings
}

// ThermalSettings contains the sensor stream geometry and rates.
type ThermalSettings struct {
	Width     int // frame width in pixels
	Height    int // frame height in pixels
	SensorFPS int // rate the sensor emits frames at
	TargetFPS int // rate frames are actually analyzed at
}

// AnalysisSettings contains the tunable policy constants of the thermal
// analysis engine. These are deployment-specific and deliberately not
// hard-coded in the engine.
type AnalysisSettings struct {
	AnomalyDeltaC       float64            // deviation from baseline classified as anomalous
	MinAnomalyArea      float64            // minimum connected region area in px²
	ComponentThresholds map[string]float64 // per-class electronics temperature limits in °C
	DefaultThreshold    float64            // electronics limit for classes missing from the table
	CriticalMarginC     float64            // margin above the limit that escalates warning to critical
}

// DetectorSettings contains settings for the object detection model.
type DetectorSettings struct {
	Enabled   bool    // false runs analysis without object detection
	ModelPath string  // path to the tflite model file
	LabelPath string  // path to the label file
	Threshold float32 // minimum confidence for reported detections
	Threads   int     // tflite interpreter threads, 0 for automatic
}

// RecordingSettings contains settings for session recording.
type RecordingSettings struct {
	Path string // directory recordings are written under
}

// WebServerSettings contains settings for the HTTP/WebSocket server.
type WebServerSettings struct {
	Enabled bool   // true to enable web server
	Port    string // port to listen on
	Debug   bool   // true to enable debug logging of requests
}

// DiscoverySettings contains settings for the UDP discovery responder.
type DiscoverySettings struct {
	Enabled      bool     // true to enable the responder
	Port         int      // UDP port to listen on
	Capabilities []string // capability list advertised in discovery replies
}

// MQTTSettings contains settings for MQTT integration.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT
	Broker   string // MQTT broker URL (tcp://host:port)
	Topic    string // MQTT topic prefix
	Username string // MQTT username
	Password string // MQTT password
}

// TelemetrySettings contains settings for telemetry.
type TelemetrySettings struct {
	Enabled bool   // true to enable Prometheus compatible telemetry endpoint
	Listen  string // IP address and port to listen on
}

// SentrySettings contains settings for error reporting.
type SentrySettings struct {
	Enabled bool   // true to enable Sentry error reporting
	DSN     string // Sentry DSN
}

// SQLiteSettings contains settings for the session index database.
type SQLiteSettings struct {
	Enabled bool   // true to record finished sessions in SQLite
	Path    string // path to the database file
}

// OutputSettings contains settings for persisted outputs.
type OutputSettings struct {
	SQLite SQLiteSettings // session index database
}

// RealtimeSettings contains all settings related to realtime stream processing.
type RealtimeSettings struct {
	Thermal   ThermalSettings   // sensor stream geometry
	Analysis  AnalysisSettings  // analysis policy constants
	Detector  DetectorSettings  // object detector settings
	Recording RecordingSettings // session recording settings
	MQTT      MQTTSettings      // MQTT settings
	Telemetry TelemetrySettings // telemetry settings
}

// Settings contains all configuration options for the thermal-ar-go application.
type Settings struct {
	Debug bool // true to enable debug mode

	Main      MainSettings
	Realtime  RealtimeSettings
	WebServer WebServerSettings
	Discovery DiscoverySettings
	Sentry    SentrySettings
	Output    OutputSettings

	CalibrationPath string // path to the calibration document
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file into a Settings struct, substituting
// defaults for everything the file does not set.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// function defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file is fine, defaults apply
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// Setting returns the current settings instance, loading them on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				panic(err)
			}
		}
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAML writes the given settings as a YAML document to path, creating
// parent directories as needed.
func SaveYAML(settings *Settings, path string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "marshal-settings").
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("path", filepath.Dir(path)).
			Build()
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	return nil
}

// GetDefaultConfigPaths returns a list of default configuration paths for the
// current operating system, following standard conventions for application
// configuration files.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "thermal-ar"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "thermal-ar"),
			"/etc/thermal-ar",
			".",
		}
	}

	// If a config.yaml already exists somewhere, prefer that path alone
	for _, path := range configPaths {
		configFile := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFile); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// ValidateSettings checks the loaded settings for values the pipeline cannot
// operate with.
func ValidateSettings(settings *Settings) error {
	t := &settings.Realtime.Thermal
	if t.Width <= 0 || t.Height <= 0 {
		return errors.Newf("invalid frame geometry %dx%d", t.Width, t.Height).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if t.SensorFPS <= 0 || t.TargetFPS <= 0 {
		return errors.Newf("invalid frame rates sensor=%d target=%d", t.SensorFPS, t.TargetFPS).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if settings.Realtime.Analysis.MinAnomalyArea < 0 {
		return errors.Newf("minimum anomaly area must not be negative").
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// GetBasePath expands environment variables in the given path, cleans it,
// and creates the directory if it does not exist yet.
func GetBasePath(path string) string {
	expandedPath := os.ExpandEnv(path)
	basePath := filepath.Clean(expandedPath)

	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o750); err != nil {
			fmt.Printf("failed to create directory '%s': %v\n", basePath, err)
		}
	}

	return basePath
}
