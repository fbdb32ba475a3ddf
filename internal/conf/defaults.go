// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "ThermalAR-Server")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "thermal-ar.log")

	viper.SetDefault("realtime.thermal.width", 320)
	viper.SetDefault("realtime.thermal.height", 256)
	viper.SetDefault("realtime.thermal.sensorfps", 60)
	viper.SetDefault("realtime.thermal.targetfps", 30)

	viper.SetDefault("realtime.analysis.anomalydeltac", 5.0)
	viper.SetDefault("realtime.analysis.minanomalyarea", 50.0)
	viper.SetDefault("realtime.analysis.componentthresholds", map[string]float64{
		"IC":         70,
		"resistor":   80,
		"capacitor":  60,
		"transistor": 70,
	})
	viper.SetDefault("realtime.analysis.defaultthreshold", 65.0)
	viper.SetDefault("realtime.analysis.criticalmarginc", 10.0)

	viper.SetDefault("realtime.detector.enabled", true)
	viper.SetDefault("realtime.detector.modelpath", "model/thermal_detect.tflite")
	viper.SetDefault("realtime.detector.labelpath", "model/labels.txt")
	viper.SetDefault("realtime.detector.threshold", 0.25)
	viper.SetDefault("realtime.detector.threads", 0)

	viper.SetDefault("realtime.recording.path", "recordings/")

	viper.SetDefault("realtime.mqtt.enabled", false)
	viper.SetDefault("realtime.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("realtime.mqtt.topic", "thermal-ar")
	viper.SetDefault("realtime.mqtt.username", "")
	viper.SetDefault("realtime.mqtt.password", "")

	viper.SetDefault("realtime.telemetry.enabled", false)
	viper.SetDefault("realtime.telemetry.listen", "0.0.0.0:8090")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)

	viper.SetDefault("discovery.enabled", true)
	viper.SetDefault("discovery.port", 8081)
	viper.SetDefault("discovery.capabilities", []string{"object_detection", "thermal_analysis"})

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "thermal-ar.db")

	viper.SetDefault("calibrationpath", "boson_calibration.json")
}
