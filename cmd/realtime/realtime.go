// Package realtime provides the subcommand that runs the processing server.
package realtime

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/server"
)

// Command creates the realtime command that runs the server until
// interrupted.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Process thermal streams in realtime mode",
		Long:  "Start the WebSocket server, accept thermal frame streams from devices, and distribute annotations in real time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port for the HTTP/WebSocket server")
	cmd.Flags().IntVar(&settings.Discovery.Port, "discoveryport", viper.GetInt("discovery.port"), "UDP port of the discovery responder")
	cmd.Flags().BoolVar(&settings.Discovery.Enabled, "discovery", viper.GetBool("discovery.enabled"), "Enable the UDP discovery responder")
	cmd.Flags().StringVar(&settings.Realtime.Recording.Path, "recordingpath", viper.GetString("realtime.recording.path"), "Directory recordings are written under")
	cmd.Flags().StringVar(&settings.Realtime.Detector.ModelPath, "model", viper.GetString("realtime.detector.modelpath"), "Path to the TFLite detection model")
	cmd.Flags().BoolVar(&settings.Realtime.Detector.Enabled, "detector", viper.GetBool("realtime.detector.enabled"), "Enable the object detector")
	cmd.Flags().StringVar(&settings.CalibrationPath, "calibration", viper.GetString("calibrationpath"), "Path to the sensor calibration document")
	cmd.Flags().BoolVar(&settings.Realtime.Telemetry.Enabled, "telemetry", viper.GetBool("realtime.telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Realtime.Telemetry.Listen, "listen", viper.GetString("realtime.telemetry.listen"), "Listen address and port of telemetry endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
