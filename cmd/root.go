package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thermalab/thermal-ar-go/cmd/realtime"
	"github.com/thermalab/thermal-ar-go/internal/buildinfo"
	"github.com/thermalab/thermal-ar-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "thermal-ar",
		Short:   "Thermal AR processing server",
		Long:    "Receives thermal camera streams from headset devices, runs thermal analysis, and distributes annotations to connected viewers.",
		Version: buildinfo.String(),
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(realtime.Command(settings))

	return rootCmd
}

// setupFlags configures the global flags for the root command.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Main.Name, "name", viper.GetString("main.name"), "Server name advertised in discovery replies")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
	}
}
