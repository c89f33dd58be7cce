// Package realtime starts the survey daemon.
package realtime

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/daemon"
)

// Command creates the realtime survey command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Run the survey daemon",
		Long:  "Start the scan schedulers, identity resolver, retention sweep and query surfaces.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return daemon.Run(settings)
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
	cmd.Flags().BoolVar(&settings.WebServer.Enabled, "webserver",
		viper.GetBool("webserver.enabled"), "Enable the HTTP query surface")
	cmd.Flags().StringVar(&settings.WebServer.Listen, "listen",
		viper.GetString("webserver.listen"), "Listen address of the HTTP query surface")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry",
		viper.GetBool("telemetry.enabled"), "Enable the Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "telemetry-listen",
		viper.GetString("telemetry.listen"), "Listen address of the telemetry endpoint")
	cmd.Flags().BoolVar(&settings.MQTT.Enabled, "mqtt",
		viper.GetBool("mqtt.enabled"), "Publish resolved devices to the MQTT broker")
	cmd.Flags().BoolVar(&settings.Uplink.Enabled, "uplink",
		viper.GetBool("uplink.enabled"), "Upload unsent detections to the configured endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
