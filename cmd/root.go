// Package cmd assembles the radiowatch command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/santiway/radiowatch/cmd/devices"
	"github.com/santiway/radiowatch/cmd/purge"
	"github.com/santiway/radiowatch/cmd/realtime"
	"github.com/santiway/radiowatch/cmd/sessions"
	"github.com/santiway/radiowatch/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "radiowatch",
		Short: "radiowatch radio survey daemon",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	rootCmd.AddCommand(
		realtime.Command(settings),
		purge.Command(settings),
		sessions.Command(settings),
		devices.Command(settings),
	)

	return rootCmd
}

// setupFlags defines the global flags shared by every subcommand.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d",
		viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Survey.Session, "session",
		viper.GetString("survey.session"), "Session receiving live scan output")
	rootCmd.PersistentFlags().StringVar(&settings.Survey.SpoolPath, "spool",
		viper.GetString("survey.spoolpath"), "Directory watched by the observation sources")
	rootCmd.PersistentFlags().Float64Var(&settings.Survey.Latitude, "latitude",
		viper.GetFloat64("survey.latitude"), "Origin latitude stamped on detections")
	rootCmd.PersistentFlags().Float64Var(&settings.Survey.Longitude, "longitude",
		viper.GetFloat64("survey.longitude"), "Origin longitude stamped on detections")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
