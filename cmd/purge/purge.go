// Package purge runs the retention sweep once and exits.
package purge

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
	"github.com/santiway/radiowatch/internal/retention"
)

// Command creates the purge command.
func Command(settings *conf.Settings) *cobra.Command {
	var maxAge string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete raw detections older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if store == nil {
				return fmt.Errorf("no database output enabled")
			}
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			sweeper := retention.New(store)

			if maxAge != "" {
				hours, err := conf.ParseRetentionPeriod(maxAge)
				if err != nil {
					return err
				}
				removed, err := sweeper.Sweep(time.Duration(hours) * time.Hour)
				if err != nil {
					return err
				}
				fmt.Printf("removed %d detections older than %s\n", removed, maxAge)
				return nil
			}

			removed, err := sweeper.SweepFromSettings(settings)
			if err != nil {
				return err
			}
			if !settings.Retention.Enabled {
				fmt.Println("retention is disabled, nothing to do (use --max-age to override)")
				return nil
			}
			fmt.Printf("removed %d detections older than %s\n", removed, settings.Retention.MaxAge)
			return nil
		},
	}

	cmd.Flags().StringVar(&maxAge, "max-age", "", "Retention period override, e.g. 7d or 168h")
	return cmd
}
