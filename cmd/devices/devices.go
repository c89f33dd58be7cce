// Package devices inspects the canonical device inventory.
package devices

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
)

// Command creates the devices command with list and clear subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Inspect the canonical device inventory",
	}

	cmd.AddCommand(listCommand(settings), clearCommand(settings))
	return cmd
}

func openStore(settings *conf.Settings) (datastore.Interface, error) {
	store := datastore.New(settings)
	if store == nil {
		return nil, fmt.Errorf("no database output enabled")
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List canonical devices, most recently seen first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close()

			devs, err := store.GetCanonicalDevices()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "IDENTIFIER\tKIND\tNAME\tOBS\tAVG dBm\tLAST SEEN")
			for i := range devs {
				d := &devs[i]
				lastSeen := time.UnixMilli(d.LastSeen).Format(time.RFC3339)
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f\t%s\n",
					d.UniqueIdentifier, d.Kind, d.Name,
					d.TotalObservations, d.AvgSignalStrength, lastSeen)
			}
			return w.Flush()
		},
	}
}

func clearCommand(settings *conf.Settings) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every canonical device record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.ClearCanonicalDevices(); err != nil {
				return err
			}
			fmt.Println("canonical device inventory cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the clear")
	return cmd
}
