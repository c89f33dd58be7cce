// Package sessions manages the named partitions of the raw ledger.
package sessions

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
)

// Command creates the sessions command with list, create and delete
// subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage survey sessions",
	}

	cmd.AddCommand(
		listCommand(settings),
		createCommand(settings),
		deleteCommand(settings),
	)
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
		Short: "List sessions and their detection counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.ListSessions()
			if err != nil {
				return err
			}
			for _, name := range sessions {
				count, err := store.CountDetections(name)
				if err != nil {
					return err
				}
				marker := ""
				if name == conf.DefaultSession {
					marker = " (protected)"
				}
				fmt.Printf("%s\t%d detections%s\n", name, count, marker)
			}
			return nil
		},
	}
}

func createCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.CreateSession(args[0]); err != nil {
				return err
			}
			fmt.Printf("session %s created\n", args[0])
			return nil
		},
	}
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a session and all its detections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteSession(args[0]); err != nil {
				return err
			}
			fmt.Printf("session %s deleted\n", args[0])
			return nil
		},
	}
}
