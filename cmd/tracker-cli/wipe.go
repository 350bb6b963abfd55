package main

import (
	"fmt"

	"github.com/mikey/app-tracker/internal/core"
	"github.com/mikey/app-tracker/internal/di"
	"github.com/spf13/cobra"
)

func wipeCmd(global *globalFlags) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every application record, keeping the store itself",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to wipe without --yes")
			}

			_, logger, container, err := setup(global)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return container.Invoke(func(store core.RecordStore, closers di.Closers) error {
				defer closeAll(logger, closers)

				clearer, ok := store.(core.RecordClearer)
				if !ok {
					return fmt.Errorf("the configured store does not support wiping")
				}
				if err := clearer.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("failed to wipe records: %w", err)
				}

				logger.Info("Records wiped")
				fmt.Fprintln(cmd.OutOrStdout(), "All application records deleted")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm deleting all records")

	return cmd
}
