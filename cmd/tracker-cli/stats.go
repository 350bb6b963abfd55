package main

import (
	"encoding/json"

	"github.com/mikey/app-tracker/internal/adapters/frontend"
	"github.com/mikey/app-tracker/internal/di"
	"github.com/mikey/app-tracker/internal/tracker"
	"github.com/spf13/cobra"
)

func statsCmd(global *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show application counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, container, err := setup(global)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return container.Invoke(func(t *tracker.Tracker, closers di.Closers) error {
				defer closeAll(logger, closers)

				stats, err := t.Statistics(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(stats)
				}
				frontend.NewReporter(cmd.OutOrStdout(), global.verbose).PrintStatistics(stats)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}
