package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/app-tracker/internal/adapters/frontend"
	"github.com/mikey/app-tracker/internal/config"
	"github.com/mikey/app-tracker/internal/core"
	"github.com/mikey/app-tracker/internal/di"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type processFlags struct {
	days     int
	limit    int
	live     bool
	interval int
	force    bool
}

func processCmd(global *globalFlags) *cobra.Command {
	flags := &processFlags{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Fetch recent emails and update the application records",
		Long: `Process runs the tracking pipeline over the mailbox.

In batch mode a single pass covers the last --days days. With --live the
command polls every --interval seconds for mail received since the previous
pass, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, container, err := setup(global)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return container.Invoke(func(service *core.TrackerService, closers di.Closers) error {
				defer closeAll(logger, closers)

				pipelineCfg, err := cfg.GetPipeline()
				if err != nil {
					return err
				}
				reporter := frontend.NewReporter(cmd.OutOrStdout(), global.verbose)

				if flags.live {
					return runLive(ctx, cmd, flags, pipelineCfg, service, reporter, logger)
				}
				return runBatch(ctx, cmd, flags, pipelineCfg, service, reporter)
			})
		},
	}

	cmd.Flags().IntVarP(&flags.days, "days", "d", 0, "Days to look back in batch mode (default pipeline.lookback_days)")
	cmd.Flags().IntVarP(&flags.limit, "limit", "n", 0, "Maximum emails per pass (default pipeline.batch_limit or pipeline.live_limit)")
	cmd.Flags().BoolVar(&flags.live, "live", false, "Poll continuously instead of running a single pass")
	cmd.Flags().IntVar(&flags.interval, "interval", 0, "Seconds between live passes (default pipeline.interval_seconds)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Apply emails older than the record's last update (batch mode only)")

	return cmd
}

func runBatch(
	ctx context.Context,
	cmd *cobra.Command,
	flags *processFlags,
	pipelineCfg config.PipelineConfig,
	service *core.TrackerService,
	reporter *frontend.Reporter,
) error {
	days := pipelineCfg.LookbackDays
	if flags.days > 0 {
		days = flags.days
	}
	limit := pipelineCfg.BatchLimit
	if flags.limit > 0 {
		limit = flags.limit
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning the last %d days (up to %d emails)\n", days, limit)

	summary, err := service.RunPass(ctx, core.FetchQuery{LookbackDays: days, Limit: limit}, flags.force)
	if err != nil {
		return err
	}
	reporter.PrintSummary(summary)

	stats, err := service.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to load statistics: %w", err)
	}
	reporter.PrintStatistics(stats)

	fmt.Fprintf(out, "\nProcessed %d updates\n", summary.Created+summary.Updated)
	return nil
}

func runLive(
	ctx context.Context,
	cmd *cobra.Command,
	flags *processFlags,
	pipelineCfg config.PipelineConfig,
	service *core.TrackerService,
	reporter *frontend.Reporter,
	logger *zap.Logger,
) error {
	interval := pipelineCfg.Interval
	if flags.interval > 0 {
		interval = time.Duration(flags.interval) * time.Second
	}
	limit := pipelineCfg.LiveLimit
	if flags.limit > 0 {
		limit = flags.limit
	}

	poller := frontend.NewPoller(service, logger, interval, pipelineCfg.LiveLookback, limit)
	poller.Reset()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching for new emails every %v (Ctrl+C to stop)\n", interval)

	for {
		summary, err := poller.RunOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			fmt.Fprintf(out, "Pass failed: %v\n", err)
		case err == nil && summary.Fetched > 0:
			fmt.Fprintf(out, "\n[%s]", time.Now().Format(core.TimestampLayout))
			reporter.PrintSummary(summary)
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nStopped")
			return nil
		case <-time.After(interval):
		}
	}
}
