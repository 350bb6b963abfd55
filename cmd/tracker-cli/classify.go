package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/app-tracker/internal/adapters/frontend"
	"github.com/mikey/app-tracker/internal/adapters/mail"
	"github.com/mikey/app-tracker/internal/admission"
	"github.com/mikey/app-tracker/internal/classifier"
	"github.com/mikey/app-tracker/internal/config"
	"github.com/mikey/app-tracker/internal/core"
	"github.com/mikey/app-tracker/internal/di"
	"github.com/mikey/app-tracker/internal/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func classifyCmd(global *globalFlags) *cobra.Command {
	var (
		inputFile string
		track     bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single RFC 822 email and show every cascade attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, container, err := setup(global)
			if err != nil {
				return err
			}
			defer logger.Sync()

			var in io.Reader = cmd.InOrStdin()
			id := "stdin"
			if inputFile != "" {
				file, err := os.Open(inputFile)
				if err != nil {
					return fmt.Errorf("failed to open input file: %w", err)
				}
				defer file.Close()
				in = file
				id = inputFile
				logger.Info("Reading email from file", zap.String("file", inputFile))
			} else {
				logger.Info("Reading email from stdin")
			}

			ctx := cmd.Context()
			reporter := frontend.NewReporter(cmd.OutOrStdout(), global.verbose)

			var (
				email    *core.NormalizedEmail
				decision core.FilterDecision
				result   *core.ClassificationResult
			)
			err = container.Invoke(func(
				normalizer *mail.Normalizer,
				admitter *admission.Filter,
				cascade *classifier.Cascade,
				closers di.Closers,
			) error {
				defer closeAll(logger, closers)

				parsed, err := normalizer.FromReader(id, in)
				if err != nil {
					return err
				}
				email = parsed
				reporter.PrintEmail(email)

				decision, result = classify(ctx, email, admitter, cascade, reporter)
				return nil
			})
			if err != nil || !track || result == nil {
				return err
			}

			return trackResult(ctx, cfg, container, email, decision, *result, force, reporter, logger)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Input email file (use stdin if not specified)")
	cmd.Flags().BoolVar(&track, "track", false, "Record the classification in the configured store")
	cmd.Flags().BoolVar(&force, "force", false, "Apply the email even when it is older than the record's last update")

	return cmd
}

func classify(
	ctx context.Context,
	email *core.NormalizedEmail,
	admitter *admission.Filter,
	cascade *classifier.Cascade,
	reporter *frontend.Reporter,
) (core.FilterDecision, *core.ClassificationResult) {
	sender := email.SenderEmail
	if sender == "" {
		sender = email.From
	}

	start := time.Now()
	decision := admitter.Evaluate(sender, email.Subject, email.Body)
	if !decision.Admit {
		reporter.PrintClassification(decision, nil, nil, time.Since(start))
		return decision, nil
	}

	result, attempts := cascade.ClassifyWithTrace(ctx, email)
	reporter.PrintClassification(decision, &result, attempts, time.Since(start))
	return decision, &result
}

// trackResult resolves the store only when asked to, so classify works without one
func trackResult(
	ctx context.Context,
	cfg *config.Config,
	container *dig.Container,
	email *core.NormalizedEmail,
	decision core.FilterDecision,
	result core.ClassificationResult,
	force bool,
	reporter *frontend.Reporter,
	logger *zap.Logger,
) error {
	pipelineCfg, err := cfg.GetPipeline()
	if err != nil {
		return err
	}
	if result.Confidence < pipelineCfg.MinConfidence {
		reporter.PrintDecision(core.TrackDecision{
			Action: core.ActionSkipped,
			Reason: fmt.Sprintf("confidence %.2f below %.2f", result.Confidence, pipelineCfg.MinConfidence),
		})
		return nil
	}

	return container.Invoke(func(t *tracker.Tracker, closers di.Closers) error {
		defer closeAll(logger, closers)

		emailDate := email.Date
		if emailDate.IsZero() {
			emailDate = time.Now()
		}
		d, err := t.Process(ctx, core.TrackInput{
			Result:          result,
			EmailDate:       emailDate,
			EmailSubject:    email.Subject,
			DetectionReason: decision.Reason,
			Force:           force,
		})
		if err != nil {
			return err
		}
		reporter.PrintDecision(d)
		return nil
	})
}
