package main

import (
	"fmt"
	"os"

	"github.com/mikey/app-tracker/internal/config"
	"github.com/mikey/app-tracker/internal/di"
	"github.com/mikey/app-tracker/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

var Version = "dev"

type globalFlags struct {
	configFile string
	verbose    bool
	jsonLog    bool
}

func main() {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "tracker-cli",
		Short:         "Track job applications from your mailbox",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to config file (default: search the usual locations)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonLog, "json-log", false, "Output logs in JSON format")

	rootCmd.AddCommand(processCmd(flags))
	rootCmd.AddCommand(classifyCmd(flags))
	rootCmd.AddCommand(statsCmd(flags))
	rootCmd.AddCommand(wipeCmd(flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the container for one command
func setup(flags *globalFlags) (*config.Config, *zap.Logger, *dig.Container, error) {
	logger, err := logging.InitConsoleLogger(flags.verbose, flags.jsonLog)
	if err != nil {
		return nil, nil, nil, err
	}

	var cfg *config.Config
	if flags.configFile != "" {
		cfg, err = config.NewFromFile(flags.configFile)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, nil, nil, err
	}
	if used := cfg.GetViper().ConfigFileUsed(); used != "" {
		logger.Info("Loaded configuration from file", zap.String("file", used))
	}

	container, err := di.BuildCLIContainer(cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build dependency container: %w", err)
	}
	return cfg, logger, container, nil
}

// closeAll releases what the container opened, newest first
func closeAll(logger *zap.Logger, closers di.Closers) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Error("Failed to close resource", zap.String("resource", closers[i].Name), zap.Error(err))
		}
	}
}
