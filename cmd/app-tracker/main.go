package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/app-tracker/internal/di"
	"github.com/mikey/app-tracker/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	frontends []ports.Frontend,
	closers di.Closers,
) error {
	defer logger.Sync()
	defer closeAll(logger, closers)

	if len(frontends) == 0 {
		return fmt.Errorf("no frontends enabled, enable server.http, server.smtp or server.poller")
	}

	// Start the frontends, unwinding the ones already running on failure
	var started []ports.Frontend
	for _, f := range frontends {
		if err := f.Start(); err != nil {
			logger.Error("Failed to start frontend", zap.String("frontend", f.Name()), zap.Error(err))
			stopAll(logger, started)
			return err
		}
		logger.Info("Started frontend", zap.String("frontend", f.Name()))
		started = append(started, f)
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("Shutting down...", zap.String("signal", sig.String()))

	stopAll(logger, started)

	logger.Info("Shutdown complete")
	return nil
}

func stopAll(logger *zap.Logger, frontends []ports.Frontend) {
	for i := len(frontends) - 1; i >= 0; i-- {
		if err := frontends[i].Stop(); err != nil {
			logger.Error("Failed to stop frontend", zap.String("frontend", frontends[i].Name()), zap.Error(err))
		}
	}
}

func closeAll(logger *zap.Logger, closers di.Closers) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Error("Failed to close resource", zap.String("resource", closers[i].Name), zap.Error(err))
		}
	}
}
