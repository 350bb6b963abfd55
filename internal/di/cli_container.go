package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/app-tracker/internal/config"
)

// BuildCLIContainer creates and configures a dependency injection container for the CLI application.
// The configuration and logger are built by the CLI from its flags.
func BuildCLIContainer(cfg *config.Config, logger *zap.Logger) (*dig.Container, error) {
	container := dig.New()

	// Register configuration and logger
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() *zap.Logger { return logger }); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	return container, nil
}
