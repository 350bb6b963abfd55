package factory

import (
	"context"

	"github.com/mikey/app-tracker/internal/adapters/bedrock"
	"github.com/mikey/app-tracker/internal/config"
	"go.uber.org/zap"
)

// BedrockFactory creates Bedrock backends
type BedrockFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewBedrockFactory creates a new Bedrock factory
func NewBedrockFactory(cfg *config.Config, logger *zap.Logger) *BedrockFactory {
	return &BedrockFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateBackend creates a Bedrock backend using the default AWS credential chain
func (f *BedrockFactory) CreateBackend(ctx context.Context) (*bedrock.Backend, error) {
	bedrockCfg := f.cfg.GetBedrock()
	if !bedrockCfg.Enabled {
		return nil, missingCredentials("bedrock", "bedrock.enabled")
	}
	return bedrock.NewBackendFromRegion(ctx, bedrockCfg.Region, f.logger)
}
