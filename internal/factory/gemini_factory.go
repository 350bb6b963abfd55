package factory

import (
	"context"

	"github.com/mikey/app-tracker/internal/adapters/gemini"
	"github.com/mikey/app-tracker/internal/config"
	"go.uber.org/zap"
)

// GeminiFactory creates Gemini backends
type GeminiFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGeminiFactory creates a new Gemini factory
func NewGeminiFactory(cfg *config.Config, logger *zap.Logger) *GeminiFactory {
	return &GeminiFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateBackend creates a Gemini backend
func (f *GeminiFactory) CreateBackend(ctx context.Context) (*gemini.Backend, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, missingCredentials("gemini", "gemini.api_key")
	}
	return gemini.NewBackend(ctx, geminiCfg.APIKey, f.logger)
}
