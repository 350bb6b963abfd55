package factory

import (
	"github.com/mikey/app-tracker/internal/adapters/openai"
	"github.com/mikey/app-tracker/internal/config"
	"go.uber.org/zap"
)

// OpenAIFactory creates OpenAI-compatible backends
type OpenAIFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewOpenAIFactory creates a new OpenAI factory
func NewOpenAIFactory(cfg *config.Config, logger *zap.Logger) *OpenAIFactory {
	return &OpenAIFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateBackend creates a backend for the configured endpoint
func (f *OpenAIFactory) CreateBackend() (*openai.Backend, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		return nil, missingCredentials("openai", "openai.api_key")
	}
	return openai.NewBackend(openaiCfg.APIKey, openaiCfg.BaseURL, f.logger), nil
}
