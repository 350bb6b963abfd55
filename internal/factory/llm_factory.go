package factory

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey/app-tracker/internal/adapters/cache"
	"github.com/mikey/app-tracker/internal/classifier"
	"github.com/mikey/app-tracker/internal/config"
	"github.com/mikey/app-tracker/internal/core"
	"github.com/mikey/app-tracker/internal/utils"
	"go.uber.org/zap"
)

// ErrMissingCredentials is returned when a provider is named but not configured
var ErrMissingCredentials = errors.New("missing provider credentials")

func missingCredentials(provider, key string) error {
	return fmt.Errorf("%w: %s requires %s", ErrMissingCredentials, provider, key)
}

// LLMFactory builds the classifier cascade from the configured chain
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor

	// Backend constructors, swappable in tests
	openai  func() (core.GenerationBackend, error)
	gemini  func(ctx context.Context) (core.GenerationBackend, error)
	bedrock func(ctx context.Context) (core.GenerationBackend, error)

	closers []func() error
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	f := &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}

	f.openai = func() (core.GenerationBackend, error) {
		b, err := NewOpenAIFactory(cfg, logger).CreateBackend()
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	f.gemini = func(ctx context.Context) (core.GenerationBackend, error) {
		b, err := NewGeminiFactory(cfg, logger).CreateBackend(ctx)
		if err != nil {
			return nil, err
		}
		f.closers = append(f.closers, b.Close)
		return b, nil
	}
	f.bedrock = func(ctx context.Context) (core.GenerationBackend, error) {
		b, err := NewBedrockFactory(cfg, logger).CreateBackend(ctx)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return f
}

// CreateSteps resolves every chain entry to a backend. One backend is shared per provider.
// Entries whose provider has no credentials are skipped.
func (f *LLMFactory) CreateSteps(ctx context.Context, chain []config.ChainEntry) ([]classifier.Step, error) {
	backends := make(map[string]core.GenerationBackend)
	unavailable := make(map[string]bool)

	var steps []classifier.Step
	for _, entry := range chain {
		if unavailable[entry.Provider] {
			continue
		}

		backend, ok := backends[entry.Provider]
		if !ok {
			var err error
			backend, err = f.createBackend(ctx, entry.Provider)
			if errors.Is(err, ErrMissingCredentials) {
				f.logger.Warn("Skipping classifier provider",
					zap.String("provider", entry.Provider),
					zap.Error(err))
				unavailable[entry.Provider] = true
				continue
			}
			if err != nil {
				return nil, err
			}
			backends[entry.Provider] = backend
		}

		steps = append(steps, classifier.Step{
			Provider: entry.Provider,
			Model:    entry.Model,
			Backend:  backend,
		})
	}
	return steps, nil
}

func (f *LLMFactory) createBackend(ctx context.Context, provider string) (core.GenerationBackend, error) {
	switch provider {
	case "openai", "groq":
		return f.openai()
	case "gemini":
		return f.gemini(ctx)
	case "bedrock":
		return f.bedrock(ctx)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// CreateCascade creates the classifier cascade with the phrase classifier as its last resort
func (f *LLMFactory) CreateCascade(ctx context.Context) (*classifier.Cascade, error) {
	classifierCfg, err := f.cfg.GetClassifier()
	if err != nil {
		return nil, err
	}

	steps, err := f.CreateSteps(ctx, classifierCfg.Chain)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		f.logger.Warn("No LLM backend available, classifying with phrases only")
	}

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name())
	}
	f.logger.Info("Classifier cascade ready", zap.Strings("steps", names))

	return classifier.NewCascade(steps, classifier.NewPhraseClassifier(), f.textProcessor, f.logger,
		classifier.WithMaxBodySize(classifierCfg.MaxBodySize),
		classifier.WithMaxTokens(classifierCfg.MaxTokens),
		classifier.WithTemperature(classifierCfg.Temperature),
		classifier.WithRequestTimeout(classifierCfg.RequestTimeout),
	), nil
}

// CreateClassifier puts the classification cache in front of the cascade when enabled
func (f *LLMFactory) CreateClassifier(cascade *classifier.Cascade) (core.EmailClassifier, error) {
	classifierCfg, err := f.cfg.GetClassifier()
	if err != nil {
		return nil, err
	}
	if !classifierCfg.CacheEnabled {
		return cascade, nil
	}

	c := cache.NewMemoryCache(cascade, f.logger, classifierCfg.CacheTTL, classifierCfg.CacheCleanup)
	f.closers = append(f.closers, c.Stop)
	f.logger.Info("Classification cache enabled", zap.Duration("ttl", classifierCfg.CacheTTL))
	return c, nil
}

// Close releases backend clients
func (f *LLMFactory) Close() error {
	var errs []error
	for _, c := range f.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	f.closers = nil
	return errors.Join(errs...)
}
