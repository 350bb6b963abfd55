package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/app-tracker/internal/adapters/frontend"
	"github.com/mikey/app-tracker/internal/adapters/mail"
	"github.com/mikey/app-tracker/internal/admission"
	"github.com/mikey/app-tracker/internal/classifier"
	"github.com/mikey/app-tracker/internal/config"
	"github.com/mikey/app-tracker/internal/core"
	"github.com/mikey/app-tracker/internal/factory"
	"github.com/mikey/app-tracker/internal/logging"
	"github.com/mikey/app-tracker/internal/ports"
	"github.com/mikey/app-tracker/internal/tracker"
	"github.com/mikey/app-tracker/internal/utils"
)

// Closer releases a resource at shutdown
type Closer struct {
	Name  string
	Close func() error
}

// Closers lists the resources opened while building the graph
type Closers []Closer

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	// Register frontends
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		f *factory.FrontendFactory,
		source core.MailSource,
		cascade *classifier.Cascade,
		storeFactory *factory.StoreFactory,
		mailFactory *factory.MailFactory,
	) ([]ports.Frontend, error) {
		info := frontend.HealthInfo{
			Store:      storeFactory.StoreType(),
			MailSource: mailFactory.SourceType(),
		}
		for _, step := range cascade.Steps() {
			info.Backends = append(info.Backends, step.Name())
		}
		return f.CreateFrontends(info, source != nil)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideShared registers everything up to the tracker service
func provideShared(container *dig.Container) error {
	// Register rules
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (config.Rules, error) {
		rules, err := cfg.GetRules()
		if err != nil {
			return config.Rules{}, err
		}
		if path := cfg.GetString("rules.file"); path != "" {
			logger.Info("Loaded rules file", zap.String("file", path))
		}
		return rules, nil
	}); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register factories
	if err := container.Provide(factory.NewGoogleFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewMailFactory); err != nil {
		return err
	}

	// Register closers
	if err := container.Provide(func(llm *factory.LLMFactory, stores *factory.StoreFactory) Closers {
		return Closers{
			{Name: "llm backends", Close: llm.Close},
			{Name: "record store", Close: stores.Close},
		}
	}); err != nil {
		return err
	}

	// Register classifier cascade
	if err := container.Provide(func(f *factory.LLMFactory) (*classifier.Cascade, error) {
		return f.CreateCascade(context.Background())
	}); err != nil {
		return err
	}

	// Register the classifier used by the service
	if err := container.Provide(func(f *factory.LLMFactory, cascade *classifier.Cascade) (core.EmailClassifier, error) {
		return f.CreateClassifier(cascade)
	}); err != nil {
		return err
	}

	// Register admission filter
	if err := container.Provide(admission.NewFilter); err != nil {
		return err
	}

	// Register record store
	if err := container.Provide(func(f *factory.StoreFactory) (core.RecordStore, error) {
		return f.CreateRecordStore(context.Background())
	}); err != nil {
		return err
	}

	// Register normalizer and mail source
	if err := container.Provide(func(f *factory.MailFactory) *mail.Normalizer {
		return f.CreateNormalizer()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.MailFactory, normalizer *mail.Normalizer) (core.MailSource, error) {
		return f.CreateMailSource(context.Background(), normalizer)
	}); err != nil {
		return err
	}

	// Register tracker
	if err := container.Provide(func(store core.RecordStore, logger *zap.Logger, cfg *config.Config) *tracker.Tracker {
		return tracker.New(store, logger, tracker.WithPlaceholderResolution(cfg.GetTracker().ResolvePlaceholders))
	}); err != nil {
		return err
	}

	// Register tracker service
	if err := container.Provide(func(
		source core.MailSource,
		admitter *admission.Filter,
		classify core.EmailClassifier,
		t *tracker.Tracker,
		logger *zap.Logger,
		cfg *config.Config,
	) (*core.TrackerService, error) {
		pipelineCfg, err := cfg.GetPipeline()
		if err != nil {
			return nil, err
		}
		return core.NewTrackerService(source, admitter, classify, t, logger, pipelineCfg.MinConfidence), nil
	}); err != nil {
		return err
	}

	return nil
}
