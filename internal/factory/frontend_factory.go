package factory

import (
	"github.com/mikey/app-tracker/internal/adapters/frontend"
	"github.com/mikey/app-tracker/internal/adapters/mail"
	"github.com/mikey/app-tracker/internal/config"
	"github.com/mikey/app-tracker/internal/core"
	"github.com/mikey/app-tracker/internal/ports"
	"go.uber.org/zap"
)

// FrontendFactory creates the long-running frontends based on configuration
type FrontendFactory struct {
	cfg        *config.Config
	logger     *zap.Logger
	service    *core.TrackerService
	store      core.RecordStore
	normalizer *mail.Normalizer
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.TrackerService,
	store core.RecordStore,
	normalizer *mail.Normalizer,
) *FrontendFactory {
	return &FrontendFactory{
		cfg:        cfg,
		logger:     logger,
		service:    service,
		store:      store,
		normalizer: normalizer,
	}
}

// CreateFrontends creates every enabled frontend. The poller is skipped when there is no
// mail source to poll.
func (f *FrontendFactory) CreateFrontends(info frontend.HealthInfo, hasSource bool) ([]ports.Frontend, error) {
	var frontends []ports.Frontend

	if f.cfg.GetBool("server.poller.enabled") {
		if hasSource {
			pipelineCfg, err := f.cfg.GetPipeline()
			if err != nil {
				return nil, err
			}
			frontends = append(frontends, frontend.NewPoller(
				f.service,
				f.logger,
				pipelineCfg.Interval,
				pipelineCfg.LiveLookback,
				pipelineCfg.LiveLimit,
			))
		} else {
			f.logger.Warn("Poller enabled without a mail source, not starting it")
		}
	}

	if httpCfg := f.cfg.GetHTTP(); httpCfg.Enabled {
		frontends = append(frontends, frontend.NewHTTPServer(f.service, f.store, info, httpCfg.ListenAddress, f.logger))
	}

	if smtpCfg := f.cfg.GetSMTP(); smtpCfg.Enabled {
		frontends = append(frontends, frontend.NewSMTPIngest(f.service, f.normalizer, f.logger, smtpCfg.ListenAddress, smtpCfg.Domain))
	}

	return frontends, nil
}
