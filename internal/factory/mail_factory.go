package factory

import (
	"context"
	"fmt"

	"github.com/mikey/app-tracker/internal/adapters/mail"
	"github.com/mikey/app-tracker/internal/config"
	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

// MailFactory creates the normalizer and mail source
type MailFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	rules  config.Rules
	google *GoogleFactory
}

// NewMailFactory creates a new mail factory
func NewMailFactory(cfg *config.Config, logger *zap.Logger, rules config.Rules, google *GoogleFactory) *MailFactory {
	return &MailFactory{
		cfg:    cfg,
		logger: logger,
		rules:  rules,
		google: google,
	}
}

// SourceType returns the configured mail source name
func (f *MailFactory) SourceType() string {
	return f.cfg.GetMail().Source
}

// CreateNormalizer creates a normalizer that recognises the configured action keywords
func (f *MailFactory) CreateNormalizer() *mail.Normalizer {
	return mail.NewNormalizer(f.rules.ActionKeywords, f.logger)
}

// CreateMailSource creates a mail source based on the configuration.
// "none" yields a nil source for deployments that only receive mail over SMTP.
func (f *MailFactory) CreateMailSource(ctx context.Context, normalizer *mail.Normalizer) (core.MailSource, error) {
	mailCfg := f.cfg.GetMail()

	switch mailCfg.Source {
	case "gmail":
		svc, err := f.google.CreateGmailService(ctx)
		if err != nil {
			return nil, err
		}
		return mail.NewGmailSource(svc, f.rules.JobQuery, normalizer, f.logger), nil
	case "imap":
		imapCfg := f.cfg.GetIMAP()
		if imapCfg.Username == "" {
			return nil, missingCredentials("imap", "imap.username")
		}
		return mail.NewIMAPSource(mail.IMAPOptions{
			Address:  imapCfg.Address,
			Username: imapCfg.Username,
			Password: imapCfg.Password,
			Mailbox:  imapCfg.Mailbox,
			TLS:      imapCfg.TLS,
		}, normalizer, f.logger), nil
	case "dir":
		return mail.NewDirSource(mailCfg.DirPath, normalizer, f.logger), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported mail source: %s", mailCfg.Source)
	}
}
