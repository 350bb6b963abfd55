package frontend

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/app-tracker/internal/adapters/mail"
	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

// SMTPIngest accepts forwarded messages over SMTP and tracks each one as it arrives
type SMTPIngest struct {
	service    *core.TrackerService
	normalizer *mail.Normalizer
	logger     *zap.Logger
	listenAddr string
	domain     string
	timeout    time.Duration
	server     *smtp.Server
	listener   net.Listener
}

// NewSMTPIngest creates a new SMTP ingest frontend
func NewSMTPIngest(service *core.TrackerService, normalizer *mail.Normalizer, logger *zap.Logger, listenAddr, domain string) *SMTPIngest {
	if logger == nil {
		logger = zap.NewNop()
	}
	if domain == "" {
		domain = "localhost"
	}
	return &SMTPIngest{
		service:    service,
		normalizer: normalizer,
		logger:     logger,
		listenAddr: listenAddr,
		domain:     domain,
		timeout:    2 * time.Minute,
	}
}

// Name identifies the ingest listener in logs
func (f *SMTPIngest) Name() string {
	return "smtp"
}

// Start binds the listener and serves in the background
func (f *SMTPIngest) Start() error {
	f.server = smtp.NewServer(&smtpBackend{ingest: f})
	f.server.Addr = f.listenAddr
	f.server.Domain = f.domain
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	l, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return err
	}
	f.listener = l

	f.logger.Info("SMTP ingest starting", zap.String("address", l.Addr().String()))

	go func() {
		if err := f.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started
func (f *SMTPIngest) Addr() string {
	if f.listener == nil {
		return f.listenAddr
	}
	return f.listener.Addr().String()
}

// Stop closes the listener and open sessions
func (f *SMTPIngest) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	ingest *SMTPIngest
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{ingest: b.ingest}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	ingest     *SMTPIngest
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the envelope sender
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data parses the message and runs it through the pipeline
func (s *smtpSession) Data(r io.Reader) error {
	f := s.ingest

	raw, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	email, err := f.normalizer.FromRaw("", raw)
	if err != nil {
		f.logger.Warn("Rejecting unparseable message", zap.String("sender", s.sender), zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Message could not be parsed",
		}
	}
	if email.ID == "" {
		email.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	outcome := f.service.ProcessEmail(ctx, email, false)
	if outcome.Error != "" {
		// Tracking failures are logged; the message is still accepted
		f.logger.Error("Failed to process ingested email",
			zap.String("email_id", email.ID),
			zap.String("error", outcome.Error))
		return nil
	}

	fields := []zap.Field{
		zap.String("email_id", email.ID),
		zap.String("sender", s.sender),
		zap.Bool("admitted", outcome.Admitted),
	}
	if outcome.Decision != nil {
		fields = append(fields,
			zap.String("action", string(outcome.Decision.Action)),
			zap.String("reason", outcome.Decision.Reason))
	}
	f.logger.Info("Processed ingested email", fields...)

	return nil
}

// Logout ends the session
func (s *smtpSession) Logout() error {
	return nil
}
