package mail

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

// IMAPOptions configures an IMAPSource
type IMAPOptions struct {
	Address  string
	Username string
	Password string
	Mailbox  string
	TLS      bool
}

// IMAPSource fetches messages from one IMAP mailbox
type IMAPSource struct {
	opts        IMAPOptions
	normalizer  *Normalizer
	logger      *zap.Logger
	now         func() time.Time
	dialTimeout time.Duration
}

// NewIMAPSource creates a new IMAP mail source
func NewIMAPSource(opts IMAPOptions, normalizer *Normalizer, logger *zap.Logger) *IMAPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mailbox == "" {
		opts.Mailbox = "INBOX"
	}
	return &IMAPSource{
		opts:        opts,
		normalizer:  normalizer,
		logger:      logger,
		now:         time.Now,
		dialTimeout: 5 * time.Second,
	}
}

func (s *IMAPSource) connect() (*client.Client, error) {
	dialer := &net.Dialer{Timeout: s.dialTimeout}

	var (
		c   *client.Client
		err error
	)
	if s.opts.TLS {
		c, err = client.DialWithDialerTLS(dialer, s.opts.Address, nil)
	} else {
		c, err = client.DialWithDialer(dialer, s.opts.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", s.opts.Address, err)
	}

	if err := c.Login(s.opts.Username, s.opts.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	return c, nil
}

// Fetch returns the messages delivered since the query cutoff, oldest first
func (s *IMAPSource) Fetch(ctx context.Context, q core.FetchQuery) ([]*core.NormalizedEmail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := c.Logout(); err != nil {
			s.logger.Debug("IMAP logout failed", zap.Error(err))
		}
	}()

	// The client is not context aware; drop the connection when ctx ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Terminate()
		case <-done:
		}
	}()

	if _, err := c.Select(s.opts.Mailbox, true); err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", s.opts.Mailbox, err)
	}

	cutoff := q.Cutoff(s.now())

	// SINCE is date-only and zone-unaware; widen by a day and filter on the internal date
	criteria := imap.NewSearchCriteria()
	criteria.Since = cutoff.AddDate(0, 0, -1)

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search mailbox: %w", err)
	}
	if len(uids) == 0 {
		return []*core.NormalizedEmail{}, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid, imap.FetchInternalDate}

	messages := make(chan *imap.Message, len(uids))
	fetchDone := make(chan error, 1)
	go func() {
		fetchDone <- c.UidFetch(seqSet, items, messages)
	}()

	var emails []*core.NormalizedEmail
	for msg := range messages {
		if !msg.InternalDate.IsZero() && msg.InternalDate.Before(cutoff) {
			continue
		}

		body := msg.GetBody(section)
		if body == nil {
			s.logger.Warn("Server returned no body", zap.Uint32("uid", msg.Uid))
			continue
		}

		id := fmt.Sprintf("%s:%d", s.opts.Mailbox, msg.Uid)
		email, err := s.normalizer.FromReader(id, body)
		if err != nil {
			s.logger.Warn("Skipping unparseable message", zap.String("email_id", id), zap.Error(err))
			continue
		}
		emails = append(emails, email)
	}

	if err := <-fetchDone; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	emails = window(emails, time.Time{}, q.Limit)

	s.logger.Debug("Fetched IMAP messages",
		zap.String("mailbox", s.opts.Mailbox),
		zap.Int("matched", len(uids)),
		zap.Int("returned", len(emails)))

	return emails, nil
}
