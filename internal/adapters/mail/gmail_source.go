package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
)

// GmailDateLayout is the date format of the Gmail "after:" operator
const GmailDateLayout = "2006/01/02"

// GmailSource fetches messages matching a job search query from a Gmail account
type GmailSource struct {
	svc        *gmail.Service
	user       string
	jobQuery   string
	normalizer *Normalizer
	logger     *zap.Logger
	now        func() time.Time
}

// NewGmailSource creates a new Gmail mail source for the authenticated user
func NewGmailSource(svc *gmail.Service, jobQuery string, normalizer *Normalizer, logger *zap.Logger) *GmailSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GmailSource{
		svc:        svc,
		user:       "me",
		jobQuery:   jobQuery,
		normalizer: normalizer,
		logger:     logger,
		now:        time.Now,
	}
}

// Query returns the Gmail search expression for a cutoff
func (s *GmailSource) Query(cutoff time.Time) string {
	return strings.TrimSpace(fmt.Sprintf("after:%s %s", cutoff.Format(GmailDateLayout), s.jobQuery))
}

// Fetch lists matching message IDs, newest first as Gmail returns them, then downloads each one
func (s *GmailSource) Fetch(ctx context.Context, q core.FetchQuery) ([]*core.NormalizedEmail, error) {
	cutoff := q.Cutoff(s.now())
	query := s.Query(cutoff)

	ids, err := s.list(ctx, query, q.Limit)
	if err != nil {
		return nil, err
	}

	emails := make([]*core.NormalizedEmail, 0, len(ids))
	for _, id := range ids {
		email, err := s.get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("Skipping message", zap.String("email_id", id), zap.Error(err))
			continue
		}
		emails = append(emails, email)
	}

	emails = window(emails, time.Time{}, q.Limit)

	s.logger.Debug("Fetched Gmail messages",
		zap.String("query", query),
		zap.Int("listed", len(ids)),
		zap.Int("returned", len(emails)))

	return emails, nil
}

func (s *GmailSource) list(ctx context.Context, query string, limit int) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		call := s.svc.Users.Messages.List(s.user).Q(query).Context(ctx)
		if limit > 0 {
			call = call.MaxResults(int64(limit - len(ids)))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		if resp.NextPageToken == "" || (limit > 0 && len(ids) >= limit) {
			break
		}
		pageToken = resp.NextPageToken
	}

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *GmailSource) get(ctx context.Context, id string) (*core.NormalizedEmail, error) {
	msg, err := s.svc.Users.Messages.Get(s.user, id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(msg.Raw, "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode raw message: %w", err)
	}

	email, err := s.normalizer.FromRaw(id, raw)
	if err != nil {
		return nil, err
	}
	if msg.Snippet != "" {
		email.Snippet = html.UnescapeString(msg.Snippet)
	}
	return email, nil
}
