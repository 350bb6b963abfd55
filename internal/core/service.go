package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoMailSource is returned by RunPass when the service has no mail source
var ErrNoMailSource = errors.New("no mail source configured")

// EmailOutcome records what the pipeline did with one email
type EmailOutcome struct {
	EmailID      string                `json:"email_id"`
	Subject      string                `json:"subject"`
	Admitted     bool                  `json:"admitted"`
	FilterReason string                `json:"filter_reason"`
	Result       *ClassificationResult `json:"result,omitempty"`
	Decision     *TrackDecision        `json:"decision,omitempty"`
	Error        string                `json:"error,omitempty"`
}

// PassSummary aggregates the outcomes of one pipeline pass
type PassSummary struct {
	ID            string         `json:"id"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Fetched       int            `json:"fetched"`
	Filtered      int            `json:"filtered"`
	Classified    int            `json:"classified"`
	Created       int            `json:"created"`
	Updated       int            `json:"updated"`
	Skipped       int            `json:"skipped"`
	LowConfidence int            `json:"low_confidence"`
	Failed        int            `json:"failed"`
	Outcomes      []EmailOutcome `json:"outcomes"`
}

func (p *PassSummary) add(o EmailOutcome) {
	p.Outcomes = append(p.Outcomes, o)

	switch {
	case o.Error != "":
		p.Failed++
		return
	case !o.Admitted:
		p.Filtered++
		return
	}

	p.Classified++
	if o.Decision == nil {
		p.LowConfidence++
		return
	}
	switch o.Decision.Action {
	case ActionCreated:
		p.Created++
	case ActionUpdated:
		p.Updated++
	default:
		p.Skipped++
	}
}

// TrackerService runs emails through admission, classification and tracking.
// Passes and single-email runs are serialised.
type TrackerService struct {
	source        MailSource
	admitter      EmailAdmitter
	classifier    EmailClassifier
	tracker       ApplicationTracker
	logger        *zap.Logger
	minConfidence float64
	now           func() time.Time

	mu sync.Mutex
}

// NewTrackerService creates a new tracker service. source may be nil when emails are only
// pushed through ProcessEmail.
func NewTrackerService(
	source MailSource,
	admitter EmailAdmitter,
	classifier EmailClassifier,
	tracker ApplicationTracker,
	logger *zap.Logger,
	minConfidence float64,
) *TrackerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackerService{
		source:        source,
		admitter:      admitter,
		classifier:    classifier,
		tracker:       tracker,
		logger:        logger,
		minConfidence: minConfidence,
		now:           time.Now,
	}
}

// RunPass fetches one batch of emails and processes them oldest first
func (s *TrackerService) RunPass(ctx context.Context, q FetchQuery, force bool) (*PassSummary, error) {
	if s.source == nil {
		return nil, ErrNoMailSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary := &PassSummary{ID: uuid.NewString(), StartedAt: s.now()}
	log := s.logger.With(zap.String("pass_id", summary.ID))

	emails, err := s.source.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emails: %w", err)
	}
	summary.Fetched = len(emails)

	log.Info("Pass started",
		zap.Int("emails", len(emails)),
		zap.Int("lookback_days", q.LookbackDays),
		zap.Time("since", q.Since),
		zap.Int("limit", q.Limit))

	for _, email := range emails {
		if ctx.Err() != nil {
			log.Warn("Pass interrupted", zap.Error(ctx.Err()))
			break
		}
		summary.add(s.processEmail(ctx, email, force))
	}

	summary.FinishedAt = s.now()
	log.Info("Pass finished",
		zap.Int("fetched", summary.Fetched),
		zap.Int("filtered", summary.Filtered),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)))

	return summary, nil
}

// ProcessEmail runs a single email through the pipeline
func (s *TrackerService) ProcessEmail(ctx context.Context, email *NormalizedEmail, force bool) EmailOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.processEmail(ctx, email, force)
}

// Classify admits and classifies an email without touching the record store
func (s *TrackerService) Classify(ctx context.Context, email *NormalizedEmail) (FilterDecision, *ClassificationResult) {
	sender := email.SenderEmail
	if sender == "" {
		sender = email.From
	}
	decision := s.admitter.Evaluate(sender, email.Subject, email.Body)
	if !decision.Admit {
		return decision, nil
	}
	result := s.classifier.Classify(ctx, email)
	return decision, &result
}

func (s *TrackerService) processEmail(ctx context.Context, email *NormalizedEmail, force bool) (outcome EmailOutcome) {
	outcome = EmailOutcome{EmailID: email.ID, Subject: email.Subject}

	defer func() {
		if r := recover(); r != nil {
			outcome.Error = fmt.Sprintf("panic: %v", r)
			s.logger.Error("Email processing panicked",
				zap.String("email_id", email.ID),
				zap.Any("panic", r))
		}
	}()

	decision, result := s.Classify(ctx, email)
	outcome.Admitted = decision.Admit
	outcome.FilterReason = decision.Reason

	if !decision.Admit {
		s.logger.Debug("Email filtered out",
			zap.String("email_id", email.ID),
			zap.String("subject", email.Subject),
			zap.String("reason", decision.Reason))
		return outcome
	}
	outcome.Result = result

	if result.Confidence < s.minConfidence {
		s.logger.Info("Classification below confidence threshold",
			zap.String("email_id", email.ID),
			zap.Float64("confidence", result.Confidence),
			zap.Float64("min_confidence", s.minConfidence))
		return outcome
	}

	emailDate := email.Date
	if emailDate.IsZero() {
		emailDate = s.now()
	}

	track, err := s.tracker.Process(ctx, TrackInput{
		Result:          *result,
		EmailDate:       emailDate,
		EmailSubject:    email.Subject,
		DetectionReason: decision.Reason,
		Force:           force,
	})
	if err != nil {
		outcome.Error = err.Error()
		s.logger.Error("Failed to track email",
			zap.String("email_id", email.ID),
			zap.Error(err))
		return outcome
	}
	outcome.Decision = &track

	s.logger.Debug("Email processed",
		zap.String("email_id", email.ID),
		zap.String("company", result.Company),
		zap.String("role", result.Role),
		zap.String("status", result.Status.String()),
		zap.String("source", string(result.Source)),
		zap.String("action", string(track.Action)),
		zap.String("reason", track.Reason))

	return outcome
}

// Statistics returns the per-status record counts
func (s *TrackerService) Statistics(ctx context.Context) (Statistics, error) {
	return s.tracker.Statistics(ctx)
}
