// Package tracker merges classifications into application records.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

// Tracker reconciles classification results against the record store using the
// status priority lattice
type Tracker struct {
	store               core.RecordStore
	logger              *zap.Logger
	resolvePlaceholders bool
	now                 func() time.Time
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock replaces the processing-time clock
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithPlaceholderResolution enables matching records whose company or role is still unknown
func WithPlaceholderResolution(enabled bool) Option {
	return func(t *Tracker) { t.resolvePlaceholders = enabled }
}

// New creates a new tracker
func New(store core.RecordStore, logger *zap.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		store:               store,
		logger:              logger,
		resolvePlaceholders: true,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Process implements core.ApplicationTracker
func (t *Tracker) Process(ctx context.Context, in core.TrackInput) (core.TrackDecision, error) {
	res := in.Result
	key := core.RecordKey{Company: res.Company, Role: res.Role}
	processedAt := core.NaiveMinute(t.now())

	existing, err := t.lookup(ctx, key)
	if err != nil {
		return core.TrackDecision{}, err
	}

	if existing == nil {
		rec := &core.ApplicationRecord{
			Company:         res.Company,
			Role:            res.Role,
			Status:          res.Status,
			AppliedDate:     core.Naive(in.EmailDate),
			LastUpdated:     processedAt,
			EmailSubject:    in.EmailSubject,
			DetectionReason: in.DetectionReason,
			ActionLink:      res.ActionLink,
		}
		if err := t.store.Create(ctx, rec); err != nil {
			return core.TrackDecision{}, fmt.Errorf("failed to create record: %w", err)
		}

		t.logger.Info("Application recorded",
			zap.String("company", rec.Company),
			zap.String("role", rec.Role),
			zap.String("status", rec.Status.String()))

		return core.TrackDecision{Applied: true, Action: core.ActionCreated, Reason: "new application"}, nil
	}

	emailDate := core.Naive(in.EmailDate)
	if emailDate.Before(existing.LastUpdated) && !in.Force {
		return skipped(fmt.Sprintf("email older than last update (%s < %s)",
			emailDate.Format(core.TimestampLayout), existing.LastUpdated.Format(core.TimestampLayout))), nil
	}

	upd := core.RecordUpdate{
		Status:          existing.Status,
		LastUpdated:     processedAt,
		EmailSubject:    in.EmailSubject,
		DetectionReason: in.DetectionReason,
		ActionLink:      res.ActionLink,
	}

	refined := false
	if !core.IsPlaceholder(res.Company) && core.IsPlaceholder(existing.Company) {
		upd.Company = res.Company
		refined = true
	}
	if !core.IsPlaceholder(res.Role) && core.IsPlaceholder(existing.Role) {
		upd.Role = res.Role
		refined = true
	}

	var reason string
	switch {
	case res.Status == core.StatusRejected:
		upd.Status = core.StatusRejected
		reason = fmt.Sprintf("status %s -> %s", existing.Status, res.Status)
	case res.Status.Priority() >= existing.Status.Priority():
		upd.Status = res.Status
		reason = fmt.Sprintf("status %s -> %s", existing.Status, res.Status)
	case res.ActionLink != "":
		reason = "action link refresh"
	case refined:
		reason = "field refinement"
	default:
		return skipped(fmt.Sprintf("no status progression (%s -> %s)", existing.Status, res.Status)), nil
	}

	if existing.Status == core.StatusRejected && upd.Status != core.StatusRejected {
		t.logger.Debug("Rejected record reopened",
			zap.String("company", existing.Company),
			zap.String("role", existing.Role),
			zap.String("status", upd.Status.String()))
	}

	if err := t.store.Update(ctx, existing.Key(), upd); err != nil {
		return core.TrackDecision{}, fmt.Errorf("failed to update record: %w", err)
	}

	t.logger.Info("Application updated",
		zap.String("company", existing.Company),
		zap.String("role", existing.Role),
		zap.String("reason", reason))

	return core.TrackDecision{Applied: true, Action: core.ActionUpdated, Reason: reason}, nil
}

// lookup returns the record for key, or nil when there is none
func (t *Tracker) lookup(ctx context.Context, key core.RecordKey) (*core.ApplicationRecord, error) {
	rec, err := t.store.Find(ctx, key)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, core.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	if !t.resolvePlaceholders {
		return nil, nil
	}

	records, err := t.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	want := key.Normalized()
	var best *core.ApplicationRecord
	for _, r := range records {
		have := r.Key().Normalized()
		// Only a stored placeholder is resolved; an incoming one never claims a concrete record
		sameCompany := have.Company == want.Company && core.IsPlaceholder(r.Role)
		sameRole := have.Role == want.Role && core.IsPlaceholder(r.Company)
		if !sameCompany && !sameRole {
			continue
		}
		if best == nil || r.LastUpdated.After(best.LastUpdated) {
			best = r
		}
	}

	if best != nil {
		t.logger.Debug("Resolved record through placeholder",
			zap.String("company", best.Company),
			zap.String("role", best.Role))
	}
	return best, nil
}

// Statistics implements core.ApplicationTracker
func (t *Tracker) Statistics(ctx context.Context) (core.Statistics, error) {
	records, err := t.store.List(ctx)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("failed to list records: %w", err)
	}

	stats := core.NewStatistics()
	for _, r := range records {
		stats.Add(r.Status)
	}
	return stats, nil
}

func skipped(reason string) core.TrackDecision {
	return core.TrackDecision{Applied: false, Action: core.ActionSkipped, Reason: reason}
}
