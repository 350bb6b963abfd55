package core

import (
	"strings"
	"time"
)

// Timestamp layouts used when records are rendered as text
const (
	TimestampLayout = "2006-01-02 15:04"
	DateLayout      = "2006-01-02"
)

// NormalizedEmail represents an email reduced to the fields the pipeline needs
type NormalizedEmail struct {
	ID           string
	Subject      string
	From         string
	SenderEmail  string
	SenderDomain string
	Body         string
	Snippet      string
	Date         time.Time
	ActionLinks  []string
}

// FirstActionLink returns the first candidate action link, or an empty string
func (e *NormalizedEmail) FirstActionLink() string {
	if len(e.ActionLinks) == 0 {
		return ""
	}
	return e.ActionLinks[0]
}

// FilterDecision is the outcome of the admission filter
type FilterDecision struct {
	Admit  bool
	Reason string
}

// Source identifies which classifier produced a result
type Source string

const (
	SourceAI      Source = "ai"
	SourcePhrases Source = "phrases"
)

// ClassificationResult represents the structured fields extracted from an email
type ClassificationResult struct {
	Company    string  `json:"company"`
	Role       string  `json:"role"`
	Status     Status  `json:"status"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Source     Source  `json:"source"`
	ActionLink string  `json:"action_link,omitempty"`
}

// RecordKey identifies an application record
type RecordKey struct {
	Company string
	Role    string
}

// Normalized returns the key in its case-insensitive comparison form
func (k RecordKey) Normalized() RecordKey {
	return RecordKey{
		Company: strings.ToLower(strings.TrimSpace(k.Company)),
		Role:    strings.ToLower(strings.TrimSpace(k.Role)),
	}
}

// Matches reports whether two keys identify the same application
func (k RecordKey) Matches(other RecordKey) bool {
	return k.Normalized() == other.Normalized()
}

// ApplicationRecord represents one tracked job application
type ApplicationRecord struct {
	Company         string    `json:"company"`
	Role            string    `json:"role"`
	Status          Status    `json:"status"`
	AppliedDate     time.Time `json:"-"`
	LastUpdated     time.Time `json:"-"`
	EmailSubject    string    `json:"email_subject"`
	DetectionReason string    `json:"detection_reason"`
	ActionLink      string    `json:"action_link,omitempty"`
}

// Key returns the identity of the record
func (r *ApplicationRecord) Key() RecordKey {
	return RecordKey{Company: r.Company, Role: r.Role}
}

// RecordUpdate holds the fields written by an in-place update.
// Company and Role are only written when non-empty.
type RecordUpdate struct {
	Company         string
	Role            string
	Status          Status
	LastUpdated     time.Time
	EmailSubject    string
	DetectionReason string
	ActionLink      string
}

// Apply writes the update onto a record
func (u RecordUpdate) Apply(r *ApplicationRecord) {
	if u.Company != "" {
		r.Company = u.Company
	}
	if u.Role != "" {
		r.Role = u.Role
	}
	r.Status = u.Status
	r.LastUpdated = u.LastUpdated
	r.EmailSubject = u.EmailSubject
	r.DetectionReason = u.DetectionReason
	r.ActionLink = u.ActionLink
}

// FetchQuery bounds a mail source fetch. Since wins over LookbackDays when set.
type FetchQuery struct {
	Since        time.Time
	LookbackDays int
	Limit        int
}

// Cutoff returns the earliest email time the query accepts
func (q FetchQuery) Cutoff(now time.Time) time.Time {
	if !q.Since.IsZero() {
		return q.Since
	}
	return now.AddDate(0, 0, -q.LookbackDays)
}

// Statistics summarises the stored applications
type Statistics struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
}

// NewStatistics returns statistics with every canonical status present
func NewStatistics() Statistics {
	stats := Statistics{ByStatus: make(map[Status]int)}
	for _, s := range CanonicalStatuses() {
		stats.ByStatus[s] = 0
	}
	return stats
}

// Add counts one record
func (s *Statistics) Add(status Status) {
	s.Total++
	if _, ok := s.ByStatus[status]; ok {
		s.ByStatus[status]++
	}
}

// Naive drops the zone of t while keeping its wall clock reading
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// NaiveMinute is Naive truncated to minute precision
func NaiveMinute(t time.Time) time.Time {
	return Naive(t).Truncate(time.Minute)
}

// TrackInput is one classification handed to the tracker
type TrackInput struct {
	Result          ClassificationResult
	EmailDate       time.Time
	EmailSubject    string
	DetectionReason string
	Force           bool
}

// TrackAction describes what the tracker did with an input
type TrackAction string

const (
	ActionCreated TrackAction = "created"
	ActionUpdated TrackAction = "updated"
	ActionSkipped TrackAction = "skipped"
)

// TrackDecision is the tracker's verdict for one input
type TrackDecision struct {
	Applied bool
	Action  TrackAction
	Reason  string
}
