package core

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned by a RecordStore when no record matches a key
var ErrRecordNotFound = errors.New("application record not found")

// MailSource fetches normalized emails, oldest first
type MailSource interface {
	Fetch(ctx context.Context, q FetchQuery) ([]*NormalizedEmail, error)
}

// Prompt is a single structured-extraction request
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// GenerationBackend completes a prompt with the named model
type GenerationBackend interface {
	Complete(ctx context.Context, prompt Prompt, model string) (string, error)
}

// RecordStore defines the interface for application record persistence
type RecordStore interface {
	Find(ctx context.Context, key RecordKey) (*ApplicationRecord, error)
	Create(ctx context.Context, rec *ApplicationRecord) error
	Update(ctx context.Context, key RecordKey, upd RecordUpdate) error
	List(ctx context.Context) ([]*ApplicationRecord, error)
}

// RecordClearer is implemented by stores that support a bulk wipe
type RecordClearer interface {
	Clear(ctx context.Context) error
}

// EmailAdmitter decides whether an email is tracked at all
type EmailAdmitter interface {
	Evaluate(sender, subject, body string) FilterDecision
}

// EmailClassifier extracts a classification from an admitted email
type EmailClassifier interface {
	Classify(ctx context.Context, email *NormalizedEmail) ClassificationResult
}

// ApplicationTracker merges classifications into stored records
type ApplicationTracker interface {
	Process(ctx context.Context, in TrackInput) (TrackDecision, error)
	Statistics(ctx context.Context) (Statistics, error)
}
