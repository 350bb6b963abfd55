// Package admission decides which emails enter the classification pipeline.
package admission

import (
	"fmt"

	"github.com/mikey/app-tracker/internal/config"
	"github.com/mikey/app-tracker/internal/core"
	"github.com/mikey/app-tracker/internal/phraselist"
	"go.uber.org/zap"
)

// Reason for emails with no allow-list match
const ReasonNoSignal = "Blocked: no positive job signal"

// Filter is a default-deny allow-list filter with two block-lists in front of it.
// It holds no mutable state and is safe for concurrent use.
type Filter struct {
	ignoredSenders   *phraselist.Matcher
	negativeSubjects *phraselist.Matcher
	positivePhrases  *phraselist.Matcher
	logger           *zap.Logger
}

// NewFilter creates a filter from the configured phrase lists
func NewFilter(rules config.Rules, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{
		ignoredSenders:   phraselist.NewMatcher("ignored_senders", rules.IgnoredSenders, logger),
		negativeSubjects: phraselist.NewMatcher("negative_subjects", rules.NegativeSubjects, logger),
		positivePhrases:  phraselist.NewMatcher("positive_phrases", rules.PositivePhrases, logger),
		logger:           logger,
	}
}

// Evaluate applies the sender block-list, then the negative subjects with their positive
// override, then the positive allow-list. Anything left is rejected.
func (f *Filter) Evaluate(sender, subject, body string) core.FilterDecision {
	if token, ok := f.ignoredSenders.First(sender); ok {
		return reject(fmt.Sprintf("Blocked sender: %s", token))
	}

	combined := subject + " " + body

	if negative, ok := f.negativeSubjects.First(subject); ok {
		if positive, ok := f.positivePhrases.First(combined); ok {
			return admit(fmt.Sprintf("Kept: '%s' (overrode '%s')", positive, negative))
		}
		return reject(fmt.Sprintf("Blocked subject: %s", negative))
	}

	if positive, ok := f.positivePhrases.First(combined); ok {
		return admit(fmt.Sprintf("Matched: %s", positive))
	}

	return reject(ReasonNoSignal)
}

func admit(reason string) core.FilterDecision {
	return core.FilterDecision{Admit: true, Reason: reason}
}

func reject(reason string) core.FilterDecision {
	return core.FilterDecision{Admit: false, Reason: reason}
}
