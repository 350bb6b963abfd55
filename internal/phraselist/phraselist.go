package phraselist

import (
	"strings"

	"go.uber.org/zap"
)

// Matcher finds configured phrases inside text, case-insensitively.
// Phrases are checked in the order they were configured.
type Matcher struct {
	name    string
	phrases []string
	logger  *zap.Logger
}

// NewMatcher creates a matcher over the given phrases
func NewMatcher(name string, phrases []string, logger *zap.Logger) *Matcher {
	// Normalize phrases (lowercase), dropping blanks
	normalized := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p == "" {
			continue
		}
		normalized = append(normalized, p)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Initialized phrase list",
		zap.String("list", name),
		zap.Int("phrases", len(normalized)))

	return &Matcher{
		name:    name,
		phrases: normalized,
		logger:  logger,
	}
}

// First returns the first configured phrase contained in text
func (m *Matcher) First(text string) (string, bool) {
	if len(m.phrases) == 0 {
		return "", false
	}

	lower := strings.ToLower(text)
	for _, phrase := range m.phrases {
		if strings.Contains(lower, phrase) {
			m.logger.Debug("Phrase matched",
				zap.String("list", m.name),
				zap.String("phrase", phrase))
			return phrase, true
		}
	}

	return "", false
}

// Contains reports whether any configured phrase appears in text
func (m *Matcher) Contains(text string) bool {
	_, ok := m.First(text)
	return ok
}

// Phrases returns a copy of the normalized phrases
func (m *Matcher) Phrases() []string {
	out := make([]string, len(m.phrases))
	copy(out, m.phrases)
	return out
}

// Len returns the number of phrases
func (m *Matcher) Len() int {
	return len(m.phrases)
}
