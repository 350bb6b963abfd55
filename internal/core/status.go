package core

import "strings"

// Status is the lifecycle state of an application
type Status string

const (
	StatusApplied    Status = "Applied"
	StatusAssessment Status = "Assessment"
	StatusInterview  Status = "Interview"
	StatusOffer      Status = "Offer"
	StatusRejected   Status = "Rejected"
)

// Rejected sits at the bottom; it is applied as an override, not through priority.
var statusPriority = map[Status]int{
	StatusRejected:   0,
	StatusApplied:    1,
	StatusAssessment: 2,
	StatusInterview:  3,
	StatusOffer:      4,
}

// CanonicalStatuses returns the statuses in lattice order
func CanonicalStatuses() []Status {
	return []Status{StatusApplied, StatusAssessment, StatusInterview, StatusOffer, StatusRejected}
}

// Priority returns the position of the status in the progression lattice.
// Unknown statuses rank with Rejected.
func (s Status) Priority() int {
	return statusPriority[s]
}

// Valid reports whether s is a canonical status
func (s Status) Valid() bool {
	_, ok := statusPriority[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus maps a free-text status onto a canonical one, ignoring case
func ParseStatus(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	for s := range statusPriority {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

var placeholders = map[string]struct{}{
	"":                 {},
	"unknown":          {},
	"n/a":              {},
	"none":             {},
	"unknown company":  {},
	"unknown position": {},
	"unspecified":      {},
}

// IsPlaceholder reports whether a company or role value means "not known"
func IsPlaceholder(value string) bool {
	_, ok := placeholders[strings.ToLower(strings.TrimSpace(value))]
	return ok
}
