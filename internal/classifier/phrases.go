package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mikey/app-tracker/internal/core"
	"github.com/mikey/app-tracker/internal/utils"
)

// Placeholders reported when extraction fails
const (
	UnknownCompany  = "Unknown Company"
	UnknownPosition = "Unknown Position"
)

const (
	matchedConfidence = 0.8
	defaultConfidence = 0.5
	trustThreshold    = 0.6
)

// PhraseClassifier is the deterministic rule-based classifier. It never fails and
// performs no I/O; the same email always yields the same result.
type PhraseClassifier struct {
	statusRules     []statusRule
	companyBody     []*regexp.Regexp
	companySubject  []*regexp.Regexp
	rolePatterns    []rolePattern
	secondaryRoles  []*regexp.Regexp
	jobTitles       []string
	jobWords        []string
	companyExcluded map[string]struct{}
	domainExcluded  map[string]struct{}
}

// NewPhraseClassifier creates a classifier with the built-in rule tables
func NewPhraseClassifier() *PhraseClassifier {
	return &PhraseClassifier{
		statusRules:     statusRules(),
		companyBody:     companyBodyPatterns(),
		companySubject:  companySubjectPatterns(),
		rolePatterns:    phraseRolePatterns(),
		secondaryRoles:  secondaryRolePatterns(),
		jobTitles:       jobTitles,
		jobWords:        jobWords,
		companyExcluded: companyBlacklist,
		domainExcluded:  domainBlacklist,
	}
}

// Classify classifies an email by phrase matching
func (p *PhraseClassifier) Classify(email *core.NormalizedEmail) core.ClassificationResult {
	status, confidence, reasoning := p.matchStatus(email)

	company := p.ExtractCompany(email)
	role := p.ExtractRole(email.Subject, email.Body)

	// An email we cannot attribute is never trusted with a non-default status
	if company == "" && role == "" {
		confidence = 0
		reasoning = "Failed to extract Company or Role"
		status = core.StatusApplied
	} else if confidence < trustThreshold && (company == "" || role == "") {
		confidence = 0
		reasoning = "Low confidence and missing metadata"
	}

	if company == "" {
		company = UnknownCompany
	}
	if role == "" {
		role = UnknownPosition
	}

	return core.ClassificationResult{
		Company:    company,
		Role:       role,
		Status:     status,
		Confidence: confidence,
		Reasoning:  reasoning,
		Source:     core.SourcePhrases,
	}
}

func (p *PhraseClassifier) matchStatus(email *core.NormalizedEmail) (core.Status, float64, string) {
	text := strings.ToLower(email.Subject + " " + email.Snippet + " " + email.Body)

	for _, rule := range p.statusRules {
		for _, re := range rule.patterns {
			if re.MatchString(text) {
				return rule.status, matchedConfidence, fmt.Sprintf("Matched pattern for %s", rule.status)
			}
		}
	}

	return core.StatusApplied, defaultConfidence, "Default status"
}

// ExtractCompany looks for the employer in the body, then the subject, then the sender domain.
// It returns an empty string when every candidate is generic.
func (p *PhraseClassifier) ExtractCompany(email *core.NormalizedEmail) string {
	if company := p.firstAllowed(p.companyBody, email.Body); company != "" {
		return company
	}
	if company := p.firstAllowed(p.companySubject, email.Subject); company != "" {
		return company
	}

	sender := email.SenderEmail
	if sender == "" {
		sender = email.From
	}
	if m := senderDomainPattern.FindStringSubmatch(sender); m != nil {
		domain := m[1]
		if _, excluded := p.domainExcluded[strings.ToLower(domain)]; !excluded {
			return utils.TitleCase(domain)
		}
	}

	return ""
}

func (p *PhraseClassifier) firstAllowed(patterns []*regexp.Regexp, text string) string {
	// Only the first match of each pattern counts; a generic one moves on to the next pattern
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if _, excluded := p.companyExcluded[strings.ToLower(candidate)]; !excluded {
			return candidate
		}
	}
	return ""
}

// ExtractRole finds the job title in the subject and body
func (p *PhraseClassifier) ExtractRole(subject, body string) string {
	content := subject + " " + body

	for _, rp := range p.rolePatterns {
		m := rp.re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		role := utils.CollapseWhitespace(m[1])
		if !plausibleRoleLength(role) {
			continue
		}
		if rp.generic && !p.hasJobWord(role) {
			continue
		}
		return presentRole(role)
	}

	lower := strings.ToLower(content)
	for _, title := range p.jobTitles {
		if strings.Contains(lower, title) {
			return utils.TitleCase(title)
		}
	}

	return ""
}

// ExtractRoleLoose applies the secondary role patterns without the job-word check
func (p *PhraseClassifier) ExtractRoleLoose(subject, body string) string {
	content := subject + " " + body

	for _, re := range p.secondaryRoles {
		m := re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		role := utils.CollapseWhitespace(m[1])
		if plausibleRoleLength(role) {
			return presentRole(role)
		}
	}

	return ""
}

func (p *PhraseClassifier) hasJobWord(role string) bool {
	lower := strings.ToLower(role)
	for _, word := range p.jobWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// Between 6 and 79 characters
func plausibleRoleLength(role string) bool {
	n := utf8.RuneCountInString(role)
	return n > 5 && n < 80
}

func presentRole(role string) string {
	if utils.IsAllLower(role) {
		return utils.TitleCase(role)
	}
	return role
}
