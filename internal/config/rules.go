package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules holds the externally editable phrase lists used by the pipeline
type Rules struct {
	IgnoredSenders   []string `yaml:"ignored_senders"`
	NegativeSubjects []string `yaml:"negative_subjects"`
	PositivePhrases  []string `yaml:"positive_phrases"`
	ActionKeywords   []string `yaml:"action_keywords"`
	JobQuery         string   `yaml:"job_query"`
}

// DefaultRules returns the built-in phrase lists
func DefaultRules() Rules {
	return Rules{
		IgnoredSenders: []string{
			"glassdoor", "linkedin", "indeed", "monster", "ziprecruiter", "dice",
			"careerbuilder", "noreply@github.com", "hello@github.com", "noreply@google.com",
			"targetjobs", "fivesurveys", "5surveys", "apple.com", "icloud", "accounts.google",
		},
		NegativeSubjects: []string{
			// alerts and marketing
			"job alert", "jobs for you", "new jobs", "hiring now", "openings nearby",
			"don't miss these opportunities", "latest update from", "added today:",
			"earn double", "earn rewards", "playing games", "refer a friend", "refer and earn",
			// account security
			"security alert", "security code", "confirm your identity", "verify your candidate",
			"verify your account", "verify your email", "verification code",
			"candidate experience survey", "survey",
			// unfinished applications
			"complete your application", "finish your application", "don't forget to complete",
			"product update", "[product update]",
			"icloud storage", "storage is full",
			"get into teaching", "initial teaching training",
		},
		PositivePhrases: []string{
			// confirmations
			"thank you for applying", "thank you for your application", "thanks for applying",
			"application received", "we received your application", "we have received your application",
			"we've received your application", "we have received your resume", "we've received your resume",
			"successfully submitted", "application confirmed", "application has been submitted",
			// interviews
			"invite you to interview", "invitation to interview", "interview invitation",
			"schedule an interview", "schedule a call", "phone screen", "video interview",
			"technical interview", "prescreen interview",
			// assessments
			"coding challenge", "take-home assignment", "online assessment", "complete this assessment",
			"hackerrank", "codility", "codesignal",
			// rejections
			"unsuccessful application", "unfortunately", "we regret to inform", "not moving forward",
			"decided not to move forward", "will not be proceeding", "not be proceeding",
			"position has been filled", "decided to pursue other candidates", "not selected",
			"another candidate",
			// offers
			"pleased to offer you", "offer of employment", "job offer", "extend an offer",
		},
		ActionKeywords: []string{
			"start test", "start assessment", "take the test", "take test",
			"coding challenge", "hackerrank", "codility", "codesignal",
			"schedule interview", "schedule a call", "book a time",
			"view application", "check status", "accept offer", "sign offer",
		},
		JobQuery: strings.Join(strings.Fields(`
(from:noreply OR from:no-reply OR from:careers OR from:recruiting OR
from:talent OR from:jobs OR from:hiring OR from:hr OR from:applications OR
from:workday OR from:myworkday OR from:greenhouse OR from:lever OR from:icims OR from:taleo OR
from:smartrecruiters OR from:jobvite OR from:ripplehire OR from:applytojob OR from:ashby OR from:breezy OR
from:successfactors OR from:avature)
subject:(application OR applied OR interview OR assessment OR position OR role OR
confirmed OR received OR resume OR thank OR opportunity OR update OR unfortunately OR regret)`), " "),
	}
}

// LoadRules reads a YAML rules file. Lists missing from the file keep their defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var fileRules Rules
	if err := yaml.Unmarshal(data, &fileRules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	if fileRules.IgnoredSenders != nil {
		rules.IgnoredSenders = fileRules.IgnoredSenders
	}
	if fileRules.NegativeSubjects != nil {
		rules.NegativeSubjects = fileRules.NegativeSubjects
	}
	if fileRules.PositivePhrases != nil {
		rules.PositivePhrases = fileRules.PositivePhrases
	}
	if fileRules.ActionKeywords != nil {
		rules.ActionKeywords = fileRules.ActionKeywords
	}
	if strings.TrimSpace(fileRules.JobQuery) != "" {
		rules.JobQuery = strings.Join(strings.Fields(fileRules.JobQuery), " ")
	}

	return rules, nil
}

// GetRules loads the rules referenced by rules.file
func (c *Config) GetRules() (Rules, error) {
	return LoadRules(c.GetString("rules.file"))
}
