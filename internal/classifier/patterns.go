package classifier

import (
	"regexp"

	"github.com/mikey/app-tracker/internal/core"
)

type statusRule struct {
	status   core.Status
	patterns []*regexp.Regexp
}

// Evaluated in this order; the first status with a matching pattern wins.
func statusRules() []statusRule {
	return []statusRule{
		{
			status: core.StatusRejected,
			patterns: compileAll(
				`\b(not selected|not moving forward|unfortunately|another candidate|not the right fit|wish you the best|will not be proceeding)\b`,
				`\b(thank you for your interest.*but|we regret to inform|after careful consideration)\b`,
				`\b(position has been filled|decided not to proceed|unable to offer)\b`,
			),
		},
		{
			status: core.StatusInterview,
			patterns: compileAll(
				`\b(interview|schedule a call|available times|calendar invite|zoom|google meet|teams meeting)\b`,
				`\b(meet with|speak with|chat with).*?(interviewer|hiring manager|team)\b`,
				`\b(phone screen|video call|on-site|onsite|final round)\b`,
			),
		},
		{
			status: core.StatusAssessment,
			patterns: compileAll(
				`\b(assessment|coding challenge|take-home|assignment|online test|hackerrank|codility)\b`,
				`\b(complete this task|technical screen|skill assessment|codesignal|leetcode)\b`,
			),
		},
		{
			status: core.StatusApplied,
			patterns: compileAll(
				`\b(application received|successfully submitted|thank you for applying|we have received your application)\b`,
				`\b(application confirmation|successfully applied|job application is confirmed)\b`,
				`\b(received your resume|application for the)\b`,
			),
		},
	}
}

// Case-sensitive: company names are expected to be capitalized in running text.
func companyBodyPatterns() []*regexp.Regexp {
	return compileAll(
		`(?:at|with|from|here at)\s+([A-Z][a-zA-Z0-9]+(?:\s+[A-Z][a-zA-Z0-9]+)?)`,
		`([A-Z][a-zA-Z0-9]+(?:\s+[A-Z][a-zA-Z0-9]+)?)\s+(?:team|talent|careers|recruiting)`,
		`interest in (?:the\s+)?(?:\w+\s+)?(?:position|role)?\s*(?:at|with)\s+([A-Z][a-zA-Z0-9]+)`,
	)
}

func companySubjectPatterns() []*regexp.Regexp {
	return compileAll(
		`(?i)application\s+(?:to|for)\s+([A-Z][a-zA-Z0-9]+(?:\s+[A-Z][a-zA-Z0-9]+)?)`,
		`(?i)your\s+(?:job\s+)?application\s+(?:at|with|to)\s+([A-Z][a-zA-Z0-9]+(?:\s+[A-Z][a-zA-Z0-9]+)?)`,
	)
}

var senderDomainPattern = regexp.MustCompile(`@([^.]+)\.`)

const genericRolePattern = `(?i)([A-Za-z\s\-]+(?:Engineer|Developer|Scientist|Analyst|Manager|Intern|Designer|Architect)[A-Za-z\s\-\(\)]*)`

type rolePattern struct {
	re      *regexp.Regexp
	generic bool
}

func phraseRolePatterns() []rolePattern {
	return []rolePattern{
		{re: regexp.MustCompile(`(?i)position of\s+([A-Za-z\s\-\(\)]+?)(?:\s+at|\s+with|\.|,|\n)`)},
		{re: regexp.MustCompile(`(?i)for the\s+([A-Za-z\s\-\(\)]+?)\s+(?:position|role)`)},
		{re: regexp.MustCompile(`(?i)application for (?:the\s+)?([A-Za-z\s\-\(\)]+?)(?:\s+position|\s+role|\s+at|\.|,|\n)`)},
		{re: regexp.MustCompile(genericRolePattern), generic: true},
	}
}

// Used to repair a missing role in a model response. No job-word check applies here.
func secondaryRolePatterns() []*regexp.Regexp {
	return compileAll(
		`(?i)position of\s+([A-Za-z\s\-\(\)]+?)(?:\s+at|\s+with|\.|,|\n)`,
		`(?i)application for (?:the\s+)?([A-Za-z\s\-\(\)]+?)(?:\s+position|\s+role|\s+at|\.|,|\n)`,
		`(?i)for the ([A-Za-z\s\-\(\)]+?)\s+position`,
		genericRolePattern,
	)
}

var jobWords = []string{
	"engineer", "developer", "scientist", "analyst", "manager",
	"intern", "designer", "architect", "lead", "senior", "junior", "graduate",
}

var jobTitles = []string{
	"software engineer", "software developer", "sde", "swe",
	"machine learning engineer", "ml engineer", "mle",
	"data scientist", "data analyst", "data engineer",
	"ai engineer", "ai engineering intern", "ai research engineer", "research engineer", "research scientist",
	"frontend engineer", "frontend developer", "front-end",
	"backend engineer", "backend developer", "back-end",
	"full stack engineer", "full stack developer", "fullstack",
	"devops engineer", "sre", "site reliability",
	"product manager", "program manager", "project manager",
	"solutions architect", "cloud engineer", "cloud architect",
	"qa engineer", "test engineer", "sdet",
	"mobile developer", "ios developer", "android developer",
	"intern", "graduate", "junior", "senior", "staff", "principal", "lead",
}

// Generic words and ATS platforms that the company patterns tend to capture
var companyBlacklist = toSet(
	"the", "a", "an", "our", "your", "hey", "hi", "dear", "us", "me",
	"hire", "hiring", "careers", "recruiting", "talent", "hr", "people",
	"team", "staff", "admin", "support", "info", "contact", "email",
	"application", "position", "role", "job", "vacancy", "opportunity",
	"update", "status", "notification", "alert", "digest", "newsletter",
	"verify", "security", "code", "password", "login", "account",
	"unknown", "company", "client", "employer", "organization", "firm",
	"received", "confirmed", "submitted", "successful", "unsuccessful",
	"applytojob", "myworkday", "workday", "successfactors", "avature",
	"icims", "jobvite", "smartrecruiters", "breezy", "ashby", "via",
	"e", "fivesurveys", "growthassistant", "targetjobs", "getintoteaching",
	"welcome", "confirm", "receipt", "order", "invoice", "payment",
	"subscription", "help",
	"noreply", "no-reply", "mailer", "service", "system", "auto",
)

// Mail providers and ATS domains that never name the employer
var domainBlacklist = toSet(
	"gmail", "yahoo", "outlook", "hotmail", "mail", "no-reply", "noreply",
	"workday", "greenhouse", "lever", "icims", "taleo", "ripplehire",
	"smartrecruiters", "jobvite", "applytojob", "breezy", "ashby", "myworkday",
	"via", "successfactors", "avature", "hire", "recruiting", "careers", "jobs",
	"e", "fivesurveys", "growthassistant", "targetjobs", "getintoteaching",
	"oscar-tech", "involved-solutions",
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(expr)
	}
	return out
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
