package classifier

import (
	"fmt"

	"github.com/mikey/app-tracker/internal/core"
)

// SystemPrompt is sent with every extraction request
const SystemPrompt = "Extract job application details. Return ONLY valid JSON."

const promptFormat = `Analyze this job application email and extract information.

EXTRACT CAREFULLY:
1. COMPANY: The actual company name (not email platform like Workday, RippleHire)
2. ROLE: The EXACT job title mentioned
3. STATUS: Based on email content
4. ACTION_LINK: The most relevant action link from the email.

STATUS DETERMINATION:
- Applied = application received / confirmed
- Assessment = coding challenge / test
- Interview = interview scheduled
- Offer = offer extended
- Rejected = not moving forward

EMAIL:
Subject: %s
From: %s
Body:
%s

Return ONLY valid JSON:
{"company": "company name", "role": "exact job title", "status": "Applied|Assessment|Interview|Offer|Rejected", "confidence": 0.9, "reasoning": "brief reason", "action_link": "url"}`

// BuildPrompt renders the extraction prompt for an email whose body is already truncated
func BuildPrompt(email *core.NormalizedEmail, body string, temperature float32, maxTokens int) core.Prompt {
	return core.Prompt{
		System:      SystemPrompt,
		User:        fmt.Sprintf(promptFormat, email.Subject, email.From, body),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}
