package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mikey/app-tracker/internal/core"
)

var (
	// ErrEmptyResponse is returned when a model answers with nothing or an empty object
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrNoJSON is returned when no JSON object can be recovered from a response
	ErrNoJSON = errors.New("no JSON object in model response")
)

var flatObjectPattern = regexp.MustCompile(`\{[^{}]*\}`)

// ParseResponse decodes a model response as a JSON object. The whole trimmed text is
// tried first, then the first brace-delimited object without nested braces.
func ParseResponse(content string) (map[string]interface{}, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(content), &data); err == nil && data != nil {
		return nonEmpty(data)
	}

	match := flatObjectPattern.FindString(content)
	if match == "" {
		return nil, ErrNoJSON
	}
	if err := json.Unmarshal([]byte(match), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJSON, err)
	}

	return nonEmpty(data)
}

// An object without fields carries no classification
func nonEmpty(data map[string]interface{}) (map[string]interface{}, error) {
	if len(data) == 0 {
		return nil, ErrEmptyResponse
	}
	return data, nil
}

func stringField(data map[string]interface{}, key string) string {
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func confidenceField(data map[string]interface{}, fallback float64) float64 {
	var value float64
	switch v := data["confidence"].(type) {
	case float64:
		value = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fallback
		}
		value = parsed
	default:
		return fallback
	}

	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// buildResult normalizes a decoded model response into a classification
func (c *Cascade) buildResult(data map[string]interface{}, email *core.NormalizedEmail, model string) core.ClassificationResult {
	company := stringField(data, "company")
	if core.IsPlaceholder(company) {
		company = email.SenderDomain
		if company == "" {
			company = "Unknown"
		}
	}

	status, ok := core.ParseStatus(stringField(data, "status"))
	if !ok {
		status = core.StatusApplied
	}

	role := stringField(data, "role")
	if core.IsPlaceholder(role) {
		role = c.phrases.ExtractRoleLoose(email.Subject, email.Body)
		if role == "" {
			role = UnknownPosition
		}
	}

	reasoning := stringField(data, "reasoning")
	if reasoning == "" {
		reasoning = "LLM classification"
	}

	return core.ClassificationResult{
		Company:    company,
		Role:       role,
		Status:     status,
		Confidence: confidenceField(data, matchedConfidence),
		Reasoning:  fmt.Sprintf("%s (model=%s)", reasoning, model),
		Source:     core.SourceAI,
		ActionLink: email.FirstActionLink(),
	}
}
