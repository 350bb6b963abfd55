package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikey/app-tracker/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendFunc func(ctx context.Context, prompt core.Prompt, model string) (string, error)

func (f backendFunc) Complete(ctx context.Context, prompt core.Prompt, model string) (string, error) {
	return f(ctx, prompt, model)
}

func failing(err error) backendFunc {
	return func(context.Context, core.Prompt, string) (string, error) {
		return "", err
	}
}

func answering(content string) backendFunc {
	return func(context.Context, core.Prompt, string) (string, error) {
		return content, nil
	}
}

func testEmail() *core.NormalizedEmail {
	return &core.NormalizedEmail{
		ID:           "msg-1",
		Subject:      "Your application for the Platform Engineer position",
		From:         "Acme <careers@acme.com>",
		SenderEmail:  "careers@acme.com",
		SenderDomain: "acme.com",
		Body:         "Thank you for applying. We have received your application.",
		ActionLinks:  []string{"https://acme.com/portal/status"},
	}
}

func TestCascade(t *testing.T) {
	t.Run("first successful step wins", func(t *testing.T) {
		var prompts []core.Prompt
		second := func(_ context.Context, p core.Prompt, model string) (string, error) {
			prompts = append(prompts, p)
			return `Sure! {"company": "Acme", "role": "Backend Engineer", "status": "interview", "confidence": 0.95, "reasoning": "invite"}`, nil
		}

		c := NewCascade([]Step{
			{Provider: "openai", Model: "m1", Backend: failing(errors.New("rate limited"))},
			{Provider: "openai", Model: "m2", Backend: backendFunc(second)},
			{Provider: "gemini", Model: "m3", Backend: failing(errors.New("must not be called"))},
		}, nil, nil, nil)

		result, attempts := c.ClassifyWithTrace(context.Background(), testEmail())
		require.Len(t, attempts, 2)
		assert.Error(t, attempts[0].Err)
		assert.NoError(t, attempts[1].Err)
		assert.Equal(t, "m2", attempts[1].Model)

		assert.Equal(t, core.SourceAI, result.Source)
		assert.Equal(t, "Acme", result.Company)
		assert.Equal(t, "Backend Engineer", result.Role)
		assert.Equal(t, core.StatusInterview, result.Status)
		assert.Equal(t, 0.95, result.Confidence)
		assert.Equal(t, "invite (model=m2)", result.Reasoning)
		assert.Equal(t, "https://acme.com/portal/status", result.ActionLink)

		require.Len(t, prompts, 1)
		assert.Equal(t, SystemPrompt, prompts[0].System)
		assert.Equal(t, 300, prompts[0].MaxTokens)
		assert.Contains(t, prompts[0].User, "Subject: Your application for the Platform Engineer position")
	})

	t.Run("placeholders in the model answer are repaired", func(t *testing.T) {
		c := NewCascade([]Step{
			{Provider: "openai", Model: "m1", Backend: answering(`{"company": "N/A", "role": "unknown", "status": "maybe"}`)},
		}, nil, nil, nil)

		result := c.Classify(context.Background(), testEmail())
		assert.Equal(t, "acme.com", result.Company)
		assert.Equal(t, "Platform Engineer", result.Role)
		assert.Equal(t, core.StatusApplied, result.Status)
		assert.Equal(t, 0.8, result.Confidence)
		assert.Equal(t, "LLM classification (model=m1)", result.Reasoning)
	})

	t.Run("offer is accepted from a model", func(t *testing.T) {
		c := NewCascade([]Step{
			{Provider: "openai", Model: "m1", Backend: answering(`{"company": "Acme", "role": "SRE", "status": "Offer", "confidence": 1.7}`)},
		}, nil, nil, nil)

		result := c.Classify(context.Background(), testEmail())
		assert.Equal(t, core.StatusOffer, result.Status)
		assert.Equal(t, 1.0, result.Confidence)
	})

	t.Run("unparseable answers fall through to the phrase classifier", func(t *testing.T) {
		c := NewCascade([]Step{
			{Provider: "openai", Model: "m1", Backend: answering("I cannot help with that")},
			{Provider: "gemini", Model: "m2", Backend: answering("")},
		}, nil, nil, nil)

		result, attempts := c.ClassifyWithTrace(context.Background(), testEmail())
		require.Len(t, attempts, 2)
		assert.ErrorIs(t, attempts[0].Err, ErrNoJSON)
		assert.ErrorIs(t, attempts[1].Err, ErrEmptyResponse)

		assert.Equal(t, core.SourcePhrases, result.Source)
		assert.Equal(t, core.StatusApplied, result.Status)
		assert.Empty(t, result.ActionLink)
	})

	t.Run("an empty object moves on to the next step", func(t *testing.T) {
		c := NewCascade([]Step{
			{Provider: "openai", Model: "m1", Backend: answering("```json\n{}\n```")},
			{Provider: "openai", Model: "m2", Backend: answering(`{"company": "Acme", "role": "SRE", "status": "Interview", "confidence": 0.9}`)},
		}, nil, nil, nil)

		result, attempts := c.ClassifyWithTrace(context.Background(), testEmail())
		require.Len(t, attempts, 2)
		assert.ErrorIs(t, attempts[0].Err, ErrEmptyResponse)
		assert.NoError(t, attempts[1].Err)
		assert.Equal(t, core.SourceAI, result.Source)
		assert.Equal(t, core.StatusInterview, result.Status)
		assert.Equal(t, "Acme", result.Company)
	})

	t.Run("a panicking backend counts as a failed step", func(t *testing.T) {
		boom := func(context.Context, core.Prompt, string) (string, error) {
			panic("boom")
		}
		c := NewCascade([]Step{
			{Provider: "bedrock", Model: "m1", Backend: backendFunc(boom)},
			{Provider: "openai", Model: "m2", Backend: answering(`{"company": "Acme", "role": "Engineer II", "status": "Applied"}`)},
		}, nil, nil, nil)

		result, attempts := c.ClassifyWithTrace(context.Background(), testEmail())
		require.Len(t, attempts, 2)
		assert.Error(t, attempts[0].Err)
		assert.Equal(t, core.SourceAI, result.Source)
	})

	t.Run("each step is bounded by the request timeout", func(t *testing.T) {
		slow := func(ctx context.Context, _ core.Prompt, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}
		c := NewCascade([]Step{
			{Provider: "openai", Model: "m1", Backend: backendFunc(slow)},
		}, nil, nil, nil, WithRequestTimeout(10*time.Millisecond))

		result, attempts := c.ClassifyWithTrace(context.Background(), testEmail())
		require.Len(t, attempts, 1)
		assert.ErrorIs(t, attempts[0].Err, context.DeadlineExceeded)
		assert.Equal(t, core.SourcePhrases, result.Source)
	})

	t.Run("empty chain uses phrases only", func(t *testing.T) {
		c := NewCascade(nil, nil, nil, nil)

		result, attempts := c.ClassifyWithTrace(context.Background(), testEmail())
		assert.Empty(t, attempts)
		assert.Equal(t, core.SourcePhrases, result.Source)
		assert.Empty(t, c.Steps())
	})

	t.Run("body is truncated before prompting", func(t *testing.T) {
		var user string
		capture := func(_ context.Context, p core.Prompt, _ string) (string, error) {
			user = p.User
			return `{"company": "Acme", "role": "Engineer", "status": "Applied"}`, nil
		}
		email := testEmail()
		email.Body = "0123456789ABCDEFGHIJ"

		c := NewCascade([]Step{{Provider: "openai", Model: "m1", Backend: backendFunc(capture)}},
			nil, nil, nil, WithMaxBodySize(10))
		c.Classify(context.Background(), email)

		assert.Contains(t, user, "0123456789")
		assert.NotContains(t, user, "ABCDEFGHIJ")
	})

	t.Run("body truncation counts characters", func(t *testing.T) {
		var user string
		capture := func(_ context.Context, p core.Prompt, _ string) (string, error) {
			user = p.User
			return `{"company": "Acme", "role": "Engineer", "status": "Applied"}`, nil
		}
		email := testEmail()
		email.Body = "ÉÉÉÉÉÉÉÉÉÉüüüüü"

		c := NewCascade([]Step{{Provider: "openai", Model: "m1", Backend: backendFunc(capture)}},
			nil, nil, nil, WithMaxBodySize(10))
		c.Classify(context.Background(), email)

		assert.Contains(t, user, "ÉÉÉÉÉÉÉÉÉÉ")
		assert.NotContains(t, user, "ü")
	})
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		company string
	}{
		{name: "plain object", content: `{"company": "Acme"}`, company: "Acme"},
		{name: "fenced object", content: "```json\n{\"company\": \"Globex\"}\n```", company: "Globex"},
		{name: "nested object as a whole", content: `{"company": "Hooli", "meta": {"a": 1}}`, company: "Hooli"},
		{name: "empty", content: "  \n", wantErr: ErrEmptyResponse},
		{name: "empty object", content: "{}", wantErr: ErrEmptyResponse},
		{name: "empty object in prose", content: "Here you go: {} done", wantErr: ErrEmptyResponse},
		{name: "prose", content: "no json here", wantErr: ErrNoJSON},
		{name: "null", content: "null", wantErr: ErrNoJSON},
		{name: "broken object", content: `{"company": }`, wantErr: ErrNoJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ParseResponse(tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.company, data["company"])
		})
	}
}
