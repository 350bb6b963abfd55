package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/app-tracker/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

var prompt = core.Prompt{System: "Return JSON", User: "Subject: hi", MaxTokens: 300}

func TestBackendComplete(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		response string
		want     string
		field    string
	}{
		{
			name:     "anthropic messages api",
			model:    "anthropic.claude-3-haiku-20240307-v1:0",
			response: `{"content": [{"type": "text", "text": "{\"company\": \"Acme\"}"}]}`,
			want:     `{"company": "Acme"}`,
			field:    "anthropic_version",
		},
		{
			name:     "inference profile id",
			model:    "us.anthropic.claude-3-5-sonnet-20240620-v1:0",
			response: `{"content": [{"type": "text", "text": "ok"}]}`,
			want:     "ok",
			field:    "messages",
		},
		{
			name:     "titan",
			model:    "amazon.titan-text-express-v1",
			response: `{"results": [{"outputText": "titan says"}]}`,
			want:     "titan says",
			field:    "inputText",
		},
		{
			name:     "llama",
			model:    "meta.llama3-8b-instruct-v1:0",
			response: `{"generation": "llama says"}`,
			want:     "llama says",
			field:    "max_gen_len",
		},
		{
			name:     "generic",
			model:    "mistral.mistral-7b-instruct-v0:2",
			response: `{"text": "generic says"}`,
			want:     "generic says",
			field:    "max_tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{body: tt.response}
			got, err := NewBackend(inv, nil).Complete(context.Background(), prompt, tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.NotNil(t, inv.input)
			assert.Equal(t, tt.model, *inv.input.ModelId)

			var payload map[string]interface{}
			require.NoError(t, json.Unmarshal(inv.input.Body, &payload))
			assert.Contains(t, payload, tt.field)
		})
	}
}

func TestBackendErrors(t *testing.T) {
	t.Run("invoke failure", func(t *testing.T) {
		_, err := NewBackend(&fakeInvoker{err: errors.New("throttled")}, nil).Complete(context.Background(), prompt, "amazon.titan-text-express-v1")
		assert.ErrorContains(t, err, "throttled")
	})

	t.Run("titan without results", func(t *testing.T) {
		_, err := NewBackend(&fakeInvoker{body: `{"results": []}`}, nil).Complete(context.Background(), prompt, "amazon.titan-text-express-v1")
		assert.Error(t, err)
	})
}
