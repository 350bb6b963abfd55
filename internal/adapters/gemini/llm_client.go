package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Backend is a GenerationBackend using Google Gemini
type Backend struct {
	client *genai.Client
	logger *zap.Logger
}

// NewBackend creates a new Gemini backend
func NewBackend(ctx context.Context, apiKey string, logger *zap.Logger, opts ...option.ClientOption) (*Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Backend{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Gemini client
func (b *Backend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// Complete generates a JSON response for the prompt with the named model
func (b *Backend) Complete(ctx context.Context, prompt core.Prompt, model string) (string, error) {
	m := b.client.GenerativeModel(model)
	m.SetTemperature(prompt.Temperature)
	if prompt.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(prompt.MaxTokens))
	}
	m.ResponseMIMEType = "application/json"
	if prompt.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt.User))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with %s: %w", model, err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from %s", model)
	}

	b.logger.Debug("Gemini response received", zap.String("model", model), zap.Int("length", len(text)))
	return text, nil
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
