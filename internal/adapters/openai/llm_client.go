package openai

import (
	"context"
	"fmt"
	"math"

	"github.com/mikey/app-tracker/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Backend is a GenerationBackend for OpenAI-compatible chat completion APIs such as Groq
type Backend struct {
	client *openai.Client
	logger *zap.Logger
}

// NewBackend creates a backend for the API at baseURL; an empty baseURL means api.openai.com
func NewBackend(apiKey, baseURL string, logger *zap.Logger) *Backend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Backend{
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

// Complete sends the prompt as a system and user message pair
func (b *Backend) Complete(ctx context.Context, prompt core.Prompt, model string) (string, error) {
	// A zero temperature is dropped by omitempty and the server default applies
	temperature := prompt.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt.User,
			},
		},
		MaxTokens:   prompt.MaxTokens,
		Temperature: temperature,
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with %s: %w", model, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from %s", model)
	}

	b.logger.Debug("Chat completion received",
		zap.String("model", model),
		zap.String("id", resp.ID),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}
