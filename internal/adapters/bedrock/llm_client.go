package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

// ModelInvoker is the subset of the Bedrock runtime client the backend uses
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Backend is a GenerationBackend using Amazon Bedrock
type Backend struct {
	client ModelInvoker
	logger *zap.Logger
}

// NewBackend creates a backend around an existing Bedrock client
func NewBackend(client ModelInvoker, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		client: client,
		logger: logger,
	}
}

// NewBackendFromRegion loads the default AWS credential chain for region
func NewBackendFromRegion(ctx context.Context, region string, logger *zap.Logger) (*Backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewBackend(bedrockruntime.NewFromConfig(awsCfg), logger), nil
}

type modelFamily int

const (
	familyGeneric modelFamily = iota
	familyAnthropic
	familyTitan
	familyLlama
)

// familyOf also accepts cross-region inference profile IDs such as us.anthropic.claude-...
func familyOf(modelID string) modelFamily {
	switch {
	case strings.Contains(modelID, "anthropic.claude"):
		return familyAnthropic
	case strings.Contains(modelID, "amazon.titan"):
		return familyTitan
	case strings.Contains(modelID, "meta.llama"):
		return familyLlama
	default:
		return familyGeneric
	}
}

// Complete invokes the model with a payload in its family's native format
func (b *Backend) Complete(ctx context.Context, prompt core.Prompt, model string) (string, error) {
	family := familyOf(model)

	payload, err := buildPayload(family, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model %s: %w", model, err)
	}

	text, err := parseOutput(family, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", model, err)
	}

	b.logger.Debug("Bedrock response received", zap.String("model", model), zap.Int("length", len(text)))
	return text, nil
}

func buildPayload(family modelFamily, prompt core.Prompt) ([]byte, error) {
	combined := prompt.User
	if prompt.System != "" {
		combined = prompt.System + "\n\n" + prompt.User
	}

	switch family {
	case familyAnthropic:
		return json.Marshal(map[string]interface{}{
			"anthropic_version": "bedrock-2023-05-31",
			"max_tokens":        prompt.MaxTokens,
			"temperature":       prompt.Temperature,
			"system":            prompt.System,
			"messages": []map[string]interface{}{
				{"role": "user", "content": prompt.User},
			},
		})
	case familyTitan:
		return json.Marshal(map[string]interface{}{
			"inputText": combined,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": prompt.MaxTokens,
				"temperature":   prompt.Temperature,
			},
		})
	case familyLlama:
		return json.Marshal(map[string]interface{}{
			"prompt":      combined,
			"max_gen_len": prompt.MaxTokens,
			"temperature": prompt.Temperature,
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      combined,
			"max_tokens":  prompt.MaxTokens,
			"temperature": prompt.Temperature,
		})
	}
}

func parseOutput(family modelFamily, body []byte) (string, error) {
	switch family {
	case familyAnthropic:
		var resp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", err
		}
		var b strings.Builder
		for _, c := range resp.Content {
			if c.Type == "text" {
				b.WriteString(c.Text)
			}
		}
		return b.String(), nil

	case familyTitan:
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", err
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("no results")
		}
		return resp.Results[0].OutputText, nil

	case familyLlama:
		var resp struct {
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", err
		}
		return resp.Generation, nil

	default:
		var resp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Response   string `json:"response"`
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return string(body), nil
		}
		for _, v := range []string{resp.Output, resp.Text, resp.Response, resp.Completion} {
			if v != "" {
				return v, nil
			}
		}
		return string(body), nil
	}
}
