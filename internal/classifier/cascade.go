package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/app-tracker/internal/core"
	"github.com/mikey/app-tracker/internal/utils"
	"go.uber.org/zap"
)

// Step is one provider/model pair in the fallback chain
type Step struct {
	Provider string
	Model    string
	Backend  core.GenerationBackend
}

// Name returns the step as "provider:model"
func (s Step) Name() string {
	return s.Provider + ":" + s.Model
}

// Attempt records the outcome of one step for a single email
type Attempt struct {
	Provider string
	Model    string
	Err      error
	Duration time.Duration
}

// Cascade tries each step in order and falls back to phrase classification
// when every step fails. Classify never returns an error.
type Cascade struct {
	steps         []Step
	phrases       *PhraseClassifier
	textProcessor *utils.TextProcessor
	logger        *zap.Logger

	maxBodySize    int
	maxTokens      int
	temperature    float32
	requestTimeout time.Duration
}

// Option configures a Cascade
type Option func(*Cascade)

// WithMaxBodySize sets the number of body characters included in a prompt
func WithMaxBodySize(n int) Option {
	return func(c *Cascade) { c.maxBodySize = n }
}

// WithMaxTokens sets the completion token limit
func WithMaxTokens(n int) Option {
	return func(c *Cascade) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) Option {
	return func(c *Cascade) { c.temperature = t }
}

// WithRequestTimeout bounds each step; zero disables the per-step deadline
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Cascade) { c.requestTimeout = d }
}

// NewCascade creates a new classification cascade
func NewCascade(steps []Step, phrases *PhraseClassifier, textProcessor *utils.TextProcessor, logger *zap.Logger, opts ...Option) *Cascade {
	if logger == nil {
		logger = zap.NewNop()
	}
	if phrases == nil {
		phrases = NewPhraseClassifier()
	}
	if textProcessor == nil {
		textProcessor = utils.NewTextProcessor(logger)
	}

	c := &Cascade{
		steps:          steps,
		phrases:        phrases,
		textProcessor:  textProcessor,
		logger:         logger,
		maxBodySize:    3000,
		maxTokens:      300,
		temperature:    0,
		requestTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Steps returns the configured chain
func (c *Cascade) Steps() []Step {
	return c.steps
}

// Classify implements core.EmailClassifier
func (c *Cascade) Classify(ctx context.Context, email *core.NormalizedEmail) core.ClassificationResult {
	result, _ := c.ClassifyWithTrace(ctx, email)
	return result
}

// ClassifyWithTrace classifies an email and reports every step that was attempted
func (c *Cascade) ClassifyWithTrace(ctx context.Context, email *core.NormalizedEmail) (core.ClassificationResult, []Attempt) {
	attempts := make([]Attempt, 0, len(c.steps))

	if len(c.steps) > 0 {
		body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
		prompt := BuildPrompt(email, body, c.temperature, c.maxTokens)

		for _, step := range c.steps {
			if ctx.Err() != nil {
				break
			}

			start := time.Now()
			result, err := c.try(ctx, step, prompt, email)
			attempts = append(attempts, Attempt{
				Provider: step.Provider,
				Model:    step.Model,
				Err:      err,
				Duration: time.Since(start),
			})

			if err != nil {
				c.logger.Debug("Model failed, trying next",
					zap.String("email_id", email.ID),
					zap.String("step", step.Name()),
					zap.Error(err))
				continue
			}

			c.logger.Debug("Classified by model",
				zap.String("email_id", email.ID),
				zap.String("step", step.Name()),
				zap.String("status", result.Status.String()),
				zap.Float64("confidence", result.Confidence))
			return result, attempts
		}

		c.logger.Info("All models failed, using phrase classification",
			zap.String("email_id", email.ID),
			zap.Int("attempts", len(attempts)))
	}

	return c.phrases.Classify(email), attempts
}

func (c *Cascade) try(ctx context.Context, step Step, prompt core.Prompt, email *core.NormalizedEmail) (result core.ClassificationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	content, err := step.Backend.Complete(ctx, prompt, step.Model)
	if err != nil {
		return core.ClassificationResult{}, err
	}

	data, err := ParseResponse(content)
	if err != nil {
		return core.ClassificationResult{}, err
	}

	return c.buildResult(data, email, step.Model), nil
}
