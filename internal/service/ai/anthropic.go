package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zhouzirui/interviewer/internal/config"
	"github.com/zhouzirui/interviewer/internal/model/interview"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicCompleter calls the Anthropic Messages API.
type AnthropicCompleter struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewAnthropicCompleter creates a completer from configuration. The Messages
// API requires a token cap, so one is always set.
func NewAnthropicCompleter(cfg config.AIConfig, opts ...option.RequestOption) *AnthropicCompleter {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(0),
	}
	reqOpts = append(reqOpts, opts...)

	maxTokens := int64(defaultAnthropicMaxTokens)
	if cfg.MaxTokens != nil {
		maxTokens = int64(*cfg.MaxTokens)
	}

	return &AnthropicCompleter{
		client:      anthropic.NewClient(reqOpts...),
		model:       cfg.AnthropicModel,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}
}

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string) (Completion, error) {
	started := time.Now()

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("%w: anthropic: %w", interview.ErrService, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	result := Completion{
		Content:          text.String(),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}

	logCompletion("anthropic", c.model, result, started)
	return result, nil
}
