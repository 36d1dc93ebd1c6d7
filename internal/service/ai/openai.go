package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zhouzirui/interviewer/internal/config"
	"github.com/zhouzirui/interviewer/internal/model/interview"
)

// OpenAICompleter calls the OpenAI Chat Completions API.
type OpenAICompleter struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   *int
}

// NewOpenAICompleter creates a completer from configuration. Extra request
// options are applied after the configured ones.
func NewOpenAICompleter(cfg config.AIConfig, opts ...option.RequestOption) *OpenAICompleter {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(0),
	}
	if cfg.OpenAIBaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAICompleter{
		client:      openai.NewClient(reqOpts...),
		model:       cfg.OpenAIModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (Completion, error) {
	started := time.Now()

	params := openai.ChatCompletionNewParams{
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, fmt.Errorf("%w: openai: %w", interview.ErrService, err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("%w: openai returned no choices", interview.ErrService)
	}

	result := Completion{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}

	logCompletion("openai", c.model, result, started)
	return result, nil
}
