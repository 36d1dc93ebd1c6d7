package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zhouzirui/interviewer/internal/config"
)

// Completion is the text returned by a completion call plus its token usage.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Completer turns a prompt into generated text. Calls block until the
// provider answers; failures are wrapped in interview.ErrService.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// NewCompleter builds the completer for the configured provider.
func NewCompleter(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAICompleter(cfg), nil
	case config.ProviderAnthropic:
		return NewAnthropicCompleter(cfg), nil
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return NewChatModelCompleter(ctx, chatModel, cfg.ArkModel)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

func logCompletion(provider, model string, c Completion, started time.Time) {
	log.Printf("[ai] provider=%s model=%s prompt_tokens=%d completion_tokens=%d latency=%s",
		provider, model, c.PromptTokens, c.CompletionTokens, time.Since(started).Round(time.Millisecond))
}
