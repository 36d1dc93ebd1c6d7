package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/interviewer/internal/model/interview"
)

// ChatModelCompleter drives an eino chat model (Ark in production) through a
// compiled chain that wraps the prompt in a single user message.
type ChatModelCompleter struct {
	modelName string
	chain     compose.Runnable[string, *schema.Message]
}

// NewChatModelCompleter compiles the prompt → chat model chain.
func NewChatModelCompleter(ctx context.Context, chatModel model.ChatModel, modelName string) (*ChatModelCompleter, error) {
	chain := compose.NewChain[string, *schema.Message]()
	chain.AppendLambda(compose.InvokableLambda(func(_ context.Context, text string) ([]*schema.Message, error) {
		return []*schema.Message{schema.UserMessage(text)}, nil
	}))
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	return &ChatModelCompleter{modelName: modelName, chain: runnable}, nil
}

// Complete implements Completer.
func (c *ChatModelCompleter) Complete(ctx context.Context, prompt string) (Completion, error) {
	started := time.Now()

	msg, err := c.chain.Invoke(ctx, prompt)
	if err != nil {
		return Completion{}, fmt.Errorf("%w: %w", interview.ErrService, err)
	}
	if msg == nil {
		return Completion{}, fmt.Errorf("%w: empty response from chat model", interview.ErrService)
	}

	result := Completion{Content: msg.Content}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		result.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
		result.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
	}

	logCompletion("ark", c.modelName, result, started)
	return result, nil
}
