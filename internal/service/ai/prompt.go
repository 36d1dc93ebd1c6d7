package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// OffTopicReply is the fixed redirect the model is told to return for
// answers unrelated to the summary.
const OffTopicReply = "This answer is unrelated to the topic discussed. Please stay focused on the concepts covered in the lecture."

const openingTemplate = `You are a strict technical interviewer. Ask ONE specific technical question strictly based on the content of this summary:

SUMMARY:
{summary}

Do NOT introduce unrelated concepts. Keep it concise and focused.`

const followupTemplate = `You are a technical interviewer. Evaluate the candidate's answer in detail.

If the answer is off-topic or irrelevant (e.g., a name or nonsense), respond with:
"{off_topic_reply}"

Otherwise:
- Provide technical feedback
- Ask exactly ONE follow-up question tied to the original summary.

SUMMARY:
{summary}

CANDIDATE ANSWER:
"{answer}"

Respond with only feedback and a relevant follow-up.`

// PromptBuilder renders the interviewer instructions. The constraints in the
// templates are instructions to the model only; nothing checks the output.
type PromptBuilder struct {
	opening  prompt.ChatTemplate
	followup prompt.ChatTemplate
}

// NewPromptBuilder returns a builder backed by the default templates.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		opening:  prompt.FromMessages(schema.FString, schema.UserMessage(openingTemplate)),
		followup: prompt.FromMessages(schema.FString, schema.UserMessage(followupTemplate)),
	}
}

// Opening builds the prompt asking for the first question about summary.
func (b *PromptBuilder) Opening(ctx context.Context, summary string) (string, error) {
	return render(ctx, b.opening, map[string]any{
		"summary": summary,
	})
}

// Followup builds the prompt asking for feedback on answer and one follow-up question.
func (b *PromptBuilder) Followup(ctx context.Context, summary, answer string) (string, error) {
	return render(ctx, b.followup, map[string]any{
		"summary":         summary,
		"answer":          answer,
		"off_topic_reply": OffTopicReply,
	})
}

func render(ctx context.Context, tpl prompt.ChatTemplate, vars map[string]any) (string, error) {
	messages, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("failed to format prompt: %w", err)
	}

	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n"), nil
}
