package suggest

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
)

// OpenAISuggester generates description candidates with a chat completion
type OpenAISuggester struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAISuggester creates an OpenAI-backed suggester
func NewOpenAISuggester(apiKey, model string, maxTokens int) *OpenAISuggester {
	if model == "" {
		model = openai.GPT4oMini
	}
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &OpenAISuggester{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Suggest asks the model for an updated one-paragraph tool description
func (s *OpenAISuggester) Suggest(ctx context.Context, t *tool.Tool, diffSlice []integration.FieldChange) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: buildPrompt(t, diffSlice),
		}},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("suggestion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("suggestion response had no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("suggestion response was empty")
	}
	return text, nil
}

func buildPrompt(t *tool.Tool, diffSlice []integration.FieldChange) string {
	var b strings.Builder
	b.WriteString("Rewrite the description of an API tool after a schema change.\n")
	fmt.Fprintf(&b, "Tool name: %s\n", t.Name)
	fmt.Fprintf(&b, "Current description: %s\n", t.Description)
	b.WriteString("Schema changes:\n")
	for _, c := range diffSlice {
		fmt.Fprintf(&b, "- %s\n", c.String())
	}
	b.WriteString("Reply with only the updated description, one short paragraph.")
	return b.String()
}
