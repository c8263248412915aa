package ranker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	ooption "github.com/openai/openai-go/option"
)

// OpenAI ranks through the Chat Completions API of OpenAI or a compatible endpoint.
type OpenAI struct {
	client  openai.Client
	options Options
}

func newOpenAI(options Options) *OpenAI {
	opts := []ooption.RequestOption{ooption.WithAPIKey(strings.TrimSpace(options.APIKey))}
	if strings.TrimSpace(options.BaseURL) != "" {
		opts = append(opts, ooption.WithBaseURL(strings.TrimSpace(options.BaseURL)))
	}
	return &OpenAI{client: openai.NewClient(opts...), options: options}
}

// Rank sends prompt as a user message and returns the first choice's content.
func (o *OpenAI) Rank(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.options.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(o.options.System); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(strings.TrimSpace(o.options.Model)),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(o.options.MaxOutputTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.New("openai returned empty content")
	}
	return content, nil
}
