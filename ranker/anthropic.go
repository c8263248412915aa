package ranker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic ranks through the Anthropic Messages API.
type Anthropic struct {
	client  anthropic.Client
	options Options
}

func newAnthropic(options Options) *Anthropic {
	opts := []aoption.RequestOption{aoption.WithAPIKey(strings.TrimSpace(options.APIKey))}
	if strings.TrimSpace(options.BaseURL) != "" {
		opts = append(opts, aoption.WithBaseURL(strings.TrimSpace(options.BaseURL)))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), options: options}
}

// Rank sends prompt as a single user message and returns the concatenated text blocks.
func (a *Anthropic) Rank(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.options.Timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(strings.TrimSpace(a.options.Model)),
		MaxTokens:   int64(a.options.MaxOutputTokens),
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system := strings.TrimSpace(a.options.System); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", errors.New("anthropic returned no text")
	}
	return text.String(), nil
}
