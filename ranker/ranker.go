package ranker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Ranker is the external model capability: it takes a prompt and eventually returns text.
// Implementations may fail or time out; they must honor ctx cancellation.
type Ranker interface {
	Rank(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Ranker.
type Func func(ctx context.Context, prompt string) (string, error)

// Rank calls f.
func (f Func) Rank(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Provider names.
const (
	ProviderAnthropic        = "anthropic"
	ProviderOpenAI           = "openai"
	ProviderOpenAICompatible = "openai_compatible"
)

const (
	defaultTimeout         = 60 * time.Second
	defaultMaxOutputTokens = 1024
)

// Options configures a provider-backed Ranker.
type Options struct {
	Provider        string
	Model           string
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	MaxOutputTokens int
	// System is sent as the system prompt.
	System string
}

// New returns a Ranker for the configured provider.
func New(options Options) (Ranker, error) {
	provider := strings.ToLower(strings.TrimSpace(options.Provider))
	if strings.TrimSpace(options.APIKey) == "" {
		return nil, errors.New("missing ranker api key")
	}
	if strings.TrimSpace(options.Model) == "" {
		return nil, errors.New("missing ranker model")
	}
	if options.Timeout <= 0 {
		options.Timeout = defaultTimeout
	}
	if options.MaxOutputTokens <= 0 {
		options.MaxOutputTokens = defaultMaxOutputTokens
	}

	switch provider {
	case ProviderAnthropic:
		return newAnthropic(options), nil
	case ProviderOpenAI, ProviderOpenAICompatible:
		return newOpenAI(options), nil
	default:
		return nil, fmt.Errorf("unsupported ranker provider %q", options.Provider)
	}
}
