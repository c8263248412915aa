package ranker

import (
	"context"
	"strings"
	"testing"
)

func Test_Func_Rank(t *testing.T) {
	var got string
	r := Func(func(ctx context.Context, prompt string) (string, error) {
		got = prompt
		return "ok", nil
	})

	out, err := r.Rank(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" || got != "hello" {
		t.Errorf("unexpected result %q / prompt %q", out, got)
	}
}

func Test_New_MissingAPIKey(t *testing.T) {
	_, err := New(Options{Provider: ProviderAnthropic, Model: "m"})
	if err == nil || !strings.Contains(err.Error(), "api key") {
		t.Errorf("expected missing api key error, got %v", err)
	}
}

func Test_New_MissingModel(t *testing.T) {
	_, err := New(Options{Provider: ProviderOpenAI, APIKey: "k"})
	if err == nil || !strings.Contains(err.Error(), "model") {
		t.Errorf("expected missing model error, got %v", err)
	}
}

func Test_New_UnsupportedProvider(t *testing.T) {
	_, err := New(Options{Provider: "carrier-pigeon", APIKey: "k", Model: "m"})
	if err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func Test_New_Providers(t *testing.T) {
	a, err := New(Options{Provider: "Anthropic", APIKey: "k", Model: "claude"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := a.(*Anthropic); !ok {
		t.Errorf("expected *Anthropic, got %T", a)
	}

	o, err := New(Options{Provider: ProviderOpenAICompatible, APIKey: "k", Model: "gpt", BaseURL: "http://localhost:1234/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	openAI, ok := o.(*OpenAI)
	if !ok {
		t.Fatalf("expected *OpenAI, got %T", o)
	}
	if openAI.options.Timeout != defaultTimeout || openAI.options.MaxOutputTokens != defaultMaxOutputTokens {
		t.Errorf("expected defaults applied, got %+v", openAI.options)
	}
}
