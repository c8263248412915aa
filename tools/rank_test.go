package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/lexandro/codecontext-mcp/cache"
	"github.com/lexandro/codecontext-mcp/relevance"
)

func newTestRankHandler(t *testing.T) *RankHandler {
	t.Helper()
	w := newTestWorkspace(t, map[string]string{
		"auth/login.ts":  "import { hash } from '../crypto/hash'\nexport function login() {}\n",
		"crypto/hash.ts": "export const hash = (s: string) => s\n",
		"ui/button.tsx":  "export default function Button() {}\n",
	})
	store := cache.New[*relevance.Index](cache.Options{SweepInterval: -1})
	t.Cleanup(store.Close)
	return &RankHandler{
		Workspace: w,
		Index:     relevance.NewCachedIndex(relevance.CachedIndexOptions{Store: store}),
		Logger:    discardLogger(),
	}
}

func Test_RankHandler_EmptyQuery(t *testing.T) {
	h := newTestRankHandler(t)

	result, _, err := h.Handle(context.Background(), nil, RankArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for empty query")
	}
}

func Test_RankHandler_Scores(t *testing.T) {
	h := newTestRankHandler(t)

	result, _, _ := h.Handle(context.Background(), nil, RankArgs{Query: "login"})
	if result.IsError {
		t.Fatalf("expected success, got: %s", resultText(t, result))
	}

	text := resultText(t, result)
	if !strings.Contains(text, "  1. 27  auth/login.ts") {
		t.Errorf("expected auth/login.ts ranked first with 27, got:\n%s", text)
	}
}

func Test_RankHandler_LimitAndReuse(t *testing.T) {
	h := newTestRankHandler(t)

	result, _, _ := h.Handle(context.Background(), nil, RankArgs{Query: "login hash", Limit: 1})
	text := resultText(t, result)
	if !strings.HasPrefix(text, "Top 1 of 3 scored files") {
		t.Errorf("expected limit applied, got:\n%s", text)
	}

	h.Handle(context.Background(), nil, RankArgs{Query: "button"})
	if h.Index.Rebuilds() != 1 {
		t.Errorf("expected the index to be built once, got %d", h.Index.Rebuilds())
	}
}
