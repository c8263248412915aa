package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lexandro/codecontext-mcp/workspace"
)

func Test_ReindexHandler_Success(t *testing.T) {
	h := &ReindexHandler{
		DoReindex: func(ctx context.Context) (workspace.LoadResult, error) {
			return workspace.LoadResult{Files: 42, Bytes: 1024 * 1024, Skipped: 3, Duration: 1500 * time.Millisecond}, nil
		},
		Logger: discardLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	if text != "reindexed: 42 files (1.0 MB) in 1.5s, 3 skipped" {
		t.Errorf("unexpected output: %s", text)
	}
}

func Test_ReindexHandler_Error(t *testing.T) {
	h := &ReindexHandler{
		DoReindex: func(ctx context.Context) (workspace.LoadResult, error) {
			return workspace.LoadResult{}, fmt.Errorf("disk full")
		},
		Logger: discardLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for failed reindex")
	}
	if text := resultText(t, result); !strings.Contains(text, "disk full") {
		t.Errorf("expected error message 'disk full', got: %s", text)
	}
}
