package tools

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/codecontext-mcp/ignore"
	"github.com/lexandro/codecontext-mcp/workspace"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestWorkspace writes files under a temp root and loads them.
func newTestWorkspace(t *testing.T, files map[string]string) *workspace.Workspace {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	w, err := workspace.New(workspace.Options{
		RootDir: root,
		Ignore:  ignore.NewMatcher(ignore.MatcherOptions{RootDir: root}),
		Workers: 2,
		Logger:  discardLogger(),
	})
	if err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	if _, err := w.Load(context.Background()); err != nil {
		t.Fatalf("failed to load workspace: %v", err)
	}
	return w
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in tool result")
	}
	return result.Content[0].(*mcp.TextContent).Text
}
