package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/codecontext-mcp/workspace"
)

// ReindexArgs defines the input parameters for the context_reindex tool.
type ReindexArgs struct{}

// ReindexFunc reloads the workspace and drops derived state.
// It is provided by main.go to avoid circular dependencies.
type ReindexFunc func(ctx context.Context) (workspace.LoadResult, error)

// ReindexHandler holds the dependencies for the reindex tool.
type ReindexHandler struct {
	DoReindex ReindexFunc
	Logger    *slog.Logger
}

// Handle processes a context_reindex request.
func (h *ReindexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReindexArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("context_reindex started")

	result, err := h.DoReindex(ctx)
	if err != nil {
		h.Logger.Error("context_reindex failed", "error", err)
		return errorResult(fmt.Sprintf("Reindex error: %v", err)), nil, nil
	}

	h.Logger.Info("context_reindex complete",
		"files", result.Files,
		"totalSize", result.Bytes,
		"skipped", result.Skipped,
		"elapsed", result.Duration,
	)

	output := fmt.Sprintf("reindexed: %d files (%s) in %s",
		result.Files, formatFileSize(result.Bytes), result.Duration.Round(time.Millisecond))
	if result.Skipped > 0 {
		output += fmt.Sprintf(", %d skipped", result.Skipped)
	}

	return textResult(output), nil, nil
}
