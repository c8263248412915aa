package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/codecontext-mcp/project"
	"github.com/lexandro/codecontext-mcp/relevance"
	"github.com/lexandro/codecontext-mcp/workspace"
)

const defaultRankLimit = 20

// RankArgs defines the input parameters for the context_rank tool.
type RankArgs struct {
	Query string `json:"query" jsonschema:"Free-text request to score workspace files against"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of files to return (default 20)"`
}

// RankHandler scores workspace files with the relevance index, without a model call.
type RankHandler struct {
	Workspace *workspace.Workspace
	Index     *relevance.CachedIndex
	HashMode  project.HashMode
	Logger    *slog.Logger
}

// Handle processes a context_rank request.
func (h *RankHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RankArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Query == "" {
		h.Logger.Warn("context_rank called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultRankLimit
	}

	files := h.Workspace.Snapshot()
	hashMode := h.HashMode
	if hashMode == "" {
		hashMode = project.HashBySize
	}
	idx, err := h.Index.GetIndex(ctx, files, files.HashWith(hashMode))
	if err != nil {
		h.Logger.Error("context_rank failed", "query", args.Query, "error", err)
		return errorResult(fmt.Sprintf("Index error: %v", err)), nil, nil
	}

	scores := idx.Score(args.Query, h.Workspace.RecentChanges(defaultRecentLimit))
	total := len(scores)
	if len(scores) > limit {
		scores = scores[:limit]
	}

	h.Logger.Info("context_rank",
		"query", args.Query,
		"scored", total,
		"indexed", idx.Size(),
		"elapsed", time.Since(start),
	)

	return textResult(FormatScores(scores, total)), nil, nil
}
