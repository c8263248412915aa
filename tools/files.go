package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/codecontext-mcp/workspace"
)

// FilesArgs defines the input parameters for the context_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern" jsonschema:"Glob pattern to match files (e.g. **/*.ts or src/**/*.go)"`
	NameOnly   bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths without metadata"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	Files  *workspace.FileStore
	Logger *slog.Logger
}

// Handle processes a context_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Pattern == "" {
		h.Logger.Warn("context_files called with empty pattern")
		return errorResult("Error: pattern parameter is required"), nil, nil
	}

	files, err := h.Files.Glob(args.Pattern, args.MaxResults)
	if err != nil {
		h.Logger.Error("context_files failed", "pattern", args.Pattern, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("context_files",
		"pattern", args.Pattern,
		"results", len(files),
		"elapsed", time.Since(start),
	)

	return textResult(FormatFileResults(files, args.NameOnly)), nil, nil
}
