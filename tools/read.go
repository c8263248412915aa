package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/codecontext-mcp/project"
	"github.com/lexandro/codecontext-mcp/workspace"
)

// ReadArgs defines the input parameters for the context_read tool.
type ReadArgs struct {
	FilePath string `json:"filePath" jsonschema:"Relative file path to read from the workspace (e.g. src/main.go)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"1-based line number to start reading from"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of lines to return"`
}

// ReadHandler holds the dependencies for the read tool.
type ReadHandler struct {
	Content *workspace.ContentIndex
	Logger  *slog.Logger
}

// Handle processes a context_read request.
func (h *ReadHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReadArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.FilePath == "" {
		h.Logger.Warn("context_read called with empty filePath")
		return errorResult("Error: filePath parameter is required"), nil, nil
	}

	filePath := project.NormalizePath(args.FilePath)
	content, ok := h.Content.Content(filePath)
	if !ok {
		h.Logger.Info("context_read file not found", "filePath", filePath)
		return errorResult(fmt.Sprintf("File not found in workspace: %s", args.FilePath)), nil, nil
	}

	h.Logger.Info("context_read", "filePath", filePath, "elapsed", time.Since(start))

	return textResult(FormatFileContent(filePath, content, args.Offset, args.Limit)), nil, nil
}
