package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/codecontext-mcp/project"
	"github.com/lexandro/codecontext-mcp/render"
	"github.com/lexandro/codecontext-mcp/workspace"
)

// RenderArgs defines the input parameters for the context_render tool.
type RenderArgs struct {
	Paths  []string `json:"paths" jsonschema:"Relative file paths to serialize"`
	Budget int      `json:"budget,omitempty" jsonschema:"Token budget (default from configuration)"`
}

// RenderHandler serializes named workspace files within a token budget.
type RenderHandler struct {
	Workspace *workspace.Workspace
	Defaults  render.Options
	Logger    *slog.Logger
}

// Handle processes a context_render request.
func (h *RenderHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RenderArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if len(args.Paths) == 0 {
		h.Logger.Warn("context_render called without paths")
		return errorResult("Error: paths parameter is required"), nil, nil
	}

	files := make(project.Collection, len(args.Paths))
	var missing []string
	for _, p := range args.Paths {
		rel := project.NormalizePath(p)
		content, ok := h.Workspace.Read(rel)
		if !ok {
			missing = append(missing, p)
			continue
		}
		files[rel] = project.FileRecord{Path: rel, Kind: project.KindFile, Content: content}
	}
	if len(files) == 0 {
		return errorResult(fmt.Sprintf("None of the paths are in the workspace: %s", strings.Join(missing, ", "))), nil, nil
	}

	options := h.Defaults
	if args.Budget > 0 {
		options.Budget = args.Budget
	}
	rendered := render.Render(files, options)

	h.Logger.Info("context_render",
		"files", len(rendered.Included),
		"dropped", len(rendered.Dropped),
		"tokens", rendered.Tokens,
		"elapsed", time.Since(start),
	)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Rendered %d files (~%d tokens):\n", len(rendered.Included), rendered.Tokens))
	formatPathList(&builder, "Truncated", rendered.Truncated)
	formatPathList(&builder, "Dropped", rendered.Dropped)
	formatPathList(&builder, "Not found", missing)
	builder.WriteString("\n")
	builder.WriteString(rendered.Text)

	return textResult(builder.String()), nil, nil
}
