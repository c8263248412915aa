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
	"github.com/lexandro/codecontext-mcp/selection"
	"github.com/lexandro/codecontext-mcp/workspace"
)

// defaultRecentLimit caps how many watcher-recorded changes are passed to the pipeline.
const defaultRecentLimit = 10

// TurnArg is one prior conversation turn.
type TurnArg struct {
	Role         string   `json:"role" jsonschema:"user or assistant"`
	Text         string   `json:"text" jsonschema:"Text of the turn"`
	ChangedPaths []string `json:"changedPaths,omitempty" jsonschema:"Relative paths the turn created or edited"`
}

// SelectArgs defines the input parameters for the context_select tool.
type SelectArgs struct {
	Query        string    `json:"query,omitempty" jsonschema:"User request to select files for. Defaults to the latest user turn"`
	Turns        []TurnArg `json:"turns,omitempty" jsonschema:"Prior conversation turns, oldest first"`
	Buffer       []string  `json:"buffer,omitempty" jsonschema:"Relative paths already in context; kept unless the selection excludes them"`
	ChangedPaths []string  `json:"changedPaths,omitempty" jsonschema:"Additional recently changed relative paths"`
	Render       bool      `json:"render,omitempty" jsonschema:"If true append the selected files serialized within the token budget"`
	Budget       int       `json:"budget,omitempty" jsonschema:"Token budget for the rendered block (default from configuration)"`
}

// SelectHandler runs the selection pipeline over the current workspace snapshot.
type SelectHandler struct {
	Workspace      *workspace.Workspace
	Pipeline       *selection.Pipeline
	RenderDefaults render.Options
	RecentLimit    int
	Logger         *slog.Logger
}

// Handle processes a context_select request.
func (h *SelectHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SelectArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	request := selection.Request{
		Query:           args.Query,
		Turns:           toTurns(args.Turns),
		Files:           h.Workspace.Snapshot(),
		Buffer:          args.Buffer,
		RecentlyChanged: append(append([]string(nil), args.ChangedPaths...), h.Workspace.RecentChanges(h.recentLimit())...),
	}
	if strings.TrimSpace(request.Query) == "" && project.LatestUserQuery(request.Turns) == "" {
		h.Logger.Warn("context_select called without a query")
		return errorResult("Error: query parameter or a user turn is required"), nil, nil
	}

	result, err := h.Pipeline.Select(ctx, request)
	if err != nil {
		class := selection.Classify(err)
		h.Logger.Error("context_select failed", "class", class, "error", err)
		text := fmt.Sprintf("Selection failed (%s): %v", class, err)
		if selection.IsRetryable(err) {
			text += "\nThe request may succeed if retried."
		}
		return errorResult(text), nil, nil
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Selected %d files", len(result.Paths)))
	if result.CacheHit {
		builder.WriteString(" (cached)")
	} else {
		builder.WriteString(fmt.Sprintf(" from %d candidates (%s)", len(result.Candidates), result.Narrowing))
	}
	builder.WriteString(":\n")
	for _, p := range result.Paths {
		builder.WriteString("  ")
		builder.WriteString(p)
		builder.WriteString("\n")
	}

	tokens := 0
	if args.Render {
		options := h.RenderDefaults
		if args.Budget > 0 {
			options.Budget = args.Budget
		}
		rendered := render.Render(result.Files, options)
		tokens = rendered.Tokens
		builder.WriteString(fmt.Sprintf("\nRendered %d files (~%d tokens):\n", len(rendered.Included), rendered.Tokens))
		formatPathList(&builder, "Truncated", rendered.Truncated)
		formatPathList(&builder, "Dropped", rendered.Dropped)
		builder.WriteString("\n")
		builder.WriteString(rendered.Text)
	}

	h.Logger.Info("context_select",
		"files", len(result.Paths),
		"cacheHit", result.CacheHit,
		"narrowing", result.Narrowing,
		"tokens", tokens,
		"elapsed", time.Since(start),
	)

	return textResult(builder.String()), nil, nil
}

func (h *SelectHandler) recentLimit() int {
	if h.RecentLimit > 0 {
		return h.RecentLimit
	}
	return defaultRecentLimit
}

func toTurns(args []TurnArg) []project.Turn {
	turns := make([]project.Turn, 0, len(args))
	for _, a := range args {
		turns = append(turns, project.Turn{
			Role:         project.Role(strings.ToLower(a.Role)),
			Text:         a.Text,
			ChangedPaths: a.ChangedPaths,
		})
	}
	return turns
}
