package server

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/codecontext-mcp/tools"
)

// Name and Version identify the server to MCP clients.
const (
	Name    = "codecontext-mcp"
	Version = "0.1.0"
)

// Handlers groups the tool handlers registered on the server.
type Handlers struct {
	Select  *tools.SelectHandler
	Render  *tools.RenderHandler
	Rank    *tools.RankHandler
	Search  *tools.SearchHandler
	Files   *tools.FilesHandler
	Read    *tools.ReadHandler
	Status  *tools.StatusHandler
	Reindex *tools.ReindexHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(handlers Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    Name,
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server picks the files of a project that matter for a request and serves them from memory.

Use context_select before answering a request about the project: it returns the relevant file paths and, with render=true, their contents within a token budget.
- Pass prior turns (with changedPaths for files you edited) so follow-up requests keep their context
- Pass buffer with the files already in your context; they are kept unless the selection drops them
- Use context_rank for a quick, model-free relevance ranking
- Use context_search, context_files and context_read to inspect the workspace directly
- The workspace updates automatically when files change (via filesystem watcher)`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "context_select",
		Description: `Select the files relevant to a request. Candidates are narrowed by a relevance index, then one model call decides which to include or exclude.

Results are cached for a few minutes per (request, project state). Failures are reported with a class:
  - ranking_call_failure: the model call failed or timed out (retry)
  - ranking_response_invalid: the model answered in an unexpected shape (retry)
  - empty_selection: nothing relevant was selected`,
	}, handlers.Select.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "context_render",
		Description: "Serialize the named workspace files into one context block that fits a token budget. Oversized files are truncated, files past the budget are dropped.",
	}, handlers.Render.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "context_rank",
		Description: "Score workspace files against a request using path keywords, import/export symbols and recent changes. No model call.",
	}, handlers.Rank.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "context_search",
		Description: `Search file contents using full-text indexed search.

Query formats:
  - Plain text: word-level matching (e.g., "handleRequest")
  - "quoted text": exact phrase matching (e.g., "\"func main\"")
  - /regex/: regular expression matching (e.g., "/func\s+\w+Handler/")

Filtering:
  - filePath: exact relative path to search in a single file (e.g., "src/main.go"). Overrides fileGlob.
  - fileGlob: glob pattern to filter by file type (e.g., "**/*.go").`,
	}, handlers.Search.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "context_files",
		Description: `Find workspace files by glob pattern.

Pattern examples:
  - "**/*.go" - all Go files
  - "src/**/*.ts" - TypeScript files under src/
  - "*.json" - JSON files in root only`,
	}, handlers.Files.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "context_read",
		Description: `Read a file's contents from memory. Returns numbered lines; offset and limit select a line range.`,
	}, handlers.Read.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "context_status",
		Description: "Show workspace size, languages, cache statistics, selection counters, memory usage and uptime.",
	}, handlers.Status.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "context_reindex",
		Description: "Reload the workspace from disk, drop the relevance index and clear cached selections.",
	}, handlers.Reindex.Handle)

	return mcpServer
}

// NewHTTPHandler serves the MCP server over streamable HTTP at /mcp, next to liveness and
// readiness probes. ready may be nil; readiness then always succeeds.
func NewHTTPHandler(mcpServer *mcp.Server, ready func() bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	// stdout may carry protocol traffic in other modes; request logs go to stderr
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(os.Stderr, "", log.LstdFlags),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			writeStatus(w, http.StatusServiceUnavailable, "loading")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil)
	r.Handle("/mcp", mcpHandler)
	r.Handle("/mcp/*", mcpHandler)

	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}
