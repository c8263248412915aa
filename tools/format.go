package tools

import (
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/codecontext-mcp/relevance"
	"github.com/lexandro/codecontext-mcp/workspace"
)

// FormatSearchResults formats content search results as human-readable text.
// Groups matches by file with line numbers and optional context.
func FormatSearchResults(results []workspace.SearchResult, totalMatches int) string {
	if len(results) == 0 {
		return "No matches found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d matches in %d files:\n\n", totalMatches, len(results)))

	for i, result := range results {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("── %s ──\n", result.RelativePath))

		for _, match := range result.Matches {
			for _, ctxLine := range match.ContextBefore {
				builder.WriteString(fmt.Sprintf("  %s\n", ctxLine))
			}
			builder.WriteString(fmt.Sprintf("  %d: %s\n", match.LineNumber, match.LineText))
			for _, ctxLine := range match.ContextAfter {
				builder.WriteString(fmt.Sprintf("  %s\n", ctxLine))
			}
		}
	}

	return builder.String()
}

// FormatFileResults formats workspace files as human-readable text.
func FormatFileResults(files []*workspace.File, nameOnly bool) string {
	if len(files) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(files)))

	for _, file := range files {
		if nameOnly {
			builder.WriteString(file.RelativePath)
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s  (%s, %s, %d lines)\n",
			file.RelativePath,
			file.Language,
			formatFileSize(file.SizeBytes),
			file.LineCount,
		))
	}

	return builder.String()
}

// FormatFileContent formats a file's content with line numbers.
// offset is the 1-based first line to show (0 means 1); limit caps the number of lines (0 means all).
// Output format: header line with path and line count, followed by numbered lines.
func FormatFileContent(filePath string, content string, offset, limit int) string {
	lines := strings.Split(content, "\n")
	lineCount := len(lines)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s (%d lines) ──\n", filePath, lineCount))

	if offset < 1 {
		offset = 1
	}
	if offset > lineCount {
		builder.WriteString(fmt.Sprintf("Offset exceeds file length: %d > %d\n", offset, lineCount))
		return builder.String()
	}
	end := lineCount
	if limit > 0 && offset-1+limit < end {
		end = offset - 1 + limit
	}

	width := len(fmt.Sprintf("%d", end))
	for i := offset - 1; i < end; i++ {
		builder.WriteString(fmt.Sprintf("%*d│ %s\n", width, i+1, lines[i]))
	}

	return builder.String()
}

// FormatScores formats relevance scores as a ranked list.
func FormatScores(scores []relevance.ScoredPath, total int) string {
	if len(scores) == 0 {
		return "No files scored above zero."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Top %d of %d scored files:\n\n", len(scores), total))

	width := len(fmt.Sprintf("%d", scores[0].Score))
	for i, s := range scores {
		builder.WriteString(fmt.Sprintf("%3d. %*d  %s\n", i+1, width, s.Score, s.Path))
	}
	return builder.String()
}

// formatPathList writes a titled, indented list of paths. Empty lists are omitted.
func formatPathList(builder *strings.Builder, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	builder.WriteString(fmt.Sprintf("%s (%d):\n", title, len(paths)))
	for _, p := range paths {
		builder.WriteString("  ")
		builder.WriteString(p)
		builder.WriteString("\n")
	}
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// errorResult builds an error tool result.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
