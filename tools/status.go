package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/codecontext-mcp/cache"
	"github.com/lexandro/codecontext-mcp/project"
	"github.com/lexandro/codecontext-mcp/relevance"
	"github.com/lexandro/codecontext-mcp/selection"
	"github.com/lexandro/codecontext-mcp/workspace"
)

// StatusArgs defines the input parameters for the context_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool. Nil caches and a nil
// pipeline are left out of the report.
type StatusHandler struct {
	Workspace      *workspace.Workspace
	Pipeline       *selection.Pipeline
	SelectionCache *cache.Cache[project.Collection]
	IndexCache     *cache.Cache[*relevance.Index]
	Index          *relevance.CachedIndex
	StartTime      time.Time
	Logger         *slog.Logger
}

// Handle processes a context_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	fileCount := h.Workspace.Files.Count()
	totalSize := h.Workspace.Files.TotalSizeBytes()
	langCounts := h.Workspace.Files.LanguageCounts()
	docCount := h.Workspace.Content.DocumentCount()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("context_status",
		"files", fileCount,
		"totalSize", totalSize,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== codecontext-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", h.Workspace.Root()))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Workspace files: %d\n", fileCount))
	builder.WriteString(fmt.Sprintf("Content-indexed documents: %d\n", docCount))
	builder.WriteString(fmt.Sprintf("Total workspace size: %s\n", formatFileSize(totalSize)))
	builder.WriteString(fmt.Sprintf("Workspace generation: %d\n", h.Workspace.Generation()))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	if h.SelectionCache != nil || h.IndexCache != nil {
		builder.WriteString("\nCaches:\n")
		if h.SelectionCache != nil {
			writeCacheStats(&builder, "selections", h.SelectionCache.Stats())
		}
		if h.IndexCache != nil {
			writeCacheStats(&builder, "indexes", h.IndexCache.Stats())
		}
	}
	if h.Index != nil {
		hash := h.Index.CurrentHash()
		if hash == "" {
			hash = "none"
		}
		builder.WriteString(fmt.Sprintf("\nRelevance index: current %s, %d rebuilds\n", hash, h.Index.Rebuilds()))
	}
	if h.Pipeline != nil {
		c := h.Pipeline.Counters()
		builder.WriteString("\nSelections:\n")
		builder.WriteString(fmt.Sprintf("  total %d, cache hits %d, model calls %d\n", c.Selections, c.CacheHits, c.RankCalls))
		builder.WriteString(fmt.Sprintf("  heuristic fallbacks %d, invalid answers %d, failures %d\n", c.Fallbacks, c.InvalidAnswers, c.Failures))
	}

	if len(langCounts) > 0 {
		builder.WriteString("\nLanguages:\n")

		type langEntry struct {
			lang  string
			count int
		}
		entries := make([]langEntry, 0, len(langCounts))
		for lang, count := range langCounts {
			entries = append(entries, langEntry{lang, count})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].lang < entries[j].lang
		})

		for _, entry := range entries {
			builder.WriteString(fmt.Sprintf("  %-20s %d files\n", entry.lang, entry.count))
		}
	}

	return textResult(builder.String()), nil, nil
}

func writeCacheStats(builder *strings.Builder, name string, stats cache.Stats) {
	builder.WriteString(fmt.Sprintf("  %-12s size %d, hits %d, misses %d, hit rate %.1f%%, evictions %d, expirations %d\n",
		name, stats.Size, stats.Hits, stats.Misses, stats.HitRate()*100, stats.Evictions, stats.Expirations))
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
