package render

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lexandro/codecontext-mcp/language"
	"github.com/lexandro/codecontext-mcp/project"
)

const (
	// DefaultBudget is the token budget used when Options.Budget is not positive.
	DefaultBudget = 8000
	// DefaultPerFileCeiling caps the tokens a single file may use.
	DefaultPerFileCeiling = 2000
	// Overhead is reserved for the wrapper markup around all files.
	Overhead = 32

	openTag      = "<context>\n"
	closeTag     = "</context>\n"
	truncatedTag = "\n... [truncated]"
)

// Options configures a Render call.
type Options struct {
	Budget         int // tokens available for file blocks
	PerFileCeiling int // tokens a single file block may use before its content is truncated
}

// Rendered is the serialized context block plus a record of what went into it.
type Rendered struct {
	Text      string
	Tokens    int      // estimated tokens of Text
	Included  []string // paths included, in output order
	Truncated []string // included paths whose content was cut
	Dropped   []string // paths left out because the budget or the per-file ceiling ran out
}

// Render serializes files into one text block that fits within Budget plus Overhead tokens.
// Files are emitted in path order. A file whose block exceeds PerFileCeiling is truncated;
// a file whose path markup alone exceeds PerFileCeiling is dropped. The first file
// that no longer fits the remaining budget stops inclusion.
// Running out of budget is not an error.
func Render(files project.Collection, options Options) Rendered {
	budget := options.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	ceiling := options.PerFileCeiling
	if ceiling <= 0 {
		ceiling = DefaultPerFileCeiling
	}

	paths := files.FilePaths()
	sort.Strings(paths)

	var result Rendered
	var builder strings.Builder
	builder.WriteString(openTag)

	remaining := budget
	for i, filePath := range paths {
		block, truncated, ok := fileBlock(filePath, files[filePath].Content, ceiling)
		if !ok {
			result.Dropped = append(result.Dropped, filePath)
			continue
		}
		cost := EstimateTokens(block)
		if cost > remaining {
			result.Dropped = append(result.Dropped, paths[i:]...)
			break
		}
		builder.WriteString(block)
		remaining -= cost
		result.Included = append(result.Included, filePath)
		if truncated {
			result.Truncated = append(result.Truncated, filePath)
		}
	}

	builder.WriteString(closeTag)
	result.Text = builder.String()
	result.Tokens = EstimateTokens(result.Text)
	return result
}

// fileBlock renders one file, cutting its content so the whole block stays within ceiling
// tokens. It reports false when not even the empty truncated frame fits.
func fileBlock(filePath string, content string, ceiling int) (string, bool, bool) {
	header, footer := blockFrame(filePath)
	block := header + content + footer
	if EstimateTokens(block) <= ceiling {
		return block, false, true
	}

	frameRunes := utf8.RuneCountInString(header) + utf8.RuneCountInString(truncatedTag) + utf8.RuneCountInString(footer)
	keep := ceiling*charsPerToken - frameRunes
	if keep < 0 {
		return "", false, false
	}
	return header + truncateRunes(content, keep) + truncatedTag + footer, true, true
}

func blockFrame(filePath string) (string, string) {
	header := fmt.Sprintf("<file path=%q>\n```%s\n", filePath, language.FenceTag(filePath))
	return header, "\n```\n</file>\n"
}
