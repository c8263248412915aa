package workspace

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bmatcuk/doublestar/v4"
)

// ContentIndex is an in-memory bleve index over file contents. Raw content is kept
// alongside for line-level match extraction and for building snapshots.
type ContentIndex struct {
	mu       sync.RWMutex
	index    bleve.Index
	contents map[string]string // relative path -> content
}

// NewContentIndex creates an empty in-memory index.
func NewContentIndex() (*ContentIndex, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &ContentIndex{index: idx, contents: make(map[string]string)}, nil
}

type contentDocument struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Language string `json:"language"`
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = false
	contentField.IncludeInAll = true
	docMapping.AddFieldMappingsAt("content", contentField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Store = true
	pathField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("path", pathField)

	languageField := bleve.NewKeywordFieldMapping()
	languageField.Store = true
	languageField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("language", languageField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Put indexes or re-indexes a file.
func (ci *ContentIndex) Put(relativePath string, content string, language string) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	ci.contents[relativePath] = content
	if err := ci.index.Index(relativePath, contentDocument{Content: content, Path: relativePath, Language: language}); err != nil {
		return fmt.Errorf("indexing file %s: %w", relativePath, err)
	}
	return nil
}

// Remove drops a file from the index.
func (ci *ContentIndex) Remove(relativePath string) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	delete(ci.contents, relativePath)
	if err := ci.index.Delete(relativePath); err != nil {
		return fmt.Errorf("removing file %s from index: %w", relativePath, err)
	}
	return nil
}

// Content returns the raw content of an indexed file.
func (ci *ContentIndex) Content(relativePath string) (string, bool) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	content, ok := ci.contents[strings.ReplaceAll(relativePath, "\\", "/")]
	return content, ok
}

// DocumentCount returns the number of indexed documents.
func (ci *ContentIndex) DocumentCount() uint64 {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	count, _ := ci.index.DocCount()
	return count
}

// Clear drops every document by recreating the index.
func (ci *ContentIndex) Clear() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if err := ci.index.Close(); err != nil {
		return fmt.Errorf("closing old index: %w", err)
	}
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating new index: %w", err)
	}
	ci.index = idx
	ci.contents = make(map[string]string)
	return nil
}

// Close releases the bleve index.
func (ci *ContentIndex) Close() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.index.Close()
}

// SearchOptions configures a content search.
type SearchOptions struct {
	Query        string
	FilePath     string   // exact relative path; takes precedence over FileGlob
	FileGlob     string   // doublestar pattern over relative paths
	Paths        []string // when set, only these relative paths are searched
	MaxResults   int      // maximum number of files; default 50
	ContextLines int
}

// SearchResult holds the matching lines of one file.
type SearchResult struct {
	RelativePath string
	Matches      []LineMatch
}

// LineMatch is one matching line with optional surrounding lines.
type LineMatch struct {
	LineNumber    int
	LineText      string
	ContextBefore []string
	ContextAfter  []string
}

// Search runs a full-text query and returns matching lines grouped by file, plus the
// total number of matching lines. Query syntax: plain words (match query),
// "quoted phrase" (phrase query) or /regex/ (regexp query).
func (ci *ContentIndex) Search(options SearchOptions) ([]SearchResult, int, error) {
	if options.MaxResults <= 0 {
		options.MaxResults = 50
	}
	if options.ContextLines < 0 {
		options.ContextLines = 0
	}
	filePath := strings.ReplaceAll(options.FilePath, "\\", "/")
	fileGlob := strings.ReplaceAll(options.FileGlob, "\\", "/")
	if fileGlob != "" && !doublestar.ValidatePattern(fileGlob) {
		return nil, 0, fmt.Errorf("invalid glob pattern: %s", options.FileGlob)
	}

	var allowed map[string]bool
	if len(options.Paths) > 0 {
		allowed = make(map[string]bool, len(options.Paths))
		for _, p := range options.Paths {
			allowed[strings.ReplaceAll(p, "\\", "/")] = true
		}
	}

	ci.mu.RLock()
	defer ci.mu.RUnlock()

	request := bleve.NewSearchRequest(buildQuery(options.Query))
	// over-fetch: hits are filtered by path and by line-level matching below
	request.Size = options.MaxResults * 5
	request.Fields = []string{"path", "language"}

	found, err := ci.index.Search(request)
	if err != nil {
		return nil, 0, fmt.Errorf("searching index: %w", err)
	}

	var results []SearchResult
	totalMatches := 0
	for _, hit := range found.Hits {
		relativePath := hit.ID
		content, ok := ci.contents[relativePath]
		if !ok || (allowed != nil && !allowed[relativePath]) {
			continue
		}
		if filePath != "" {
			if relativePath != filePath {
				continue
			}
		} else if fileGlob != "" && !matchesFileGlob(fileGlob, relativePath) {
			continue
		}

		lines := findMatchingLines(content, options.Query, options.ContextLines)
		if len(lines) == 0 {
			continue
		}
		totalMatches += len(lines)
		results = append(results, SearchResult{RelativePath: relativePath, Matches: lines})
		if len(results) >= options.MaxResults {
			break
		}
	}
	return results, totalMatches, nil
}

// matchesFileGlob matches the pattern against the full path, and patterns without a
// slash also against the base name.
func matchesFileGlob(pattern, relativePath string) bool {
	if ok, _ := doublestar.Match(pattern, relativePath); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		base := relativePath[strings.LastIndex(relativePath, "/")+1:]
		ok, _ := doublestar.Match(pattern, base)
		return ok
	}
	return false
}

func buildQuery(queryString string) query.Query {
	queryString = strings.TrimSpace(queryString)
	if inner, ok := unwrap(queryString, "/"); ok {
		return bleve.NewRegexpQuery(inner)
	}
	if inner, ok := unwrap(queryString, `"`); ok {
		return bleve.NewMatchPhraseQuery(inner)
	}
	return bleve.NewMatchQuery(queryString)
}

// unwrap strips matching delimiters from both ends of s.
func unwrap(s, delimiter string) (string, bool) {
	if len(s) > 2 && strings.HasPrefix(s, delimiter) && strings.HasSuffix(s, delimiter) {
		return s[len(delimiter) : len(s)-len(delimiter)], true
	}
	return s, false
}

// findMatchingLines returns the lines containing the search term, case-insensitive.
func findMatchingLines(content string, queryString string, contextLines int) []LineMatch {
	term := strings.TrimSpace(queryString)
	if inner, ok := unwrap(term, "/"); ok {
		term = inner
	} else if inner, ok := unwrap(term, `"`); ok {
		term = inner
	}
	term = strings.ToLower(term)

	lines := strings.Split(content, "\n")
	var matches []LineMatch
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), term) {
			continue
		}
		match := LineMatch{LineNumber: i + 1, LineText: line}
		if contextLines > 0 {
			match.ContextBefore = append([]string(nil), lines[max(0, i-contextLines):i]...)
			match.ContextAfter = append([]string(nil), lines[i+1:min(len(lines), i+contextLines+1)]...)
		}
		matches = append(matches, match)
	}
	return matches
}
