package relevance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/lexandro/codecontext-mcp/language"
	"github.com/lexandro/codecontext-mcp/project"
)

// Scoring weights. A symbol reference outweighs a file name match, and a file touched
// in the last few turns outweighs both.
const (
	keywordMatchScore  = 10
	symbolMatchScore   = 15
	recentChangeScore  = 25
	sourceFileScore    = 2
	minQueryTokenChars = 3
)

// ErrIndexBuild is returned when index construction fails.
var ErrIndexBuild = errors.New("index build failed")

// FileMetadata is the derived, immutable view of one indexed file.
type FileMetadata struct {
	Path     string
	Keywords map[string]struct{}
	Imports  map[string]struct{}
	Exports  map[string]struct{}
	Source   bool
}

// ScoredPath is a file path with its relevance score for one query.
type ScoredPath struct {
	Path  string
	Score int
}

// Index scores files against free-text queries using path keywords and
// lexically extracted import/export symbols.
type Index struct {
	mu    sync.RWMutex
	files map[string]*FileMetadata
}

// extractMetadata derives the metadata of one file during Build.
var extractMetadata = newFileMetadata

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{files: make(map[string]*FileMetadata)}
}

// Build derives metadata for every file record and replaces any previous state.
// Folders are skipped.
func (idx *Index) Build(files project.Collection) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrIndexBuild, r)
		}
	}()

	built := make(map[string]*FileMetadata, len(files))
	for filePath, record := range files {
		if !record.IsFile() {
			continue
		}
		built[filePath] = extractMetadata(filePath, record.Content)
	}

	idx.mu.Lock()
	idx.files = built
	idx.mu.Unlock()
	return nil
}

func newFileMetadata(filePath string, content string) *FileMetadata {
	lang := language.DetectLanguage(filePath)
	return &FileMetadata{
		Path:     filePath,
		Keywords: extractKeywords(filePath),
		Imports:  extractImports(lang, content),
		Exports:  extractExports(lang, content),
		Source:   language.IsSourceFile(filePath),
	}
}

// Metadata returns the metadata for a path, or nil if it is not indexed.
func (idx *Index) Metadata(filePath string) *FileMetadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.files[filePath]
}

// Size returns the number of indexed files.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.files)
}

// Clear drops all indexed files.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.files = make(map[string]*FileMetadata)
}

// Score ranks indexed files against query, highest first. Files scoring zero are omitted.
// Equal scores are ordered by path so results are deterministic.
func (idx *Index) Score(query string, recentlyChanged []string) []ScoredPath {
	tokens := Tokenize(query)
	recent := make(map[string]bool, len(recentlyChanged))
	for _, p := range recentlyChanged {
		recent[project.NormalizePath(p)] = true
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]ScoredPath, 0, len(idx.files))
	for filePath, meta := range idx.files {
		score := scoreFile(meta, tokens)
		if recent[filePath] {
			score += recentChangeScore
		}
		if meta.Source {
			score += sourceFileScore
		}
		if score > 0 {
			results = append(results, ScoredPath{Path: filePath, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})
	return results
}

func scoreFile(meta *FileMetadata, tokens []string) int {
	score := 0
	for _, token := range tokens {
		for keyword := range meta.Keywords {
			if strings.Contains(token, keyword) || strings.Contains(keyword, token) {
				score += keywordMatchScore
			}
		}
		if containsSymbol(meta.Imports, token) || containsSymbol(meta.Exports, token) {
			score += symbolMatchScore
		}
	}
	return score
}

func containsSymbol(symbols map[string]struct{}, token string) bool {
	for symbol := range symbols {
		if strings.Contains(symbol, token) {
			return true
		}
	}
	return false
}

// TopN returns the paths of the n best scoring files.
func (idx *Index) TopN(query string, n int, recentlyChanged []string) []string {
	scored := idx.Score(query, recentlyChanged)
	if n >= 0 && len(scored) > n {
		scored = scored[:n]
	}
	paths := make([]string, len(scored))
	for i, s := range scored {
		paths[i] = s.Path
	}
	return paths
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true, "this": true,
	"from": true, "into": true, "are": true, "was": true, "were": true, "can": true,
	"you": true, "your": true, "please": true, "how": true, "what": true, "why": true,
	"when": true, "where": true, "which": true, "who": true, "does": true, "should": true,
	"would": true, "could": true, "have": true, "has": true, "not": true, "all": true,
	"any": true, "but": true, "its": true, "our": true, "out": true, "use": true,
	"make": true, "add": true, "get": true, "let": true, "there": true, "here": true,
	"about": true, "some": true, "also": true, "just": true, "like": true, "want": true,
	"need": true, "then": true, "them": true, "they": true,
}

// Tokenize lowercases query, splits it on anything that is not a letter or digit,
// and drops short tokens and stop words.
func Tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < minQueryTokenChars || stopWords[field] || seen[field] {
			continue
		}
		seen[field] = true
		tokens = append(tokens, field)
	}
	return tokens
}
