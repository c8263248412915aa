package ignore

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

const defaultMaxFileSizeBytes = 1024 * 1024

// Matcher decides which paths under a root directory are loaded into the workspace.
// It combines built-in defaults, the root's rule files and custom doublestar patterns.
// Reload takes the write lock; all checks take the read lock.
type Matcher struct {
	mu               sync.RWMutex
	rootDir          string
	rules            []gitignore.GitIgnore
	customPatterns   []string
	maxFileSizeBytes int64
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir          string
	CustomPatterns   []string // doublestar patterns, matched against the relative path and the base name
	MaxFileSizeBytes int64    // default 1MB
}

// NewMatcher creates a matcher and reads the rule files of RootDir.
func NewMatcher(options MatcherOptions) *Matcher {
	m := &Matcher{
		rootDir:          options.RootDir,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}
	if m.maxFileSizeBytes <= 0 {
		m.maxFileSizeBytes = defaultMaxFileSizeBytes
	}
	for _, p := range options.CustomPatterns {
		p = filepath.ToSlash(strings.TrimSpace(p))
		if p != "" && doublestar.ValidatePattern(p) {
			m.customPatterns = append(m.customPatterns, p)
		}
	}
	m.rules = loadRuleFiles(options.RootDir)
	return m
}

// ShouldIgnore reports whether the file or directory at absolutePath is excluded.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}
	return m.ShouldIgnoreRelative(m.relative(absolutePath), isDir)
}

// ShouldIgnoreRelative is ShouldIgnore for a forward-slash path relative to the root.
// It does not touch the filesystem.
func (m *Matcher) ShouldIgnoreRelative(relativePath string, isDir bool) bool {
	relativePath = strings.TrimPrefix(filepath.ToSlash(relativePath), "./")
	if relativePath == "" || relativePath == "." {
		return false
	}
	if matchesSkippedDir(relativePath, isDir) || (!isDir && matchesSkippedFile(relativePath)) {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rules := range m.rules {
		if match := rules.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir reports whether a directory should be skipped during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	return m.ShouldIgnoreRelative(m.relative(absolutePath), true)
}

// IsFileTooLarge reports whether a file exceeds the size limit.
func (m *Matcher) IsFileTooLarge(fileSize int64) bool {
	return fileSize > m.maxFileSizeBytes
}

// MaxFileSizeBytes returns the configured maximum file size.
func (m *Matcher) MaxFileSizeBytes() int64 {
	return m.maxFileSizeBytes
}

// Reload re-reads the rule files from disk.
func (m *Matcher) Reload() {
	rules := loadRuleFiles(m.rootDir)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = rules
}

// IsRuleFile reports whether the base name of p is one of the rule files.
func IsRuleFile(p string) bool {
	base := filepath.Base(p)
	for _, name := range RuleFiles {
		if base == name {
			return true
		}
	}
	return false
}

func (m *Matcher) relative(absolutePath string) string {
	rel, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		rel = absolutePath
	}
	return filepath.ToSlash(rel)
}

// matchesSkippedDir checks every directory segment; the last segment counts only for directories.
func matchesSkippedDir(relativePath string, isDir bool) bool {
	segments := strings.Split(strings.ToLower(relativePath), "/")
	if !isDir {
		segments = segments[:len(segments)-1]
	}
	for _, segment := range segments {
		for _, dir := range SkippedDirs {
			if segment == dir {
				return true
			}
		}
	}
	return false
}

func matchesSkippedFile(relativePath string) bool {
	base := strings.ToLower(path.Base(relativePath))
	for _, pattern := range SkippedFilePatterns {
		if ok, _ := doublestar.Match(strings.ToLower(pattern), base); ok {
			return true
		}
	}
	return false
}

func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	base := path.Base(relativePath)
	for _, pattern := range m.customPatterns {
		if ok, _ := doublestar.Match(pattern, relativePath); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func loadRuleFiles(rootDir string) []gitignore.GitIgnore {
	var rules []gitignore.GitIgnore
	for _, name := range RuleFiles {
		if gi := loadRuleFile(filepath.Join(rootDir, name), rootDir); gi != nil {
			rules = append(rules, gi)
		}
	}
	return rules
}

// loadRuleFile reads through an explicit handle so it is closed before returning.
func loadRuleFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()
	return gitignore.New(f, baseDir, nil)
}
