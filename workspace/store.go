package workspace

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// File is the metadata of one loaded workspace file. Content lives in the ContentIndex.
type File struct {
	Path         string // absolute path
	RelativePath string // path relative to the root, forward slashes
	Language     string
	SizeBytes    int64
	ModTime      time.Time
	LineCount    int
}

// FileStore holds the metadata of every loaded file, keyed by relative path.
// A sorted path slice keeps glob results and snapshots in stable order.
type FileStore struct {
	mu          sync.RWMutex
	files       map[string]*File
	sortedPaths []string
}

// NewFileStore creates an empty store.
func NewFileStore() *FileStore {
	return &FileStore{files: make(map[string]*File)}
}

// Put adds or replaces a file.
func (s *FileStore) Put(file *File) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[file.RelativePath]; !exists {
		i := sort.SearchStrings(s.sortedPaths, file.RelativePath)
		s.sortedPaths = append(s.sortedPaths, "")
		copy(s.sortedPaths[i+1:], s.sortedPaths[i:])
		s.sortedPaths[i] = file.RelativePath
	}
	s.files[file.RelativePath] = file
}

// Remove deletes a file and reports whether it was present.
func (s *FileStore) Remove(relativePath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[relativePath]; !exists {
		return false
	}
	delete(s.files, relativePath)

	i := sort.SearchStrings(s.sortedPaths, relativePath)
	if i < len(s.sortedPaths) && s.sortedPaths[i] == relativePath {
		s.sortedPaths = append(s.sortedPaths[:i], s.sortedPaths[i+1:]...)
	}
	return true
}

// RemoveUnder deletes every file below the directory dir and returns their paths.
func (s *FileStore) RemoveUnder(dir string) []string {
	prefix := strings.TrimSuffix(dir, "/") + "/"

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	kept := s.sortedPaths[:0]
	for _, p := range s.sortedPaths {
		if strings.HasPrefix(p, prefix) {
			delete(s.files, p)
			removed = append(removed, p)
			continue
		}
		kept = append(kept, p)
	}
	s.sortedPaths = kept
	return removed
}

// Get returns the file at relativePath, or nil.
func (s *FileStore) Get(relativePath string) *File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files[relativePath]
}

// Count returns the number of stored files.
func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// TotalSizeBytes returns the summed size of all files.
func (s *FileStore) TotalSizeBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, f := range s.files {
		total += f.SizeBytes
	}
	return total
}

// LanguageCounts returns the number of files per detected language.
func (s *FileStore) LanguageCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, f := range s.files {
		counts[f.Language]++
	}
	return counts
}

// Glob returns up to maxResults files whose relative path matches a doublestar pattern.
func (s *FileStore) Glob(pattern string, maxResults int) ([]*File, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*File
	for _, p := range s.sortedPaths {
		if len(results) >= maxResults {
			break
		}
		if ok, _ := doublestar.Match(pattern, p); ok {
			results = append(results, s.files[p])
		}
	}
	return results, nil
}

// All returns every file in path order.
func (s *FileStore) All() []*File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*File, 0, len(s.sortedPaths))
	for _, p := range s.sortedPaths {
		out = append(out, s.files[p])
	}
	return out
}

// Clear removes every file.
func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string]*File)
	s.sortedPaths = nil
}
