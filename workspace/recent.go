package workspace

import (
	"sync"

	"github.com/lexandro/codecontext-mcp/project"
)

const defaultRecentCapacity = 64

// RecentChanges is a bounded most-recent-first list of changed paths without duplicates.
type RecentChanges struct {
	mu       sync.Mutex
	paths    []string
	capacity int
}

// NewRecentChanges creates a list holding at most capacity paths.
func NewRecentChanges(capacity int) *RecentChanges {
	if capacity <= 0 {
		capacity = defaultRecentCapacity
	}
	return &RecentChanges{capacity: capacity}
}

// Add moves the given paths to the front, the last argument ending up first.
func (r *RecentChanges) Add(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range paths {
		p = project.NormalizePath(p)
		if p == "" {
			continue
		}
		for i, existing := range r.paths {
			if existing == p {
				r.paths = append(r.paths[:i], r.paths[i+1:]...)
				break
			}
		}
		r.paths = append([]string{p}, r.paths...)
		if len(r.paths) > r.capacity {
			r.paths = r.paths[:r.capacity]
		}
	}
}

// Latest returns up to n paths, most recent first. n <= 0 returns all.
func (r *RecentChanges) Latest(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > len(r.paths) {
		n = len(r.paths)
	}
	return append([]string(nil), r.paths[:n]...)
}
