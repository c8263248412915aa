package project

import (
	"path"
	"sort"
	"strings"
)

// Kind distinguishes files from folders in a collection.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// FileRecord is a single entry of a project snapshot.
// Content is only meaningful for files.
type FileRecord struct {
	Path    string
	Kind    Kind
	Content string
}

// IsFile reports whether the record is a file.
func (r FileRecord) IsFile() bool { return r.Kind == KindFile }

// Collection maps a forward-slash relative path to its record.
// The core only reads collections; callers own them.
type Collection map[string]FileRecord

// NewCollection builds a collection from records. Later records win on duplicate paths.
func NewCollection(records ...FileRecord) Collection {
	c := make(Collection, len(records))
	for _, r := range records {
		c[NormalizePath(r.Path)] = FileRecord{Path: NormalizePath(r.Path), Kind: r.Kind, Content: r.Content}
	}
	return c
}

// FilePaths returns the sorted paths of all file-kind records.
func (c Collection) FilePaths() []string {
	paths := make([]string, 0, len(c))
	for p, r := range c {
		if r.IsFile() {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// Has reports whether path names a file in the collection.
func (c Collection) Has(p string) bool {
	r, ok := c[p]
	return ok && r.IsFile()
}

// Subset returns the file records named by paths. Unknown paths are skipped.
func (c Collection) Subset(paths []string) Collection {
	out := make(Collection, len(paths))
	for _, p := range paths {
		if r, ok := c[p]; ok && r.IsFile() {
			out[p] = r
		}
	}
	return out
}

// NormalizePath converts backslashes to forward slashes and strips a leading "./" or "/".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return p
	}
	return path.Clean(p)
}
