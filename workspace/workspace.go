package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexandro/codecontext-mcp/ignore"
	"github.com/lexandro/codecontext-mcp/language"
	"github.com/lexandro/codecontext-mcp/project"
)

const defaultWorkers = 8

// ErrBinaryFile is returned when a file's content is not text.
var ErrBinaryFile = errors.New("binary file")

// Options configures a Workspace.
type Options struct {
	RootDir string
	Ignore  *ignore.Matcher // required
	Workers int             // parallel file reads during Load; default 8
	// RecentCapacity bounds the recent-changes list; default 64.
	RecentCapacity int
	Logger         *slog.Logger
}

// LoadResult summarizes a full load.
type LoadResult struct {
	Files    int
	Bytes    int64
	Skipped  int
	Duration time.Duration
}

// Workspace is the live, in-memory view of a project directory: file metadata,
// searchable content and the paths changed most recently.
type Workspace struct {
	root    string
	ignore  *ignore.Matcher
	workers int
	logger  *slog.Logger

	Files   *FileStore
	Content *ContentIndex
	recent  *RecentChanges

	generation atomic.Uint64
}

// New creates an empty workspace. Call Load to populate it.
func New(options Options) (*Workspace, error) {
	root, err := filepath.Abs(options.RootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", options.RootDir, err)
	}
	content, err := NewContentIndex()
	if err != nil {
		return nil, err
	}
	w := &Workspace{
		root:    root,
		ignore:  options.Ignore,
		workers: options.Workers,
		logger:  options.Logger,
		Files:   NewFileStore(),
		Content: content,
		recent:  NewRecentChanges(options.RecentCapacity),
	}
	if w.ignore == nil {
		w.ignore = ignore.NewMatcher(ignore.MatcherOptions{RootDir: root})
	}
	if w.workers <= 0 {
		w.workers = defaultWorkers
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w, nil
}

// Root returns the absolute root directory.
func (w *Workspace) Root() string { return w.root }

// Ignore returns the matcher used for loading.
func (w *Workspace) Ignore() *ignore.Matcher { return w.ignore }

// Generation increases on every change to the loaded files.
func (w *Workspace) Generation() uint64 { return w.generation.Load() }

// Load walks the root and loads every eligible file, reading through a bounded pool.
// Unreadable and binary files are skipped. Load returns early only if ctx is done.
func (w *Workspace) Load(ctx context.Context) (LoadResult, error) {
	start := time.Now()
	var loaded, skipped atomic.Int64
	var bytes atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	walkErr := w.walk(gctx, func(absolutePath, relativePath string, info fs.FileInfo) {
		g.Go(func() error {
			if err := w.loadFile(absolutePath, relativePath, info); err != nil {
				w.logger.Debug("skipped file", "path", relativePath, "error", err)
				skipped.Add(1)
				return nil
			}
			loaded.Add(1)
			bytes.Add(info.Size())
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return LoadResult{}, err
	}
	if walkErr != nil {
		return LoadResult{}, walkErr
	}

	w.generation.Add(1)
	return LoadResult{
		Files:    int(loaded.Load()),
		Bytes:    bytes.Load(),
		Skipped:  int(skipped.Load()),
		Duration: time.Since(start),
	}, nil
}

// Reload clears the workspace and loads it again.
func (w *Workspace) Reload(ctx context.Context) (LoadResult, error) {
	w.ignore.Reload()
	w.Files.Clear()
	if err := w.Content.Clear(); err != nil {
		return LoadResult{}, err
	}
	return w.Load(ctx)
}

// walk visits every eligible file under the root. Ignored directories are not descended.
func (w *Workspace) walk(ctx context.Context, visit func(absolutePath, relativePath string, info fs.FileInfo)) error {
	return filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != w.root && w.ignore.ShouldIgnoreDir(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		relativePath := w.Rel(p)
		if w.ignore.ShouldIgnoreRelative(relativePath, false) {
			return nil
		}
		info, err := d.Info()
		if err != nil || w.ignore.IsFileTooLarge(info.Size()) {
			return nil
		}
		visit(p, relativePath, info)
		return nil
	})
}

// loadFile reads one file into the store and the content index.
func (w *Workspace) loadFile(absolutePath, relativePath string, info fs.FileInfo) error {
	data, err := readFileWithRetry(absolutePath)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	if language.IsBinaryContent(data) {
		return ErrBinaryFile
	}

	content := string(data)
	lang := language.DetectLanguage(absolutePath)
	if err := w.Content.Put(relativePath, content, lang); err != nil {
		return err
	}
	w.Files.Put(&File{
		Path:         absolutePath,
		RelativePath: relativePath,
		Language:     lang,
		SizeBytes:    info.Size(),
		ModTime:      info.ModTime(),
		LineCount:    strings.Count(content, "\n") + 1,
	})
	return nil
}

// readFileWithRetry retries once after a short pause; editors briefly lock files while saving.
func readFileWithRetry(p string) ([]byte, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		time.Sleep(50 * time.Millisecond)
		return os.ReadFile(p)
	}
	return data, nil
}

// Rel converts an absolute path under the root to a forward-slash relative path.
func (w *Workspace) Rel(absolutePath string) string {
	rel, err := filepath.Rel(w.root, absolutePath)
	if err != nil {
		return filepath.ToSlash(absolutePath)
	}
	return filepath.ToSlash(rel)
}

// Abs converts a relative path to an absolute path under the root.
func (w *Workspace) Abs(relativePath string) string {
	return filepath.Join(w.root, filepath.FromSlash(relativePath))
}

// Upsert loads or reloads the file at absolutePath. It reports whether the workspace
// changed; ignored, oversized and binary files are skipped without error.
func (w *Workspace) Upsert(absolutePath string) (bool, error) {
	relativePath := w.Rel(absolutePath)
	if w.ignore.ShouldIgnoreRelative(relativePath, false) {
		return false, nil
	}
	info, err := os.Stat(absolutePath)
	if err != nil {
		return false, err
	}
	if info.IsDir() || w.ignore.IsFileTooLarge(info.Size()) {
		return false, nil
	}
	if err := w.loadFile(absolutePath, relativePath, info); err != nil {
		if errors.Is(err, ErrBinaryFile) {
			return false, nil
		}
		return false, err
	}
	w.generation.Add(1)
	return true, nil
}

// Remove drops a file, or every file under a directory, and returns the removed paths.
func (w *Workspace) Remove(relativePath string) []string {
	relativePath = project.NormalizePath(relativePath)
	var removed []string
	if w.Files.Remove(relativePath) {
		removed = append(removed, relativePath)
	} else {
		removed = w.Files.RemoveUnder(relativePath)
	}
	for _, p := range removed {
		if err := w.Content.Remove(p); err != nil {
			w.logger.Debug("content removal failed", "path", p, "error", err)
		}
	}
	if len(removed) > 0 {
		w.generation.Add(1)
	}
	return removed
}

// Read returns the content of a loaded file.
func (w *Workspace) Read(relativePath string) (string, bool) {
	return w.Content.Content(project.NormalizePath(relativePath))
}

// Snapshot returns the loaded files as a collection, with a folder record for every
// directory that contains a file.
func (w *Workspace) Snapshot() project.Collection {
	files := w.Files.All()
	c := make(project.Collection, len(files)*2)
	for _, f := range files {
		content, ok := w.Content.Content(f.RelativePath)
		if !ok {
			continue
		}
		c[f.RelativePath] = project.FileRecord{Path: f.RelativePath, Kind: project.KindFile, Content: content}
		for dir := path.Dir(f.RelativePath); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if _, seen := c[dir]; seen {
				break
			}
			c[dir] = project.FileRecord{Path: dir, Kind: project.KindFolder}
		}
	}
	return c
}

// RecordChanges marks relative paths as recently changed.
func (w *Workspace) RecordChanges(paths ...string) {
	w.recent.Add(paths...)
}

// RecentChanges returns up to n recently changed paths, most recent first.
func (w *Workspace) RecentChanges(n int) []string {
	return w.recent.Latest(n)
}

// Close releases the content index.
func (w *Workspace) Close() error {
	return w.Content.Close()
}
