package relevance

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lexandro/codecontext-mcp/cache"
	"github.com/lexandro/codecontext-mcp/project"
)

// DefaultIndexTTL is how long a built index stays in the shared cache.
const DefaultIndexTTL = 10 * time.Minute

// indexKeyPrefix namespaces index entries in the shared cache.
const indexKeyPrefix = "index/"

// snapshot pairs an index with the collection hash it was built from.
// It is never mutated after creation; rebuilds swap in a new snapshot.
type snapshot struct {
	fileHash string
	index    *Index
}

// CachedIndex memoizes a built Index keyed by the hash of the file collection.
// The in-memory snapshot is checked first, then the shared cache, then the index is rebuilt.
type CachedIndex struct {
	current atomic.Pointer[snapshot]
	store   *cache.Cache[*Index]
	ttl     time.Duration
	builds  singleflight.Group
	logger  *slog.Logger

	rebuilds atomic.Int64
}

// CachedIndexOptions configures a CachedIndex.
type CachedIndexOptions struct {
	Store  *cache.Cache[*Index] // shared cache for built indexes; required
	TTL    time.Duration        // TTL of cached indexes; default 10m
	Logger *slog.Logger
}

// NewCachedIndex creates a wrapper around the given cache.
func NewCachedIndex(options CachedIndexOptions) *CachedIndex {
	c := &CachedIndex{
		store:  options.Store,
		ttl:    options.TTL,
		logger: options.Logger,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultIndexTTL
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// GetIndex returns an index built for exactly fileHash. Concurrent callers asking for
// the same hash share one build.
func (c *CachedIndex) GetIndex(ctx context.Context, files project.Collection, fileHash string) (*Index, error) {
	if snap := c.current.Load(); snap != nil && snap.fileHash == fileHash {
		return snap.index, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := indexKeyPrefix + fileHash
	if c.store != nil {
		if idx, ok := c.store.Get(key); ok {
			c.adopt(fileHash, idx)
			c.logger.Debug("adopted cached index", "fileHash", fileHash, "files", idx.Size())
			return idx, nil
		}
	}

	result := c.builds.DoChan(key, func() (any, error) {
		start := time.Now()
		idx := NewIndex()
		if err := idx.Build(files); err != nil {
			return nil, err
		}
		if c.store != nil {
			c.store.SetWithTTL(key, idx, c.ttl)
		}
		c.rebuilds.Add(1)
		c.logger.Debug("built index", "fileHash", fileHash, "files", idx.Size(), "elapsed", time.Since(start))
		return idx, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		idx := res.Val.(*Index)
		c.adopt(fileHash, idx)
		return idx, nil
	}
}

func (c *CachedIndex) adopt(fileHash string, idx *Index) {
	c.current.Store(&snapshot{fileHash: fileHash, index: idx})
}

// Invalidate drops the in-memory index and its hash. The next GetIndex consults the
// shared cache or rebuilds.
func (c *CachedIndex) Invalidate() {
	c.current.Store(nil)
}

// Purge drops the in-memory index and every index in the shared cache, so the next
// GetIndex rebuilds from the files it is given. Use it when file content may have
// changed without changing the collection hash.
func (c *CachedIndex) Purge() int {
	c.current.Store(nil)
	if c.store == nil {
		return 0
	}
	return c.store.DeletePrefix(indexKeyPrefix)
}

// CurrentHash returns the hash of the in-memory index, or "" if none.
func (c *CachedIndex) CurrentHash() string {
	if snap := c.current.Load(); snap != nil {
		return snap.fileHash
	}
	return ""
}

// Rebuilds returns how many times an index was built from scratch.
func (c *CachedIndex) Rebuilds() int64 {
	return c.rebuilds.Load()
}
