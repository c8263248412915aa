package relevance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lexandro/codecontext-mcp/cache"
	"github.com/lexandro/codecontext-mcp/project"
)

func newTestCachedIndex(t *testing.T) (*CachedIndex, *cache.Cache[*Index]) {
	t.Helper()
	store := cache.New[*Index](cache.Options{SweepInterval: -1})
	t.Cleanup(store.Close)
	return NewCachedIndex(CachedIndexOptions{Store: store, TTL: time.Minute}), store
}

func Test_CachedIndex_ReusesInMemoryIndex(t *testing.T) {
	ci, _ := newTestCachedIndex(t)
	files := testFiles()
	hash := files.Hash()

	first, err := ci.GetIndex(context.Background(), files, hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ci.GetIndex(context.Background(), files, hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("expected the same index for an unchanged hash")
	}
	if ci.Rebuilds() != 1 {
		t.Errorf("expected 1 build, got %d", ci.Rebuilds())
	}
	if ci.CurrentHash() != hash {
		t.Errorf("expected current hash %s, got %s", hash, ci.CurrentHash())
	}
}

func Test_CachedIndex_RebuildsOnHashChange(t *testing.T) {
	ci, _ := newTestCachedIndex(t)
	files := testFiles()
	first, _ := ci.GetIndex(context.Background(), files, files.Hash())

	files["new/feature.ts"] = project.FileRecord{Path: "new/feature.ts", Kind: project.KindFile}
	second, err := ci.GetIndex(context.Background(), files, files.Hash())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Error("expected a new index after the hash changed")
	}
	if second.Size() != 5 {
		t.Errorf("expected 5 files in rebuilt index, got %d", second.Size())
	}
}

func Test_CachedIndex_InvalidateAdoptsFromCache(t *testing.T) {
	ci, store := newTestCachedIndex(t)
	files := testFiles()
	hash := files.Hash()
	first, _ := ci.GetIndex(context.Background(), files, hash)

	ci.Invalidate()
	if ci.CurrentHash() != "" {
		t.Error("expected no current hash after invalidate")
	}

	second, err := ci.GetIndex(context.Background(), files, hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("expected the cached index to be adopted after invalidate")
	}
	if ci.Rebuilds() != 1 {
		t.Errorf("expected no rebuild, got %d builds", ci.Rebuilds())
	}

	store.Clear()
	ci.Invalidate()
	if _, err := ci.GetIndex(context.Background(), files, hash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ci.Rebuilds() != 2 {
		t.Errorf("expected a rebuild once cache and memory are empty, got %d builds", ci.Rebuilds())
	}
}

func Test_CachedIndex_ConcurrentCallersShareBuild(t *testing.T) {
	ci, _ := newTestCachedIndex(t)
	files := testFiles()
	hash := files.Hash()

	var wg sync.WaitGroup
	results := make([]*Index, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx, err := ci.GetIndex(context.Background(), files, hash)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = idx
		}(i)
	}
	wg.Wait()

	for _, idx := range results {
		if idx == nil || idx.Size() != 4 {
			t.Fatalf("expected a 4-file index from every caller")
		}
	}
	if ci.CurrentHash() != hash {
		t.Errorf("expected current hash %s, got %s", hash, ci.CurrentHash())
	}
}

func Test_CachedIndex_CanceledContext(t *testing.T) {
	ci, store := newTestCachedIndex(t)
	files := testFiles()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx, err := ci.GetIndex(ctx, files, files.Hash())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got index %v, error %v", idx, err)
	}
	if ci.CurrentHash() != "" {
		t.Errorf("expected no current index, got hash %s", ci.CurrentHash())
	}
	if ci.Rebuilds() != 0 || store.Stats().Size != 0 {
		t.Errorf("expected no build for a canceled caller, got %d builds, %d cached", ci.Rebuilds(), store.Stats().Size)
	}
}

func Test_CachedIndex_CanceledContextKeepsCurrentIndex(t *testing.T) {
	ci, _ := newTestCachedIndex(t)
	files := testFiles()
	first, err := ci.GetIndex(context.Background(), files, files.Hash())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second, err := ci.GetIndex(ctx, files, files.Hash())
	if err != nil {
		t.Fatalf("expected the in-memory index for an unchanged hash, got %v", err)
	}
	if first != second {
		t.Error("expected the same index")
	}
}

func Test_CachedIndex_PurgeDropsCachedIndexes(t *testing.T) {
	ci, store := newTestCachedIndex(t)
	before := project.NewCollection(project.FileRecord{Path: "a.ts", Kind: project.KindFile, Content: "export const alpha = 1"})
	after := project.NewCollection(project.FileRecord{Path: "a.ts", Kind: project.KindFile, Content: "export const gamma = 1"})
	hash := before.Hash()
	if after.Hash() != hash {
		t.Fatalf("same-size edit must keep the collection hash")
	}

	if _, err := ci.GetIndex(context.Background(), before, hash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed := ci.Purge(); removed != 1 {
		t.Errorf("expected 1 cached index removed, got %d", removed)
	}
	if store.Stats().Size != 0 || ci.CurrentHash() != "" {
		t.Fatal("expected both tiers empty after purge")
	}

	idx, err := ci.GetIndex(context.Background(), after, hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exports := idx.Metadata("a.ts").Exports
	if _, ok := exports["gamma"]; !ok {
		t.Errorf("expected rebuilt index with gamma, got exports %v", exports)
	}
	if _, ok := exports["alpha"]; ok {
		t.Errorf("index still holds pre-edit exports %v", exports)
	}
	if ci.Rebuilds() != 2 {
		t.Errorf("expected 2 builds, got %d", ci.Rebuilds())
	}
}
