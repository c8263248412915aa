package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/lexandro/codecontext-mcp/project"
	"github.com/lexandro/codecontext-mcp/watcher"
)

func Test_handleChanges_CreateRecordsAndInvalidates(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", "package a\n")
	var calls atomic.Int32
	app := newTestApplication(t, root, &calls, "a.go")
	app.selections.Set("selection/q/f", project.Collection{})

	created := writeTestFile(t, root, "pkg/b.go", "package pkg\n")
	app.handleChanges(context.Background(), []watcher.Change{{Path: created, Op: watcher.OpCreate}})

	if _, ok := app.workspace.Read("pkg/b.go"); !ok {
		t.Fatal("expected pkg/b.go to be loaded")
	}
	if got := app.workspace.RecentChanges(5); !reflect.DeepEqual(got, []string{"pkg/b.go"}) {
		t.Errorf("expected pkg/b.go recorded as changed, got %v", got)
	}
	if app.selections.Stats().Size != 0 {
		t.Error("expected cached selections to be dropped")
	}
	if app.index.CurrentHash() != "" {
		t.Error("expected the relevance index to be invalidated")
	}
}

func Test_handleChanges_SameSizeEditInvalidates(t *testing.T) {
	root := t.TempDir()
	p := writeTestFile(t, root, "a.go", "package a\n\nvar x = 1\n")
	var calls atomic.Int32
	app := newTestApplication(t, root, &calls, "a.go")
	app.selections.Set("selection/q/f", project.Collection{})

	if err := os.WriteFile(p, []byte("package a\n\nvar y = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	app.handleChanges(context.Background(), []watcher.Change{{Path: p, Op: watcher.OpWrite}})

	if content, _ := app.workspace.Read("a.go"); content != "package a\n\nvar y = 2\n" {
		t.Errorf("expected updated content, got %q", content)
	}
	if app.selections.Stats().Size != 0 {
		t.Error("expected a same-size edit to drop cached selections")
	}
}

func Test_handleChanges_SameSizeEditRebuildsIndex(t *testing.T) {
	root := t.TempDir()
	p := writeTestFile(t, root, "a.ts", "export const alpha = 1\n")
	var calls atomic.Int32
	app := newTestApplication(t, root, &calls, "a.ts")
	ctx := context.Background()

	before := app.workspace.Snapshot()
	hash := before.HashWith(project.HashBySize)
	if _, err := app.index.GetIndex(ctx, before, hash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.WriteFile(p, []byte("export const gamma = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	app.handleChanges(ctx, []watcher.Change{{Path: p, Op: watcher.OpWrite}})

	after := app.workspace.Snapshot()
	if after.HashWith(project.HashBySize) != hash {
		t.Fatal("same-size edit must keep the size hash")
	}
	if app.indexes.Stats().Size != 0 {
		t.Errorf("expected cached indexes dropped, %d left", app.indexes.Stats().Size)
	}
	idx, err := app.index.GetIndex(ctx, after, hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exports := idx.Metadata("a.ts").Exports
	if _, ok := exports["gamma"]; !ok {
		t.Errorf("expected the index to reflect the edit, got exports %v", exports)
	}
	if _, ok := exports["alpha"]; ok {
		t.Errorf("index still holds pre-edit exports %v", exports)
	}
}

func Test_handleChanges_Remove(t *testing.T) {
	root := t.TempDir()
	p := writeTestFile(t, root, "dir/a.go", "package dir\n")
	writeTestFile(t, root, "dir/b.go", "package dir\n")
	var calls atomic.Int32
	app := newTestApplication(t, root, &calls, "dir/a.go")

	if err := os.RemoveAll(filepath.Dir(p)); err != nil {
		t.Fatal(err)
	}
	app.handleChanges(context.Background(), []watcher.Change{{Path: filepath.Dir(p), Op: watcher.OpRemove}})

	if app.workspace.Files.Count() != 0 {
		t.Errorf("expected the directory's files removed, %d left", app.workspace.Files.Count())
	}
	if got := len(app.workspace.RecentChanges(5)); got != 2 {
		t.Errorf("expected 2 recorded changes, got %d", got)
	}
}

func Test_handleChanges_RenameOfExistingFileReloads(t *testing.T) {
	root := t.TempDir()
	p := writeTestFile(t, root, "a.go", "package a\n")
	var calls atomic.Int32
	app := newTestApplication(t, root, &calls, "a.go")

	if err := os.WriteFile(p, []byte("package a // saved by rename\n"), 0644); err != nil {
		t.Fatal(err)
	}
	app.handleChanges(context.Background(), []watcher.Change{{Path: p, Op: watcher.OpRename}})

	content, ok := app.workspace.Read("a.go")
	if !ok || content != "package a // saved by rename\n" {
		t.Errorf("expected the file to stay loaded with new content, got %q (%v)", content, ok)
	}
}

func Test_handleChanges_IgnoredFileKeepsCache(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", "package a\n")
	var calls atomic.Int32
	app := newTestApplication(t, root, &calls, "a.go")
	app.selections.Set("selection/q/f", project.Collection{})

	ignored := writeTestFile(t, root, "node_modules/lib/index.js", "module.exports = 1\n")
	app.handleChanges(context.Background(), []watcher.Change{{Path: ignored, Op: watcher.OpCreate}})

	if app.selections.Stats().Size != 1 {
		t.Error("an ignored change must not drop cached selections")
	}
	if len(app.workspace.RecentChanges(5)) != 0 {
		t.Error("an ignored change must not be recorded")
	}
}

func Test_handleChanges_RuleFileReconciles(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", "package a\n")
	writeTestFile(t, root, "secret/keys.go", "package secret\n")
	var calls atomic.Int32
	app := newTestApplication(t, root, &calls, "a.go")

	if app.workspace.Files.Get("secret/keys.go") == nil {
		t.Fatal("expected secret/keys.go loaded before the rule change")
	}

	rules := writeTestFile(t, root, ".gitignore", "secret/\n")
	app.handleChanges(context.Background(), []watcher.Change{{Path: rules, Op: watcher.OpCreate}})

	if app.workspace.Files.Get("secret/keys.go") != nil {
		t.Error("expected secret/keys.go dropped after the rule change")
	}
	recorded := false
	for _, p := range app.workspace.RecentChanges(5) {
		if p == "secret/keys.go" {
			recorded = true
		}
	}
	if !recorded {
		t.Errorf("expected secret/keys.go recorded, got %v", app.workspace.RecentChanges(5))
	}
}

func Test_consumeChanges_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", "package a\n")
	var calls atomic.Int32
	app := newTestApplication(t, root, &calls, "a.go")

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []watcher.Change)
	done := make(chan struct{})
	go func() {
		app.consumeChanges(ctx, changes)
		close(done)
	}()

	p := writeTestFile(t, root, "b.go", "package a\n")
	changes <- []watcher.Change{{Path: p, Op: watcher.OpCreate}}
	cancel()
	<-done

	if _, ok := app.workspace.Read("b.go"); !ok {
		t.Error("expected the batch sent before cancel to be applied")
	}
}
