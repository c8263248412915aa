package main

import (
	"context"
	"os"

	"github.com/lexandro/codecontext-mcp/ignore"
	"github.com/lexandro/codecontext-mcp/watcher"
)

// consumeChanges applies debounced watcher batches until ctx is done.
func (a *application) consumeChanges(ctx context.Context, changes <-chan []watcher.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-changes:
			if !ok {
				return
			}
			a.handleChanges(ctx, batch)
		}
	}
}

// handleChanges applies one batch to the workspace. Changed paths are recorded as recent
// changes and invalidate cached selections and the relevance index. A change to an ignore
// rule file reloads the rules and reconciles the workspace against them.
func (a *application) handleChanges(ctx context.Context, batch []watcher.Change) {
	var changed []string
	rulesChanged := false

	for _, change := range batch {
		relPath := a.workspace.Rel(change.Path)

		if ignore.IsRuleFile(change.Path) {
			rulesChanged = true
			continue
		}

		if change.Op.IsRemoval() {
			// editors that save by rename leave a file at the old path
			if _, err := os.Stat(change.Path); err != nil {
				removed := a.workspace.Remove(relPath)
				if len(removed) > 0 {
					a.logger.Debug("removed from workspace", "path", relPath, "files", len(removed))
				}
				changed = append(changed, removed...)
				continue
			}
		}

		updated, err := a.workspace.Upsert(change.Path)
		if err != nil {
			a.logger.Debug("skipped file update", "path", relPath, "op", change.Op, "error", err)
			continue
		}
		if updated {
			a.logger.Debug("updated workspace", "path", relPath, "op", change.Op)
			changed = append(changed, relPath)
		}
	}

	if rulesChanged {
		a.workspace.Ignore().Reload()
		a.logger.Info("reloaded ignore rules")
		result, err := a.workspace.Reconcile(ctx)
		if err != nil {
			a.logger.Warn("reconcile after rule change failed", "error", err)
		} else {
			changed = append(changed, result.Changed...)
		}
	}

	a.applied(changed)
}

// applied records changed paths and drops derived state that may no longer match them.
func (a *application) applied(changed []string) {
	if len(changed) == 0 {
		return
	}
	a.workspace.RecordChanges(changed...)
	a.invalidate()
	a.logger.Info("workspace updated", "files", len(changed))
}
