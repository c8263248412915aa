package workspace

import (
	"context"
	"io/fs"
	"time"
)

// ReconcileResult counts the discrepancies fixed by one reconciliation pass.
type ReconcileResult struct {
	Missing  int // on disk but not loaded
	Stale    int // loaded but gone from disk
	Modified int // modification time differs
	Changed  []string
	Duration time.Duration
}

// Total returns the number of fixed discrepancies.
func (r ReconcileResult) Total() int {
	return r.Missing + r.Stale + r.Modified
}

// Reconcile compares the disk with the loaded files and fixes every difference.
func (w *Workspace) Reconcile(ctx context.Context) (ReconcileResult, error) {
	start := time.Now()
	var result ReconcileResult

	onDisk := make(map[string]fs.FileInfo)
	absolute := make(map[string]string)
	err := w.walk(ctx, func(absolutePath, relativePath string, info fs.FileInfo) {
		onDisk[relativePath] = info
		absolute[relativePath] = absolutePath
	})
	if err != nil {
		return result, err
	}

	loaded := make(map[string]*File)
	for _, f := range w.Files.All() {
		loaded[f.RelativePath] = f
	}

	for relativePath, info := range onDisk {
		existing, ok := loaded[relativePath]
		if ok && info.ModTime().Equal(existing.ModTime) {
			continue
		}
		if err := w.loadFile(absolute[relativePath], relativePath, info); err != nil {
			w.logger.Debug("reconcile: skipped file", "path", relativePath, "error", err)
			continue
		}
		if ok {
			result.Modified++
			w.logger.Info("reconcile: reloaded modified file", "path", relativePath)
		} else {
			result.Missing++
			w.logger.Info("reconcile: loaded missing file", "path", relativePath)
		}
		result.Changed = append(result.Changed, relativePath)
	}

	for relativePath := range loaded {
		if _, ok := onDisk[relativePath]; ok {
			continue
		}
		w.Remove(relativePath)
		result.Stale++
		result.Changed = append(result.Changed, relativePath)
		w.logger.Info("reconcile: removed stale file", "path", relativePath)
	}

	if result.Total() > 0 {
		w.generation.Add(1)
	}
	result.Duration = time.Since(start)
	return result, nil
}

// RunPeriodicReconcile reconciles every interval until ctx is done. onChange is called
// after passes that fixed at least one discrepancy.
func (w *Workspace) RunPeriodicReconcile(ctx context.Context, interval time.Duration, onChange func(ReconcileResult)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("periodic reconcile started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("periodic reconcile stopped")
			return
		case <-ticker.C:
			result, err := w.Reconcile(ctx)
			if err != nil {
				if ctx.Err() == nil {
					w.logger.Warn("reconcile failed", "error", err)
				}
				continue
			}
			if result.Total() == 0 {
				w.logger.Debug("reconcile complete, workspace is in sync", "duration", result.Duration)
				continue
			}
			w.logger.Info("reconcile complete",
				"missing", result.Missing,
				"stale", result.Stale,
				"modified", result.Modified,
				"duration", result.Duration,
			)
			if onChange != nil {
				onChange(result)
			}
		}
	}
}
