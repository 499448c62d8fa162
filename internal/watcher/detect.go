package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raoulx24/dumpkeeper/internal/worker"
)

// detect queues every matching inbox file that is new or changed since it
// was last queued and has stopped growing. Unstable files are left for the
// next pass.
func (w *Watcher) detect(ctx context.Context) {
	w.scanMu.Lock()
	defer w.scanMu.Unlock()

	w.mu.RLock()
	dir, pattern := w.dir, w.pattern
	w.mu.RUnlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.log.Warn("inbox unreadable", "dir", dir, "error", err)
		return
	}

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if ok, _ := filepath.Match(pattern, name); !ok {
			continue
		}
		path := filepath.Join(dir, name)
		present[path] = true

		info, err := e.Info()
		if err != nil {
			continue
		}
		state := fileState{size: info.Size(), mod: info.ModTime()}
		if w.seen[path] == state {
			continue
		}
		if !w.isStable(ctx, path, state) {
			w.log.Debug("inbox file still changing", "path", path)
			continue
		}

		job := worker.Job{Kind: worker.KindPlace, Source: path, Reason: "inbox", At: state.mod}
		if err := w.queue.Push(ctx, job); err != nil {
			return
		}
		w.seen[path] = state
		w.log.Info("queued inbox dump", "path", path, "size", state.size)
	}

	for p := range w.seen {
		if !present[p] {
			delete(w.seen, p)
		}
	}
}

// isStable waits one stability window and reports whether the file kept
// its size and modification time.
func (w *Watcher) isStable(ctx context.Context, path string, before fileState) bool {
	w.mu.RLock()
	stability := w.stability
	w.mu.RUnlock()

	t := time.NewTimer(stability)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() == before.size && info.ModTime().Equal(before.mod)
}
