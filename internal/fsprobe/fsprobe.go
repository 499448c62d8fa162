// Package fsprobe checks whether fsnotify delivers events for a directory.
// Network and FUSE mounts often accept a watch and then stay silent, so a
// real create and rename is performed and the events are awaited.
package fsprobe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWait is how long Probe waits for the first event.
const DefaultWait = 200 * time.Millisecond

// Result reports whether fsnotify is usable and why not.
type Result struct {
	Supported bool
	Reason    string
}

func unsupported(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Probe creates and renames a hidden file in dir and reports whether the
// watcher saw it within wait.
func Probe(ctx context.Context, dir string, wait time.Duration) Result {
	st, err := os.Stat(dir)
	if err != nil {
		return unsupported("stat failed: %v", err)
	}
	if !st.IsDir() {
		return unsupported("%s is not a directory", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return unsupported("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return unsupported("cannot watch directory: %v", err)
	}

	f, err := os.CreateTemp(dir, ".fsprobe-*")
	if err != nil {
		return unsupported("cannot create probe file: %v", err)
	}
	tmp := f.Name()
	f.Close()

	final := filepath.Join(dir, filepath.Base(tmp)+".done")
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return unsupported("rename failed: %v", err)
	}
	defer os.Remove(final)

	timeout := time.NewTimer(wait)
	defer timeout.Stop()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return unsupported("event channel closed")
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) != 0 {
				return Result{Supported: true}
			}
		case err := <-w.Errors:
			return unsupported("watch error: %v", err)
		case <-timeout.C:
			return unsupported("no events within %s", wait)
		case <-ctx.Done():
			return unsupported("probe cancelled: %v", ctx.Err())
		}
	}
}
