// Package watcher monitors the inbox directory and queues finished dumps
// for placement.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raoulx24/dumpkeeper/internal/config"
	"github.com/raoulx24/dumpkeeper/internal/fsprobe"
	"github.com/raoulx24/dumpkeeper/internal/logging"
	"github.com/raoulx24/dumpkeeper/internal/worker"
)

type fileState struct {
	size int64
	mod  time.Time
}

// Watcher observes the inbox and queues every new or rewritten dump once
// its size has settled.
type Watcher struct {
	mu sync.RWMutex

	dir       string
	pattern   string
	interval  time.Duration
	mode      string
	debounce  time.Duration
	stability time.Duration

	log   logging.Logger
	queue *worker.Queue

	scanMu sync.Mutex
	seen   map[string]fileState
}

// New creates a watcher from the inbox configuration.
func New(cfg config.InboxConfig, log logging.Logger, q *worker.Queue) *Watcher {
	if log == nil {
		log = logging.Nop{}
	}
	w := &Watcher{log: log, queue: q, seen: make(map[string]fileState)}
	w.apply(cfg)
	return w
}

func (w *Watcher) apply(cfg config.InboxConfig) {
	w.dir = cfg.Path
	w.pattern = cfg.Pattern
	w.interval = cfg.Watch.PollInterval
	w.mode = cfg.Watch.Mode
	w.debounce = cfg.Watch.DebounceWindow
	w.stability = cfg.Watch.StabilityWindow
}

// Start scans once, then watches with the configured strategy until ctx
// is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.RLock()
	mode, dir := w.mode, w.dir
	w.mu.RUnlock()

	w.log.Info("starting inbox watcher", "dir", dir, "mode", mode)
	w.detect(ctx)

	switch mode {
	case "fsnotify":
		return w.StartFsNotify(ctx)
	case "poll":
		w.StartPolling(ctx)
		return nil
	case "auto":
		res := fsprobe.Probe(ctx, dir, fsprobe.DefaultWait)
		if res.Supported {
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("fsnotify disabled, polling instead", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil
	default:
		return fmt.Errorf("unknown watch mode %q", mode)
	}
}
