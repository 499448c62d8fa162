package watcher

import (
	"context"
	"time"
)

func (w *Watcher) pollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.interval
}

// StartPolling runs detect on the configured interval. A reloaded interval
// takes effect after the next tick.
func (w *Watcher) StartPolling(ctx context.Context) {
	current := w.pollInterval()
	ticker := time.NewTicker(current)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		w.detect(ctx)
		if next := w.pollInterval(); next != current && next > 0 {
			current = next
			ticker.Reset(current)
			w.log.Debug("poll interval changed", "interval", current)
		}
	}
}
