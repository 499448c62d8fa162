package watcher

import "github.com/raoulx24/dumpkeeper/internal/config"

// UpdateConfig swaps the inbox settings for hot reload. Switching to a
// different directory forgets what was already queued. A changed watch
// mode takes effect on the next Start.
func (w *Watcher) UpdateConfig(cfg config.InboxConfig) {
	w.mu.Lock()
	dirChanged := cfg.Path != w.dir
	w.apply(cfg)
	w.mu.Unlock()

	if dirChanged {
		w.scanMu.Lock()
		clear(w.seen)
		w.scanMu.Unlock()
	}
}
