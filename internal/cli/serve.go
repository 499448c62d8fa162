package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raoulx24/dumpkeeper/internal/config"
	"github.com/raoulx24/dumpkeeper/internal/logging"
	"github.com/raoulx24/dumpkeeper/internal/mailbox"
	"github.com/raoulx24/dumpkeeper/internal/metrics"
	"github.com/raoulx24/dumpkeeper/internal/watcher"
	"github.com/raoulx24/dumpkeeper/internal/worker"
)

const queueSize = 64

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled retention and watch the inbox for new dumps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, err := newDaemon(opts, cmd.ErrOrStderr(), metrics.NewProm("dumpkeeper"))
			if err != nil {
				return err
			}
			return d.run(ctx)
		},
	}
}

// daemon owns the long running pieces of serve.
type daemon struct {
	opts    *rootOptions
	stderr  io.Writer
	metrics metrics.Metrics

	log logging.Logger

	mu  sync.Mutex
	cfg config.Config

	mb      *mailbox.Mailbox[worker.Job]
	queue   *worker.Queue
	worker  *worker.Worker
	watcher *watcher.Watcher

	stopSchedule context.CancelFunc
	reloads      chan struct{}
}

func newDaemon(opts *rootOptions, stderr io.Writer, m metrics.Metrics) (*daemon, error) {
	a, err := opts.load(stderr, m)
	if err != nil {
		return nil, err
	}

	d := &daemon{
		opts:    opts,
		stderr:  stderr,
		metrics: m,
		cfg:     a.cfg,
		log:     a.log,
		mb:      mailbox.New[worker.Job](),
		queue:   worker.NewQueue(queueSize),
		reloads: make(chan struct{}, 1),
	}
	d.worker = worker.New(a.svc, a.cfg.Inbox, a.log, d.mb, d.queue)
	if a.cfg.Inbox.Path != "" {
		d.watcher = watcher.New(a.cfg.Inbox, a.log, d.queue)
	}
	return d, nil
}

func (d *daemon) run(ctx context.Context) error {
	d.mu.Lock()
	cfg := d.cfg
	d.mu.Unlock()

	if err := d.schedule(ctx, cfg); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.worker.Start(ctx)
		return nil
	})
	if d.watcher != nil {
		g.Go(func() error { return d.watcher.Start(ctx) })
	}
	if cfg.Metrics.Addr != "" {
		g.Go(func() error { return d.serveMetrics(ctx, cfg.Metrics.Addr) })
	}

	g.Go(func() error { return d.reloadLoop(ctx) })
	if cfg.ConfigReload.Enabled && cfg.ConfigReload.Method == "fsnotify" {
		g.Go(func() error { return d.watchConfig(ctx) })
	}

	d.log.Info("dumpkeeper running", "targets", len(cfg.Storages))
	err := g.Wait()

	d.mu.Lock()
	if d.stopSchedule != nil {
		d.stopSchedule()
	}
	d.mu.Unlock()
	return err
}

// schedule replaces the running cron scheduler with one for cfg.
func (d *daemon) schedule(ctx context.Context, cfg config.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopSchedule != nil {
		d.stopSchedule()
		d.stopSchedule = nil
	}
	if cfg.Schedule.Cron == "" {
		return nil
	}

	loc, err := cfg.Dump.Location()
	if err != nil {
		return err
	}
	s, err := worker.NewScheduler(cfg.Schedule.Cron, loc, d.mb, d.log)
	if err != nil {
		return err
	}
	sctx, cancel := context.WithCancel(ctx)
	d.stopSchedule = cancel
	go s.Start(sctx)
	return nil
}

func (d *daemon) serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	d.log.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func (d *daemon) requestReload() {
	select {
	case d.reloads <- struct{}{}:
	default:
	}
}

// reloadLoop reloads on SIGHUP and on requests from the config watcher.
func (d *daemon) reloadLoop(ctx context.Context) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
		case <-d.reloads:
		}
		if err := d.reload(ctx); err != nil {
			d.log.Error("config reload failed, keeping the running config", "error", err)
			continue
		}
		d.log.Info("config reloaded")
	}
}

// reload reads the config again and swaps it into every component. The
// metrics listener and the watch mode stay as they were started.
func (d *daemon) reload(ctx context.Context) error {
	cfg, err := d.opts.loadConfig()
	if err != nil {
		return err
	}
	a, err := build(cfg, d.stderr, d.metrics)
	if err != nil {
		return err
	}
	if err := d.schedule(ctx, cfg); err != nil {
		return err
	}

	d.worker.UpdateService(a.svc, cfg.Inbox)
	if d.watcher != nil {
		d.watcher.UpdateConfig(cfg.Inbox)
	}

	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	return nil
}

// watchConfig requests a reload whenever the config file is written or
// replaced. The directory is watched because editors swap files by rename.
func (d *daemon) watchConfig(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	path, err := filepath.Abs(d.opts.configPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			d.requestReload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.log.Warn("config watch error", "error", err)
		}
	}
}
