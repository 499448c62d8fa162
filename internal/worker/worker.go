// Package worker serialises placements and retention sweeps on a single
// goroutine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/raoulx24/dumpkeeper/internal/config"
	"github.com/raoulx24/dumpkeeper/internal/dump"
	"github.com/raoulx24/dumpkeeper/internal/logging"
	"github.com/raoulx24/dumpkeeper/internal/mailbox"
	"github.com/raoulx24/dumpkeeper/internal/retention"
)

// Service is what the worker drives. service.Service implements it.
type Service interface {
	Targets() []string
	Policy() retention.Policy
	ApplyRetention(ctx context.Context, target string, p retention.Policy) (*retention.Report, error)
	Place(ctx context.Context, target, src string) (*dump.Artifact, *retention.Report, error)
}

// Worker consumes placement jobs from a queue and sweep jobs from a
// latest-wins mailbox.
type Worker struct {
	mu    sync.RWMutex
	svc   Service
	inbox config.InboxConfig

	log   logging.Logger
	mb    *mailbox.Mailbox[Job]
	queue *Queue
}

func New(svc Service, inbox config.InboxConfig, log logging.Logger, mb *mailbox.Mailbox[Job], q *Queue) *Worker {
	if log == nil {
		log = logging.Nop{}
	}
	return &Worker{svc: svc, inbox: inbox, log: log, mb: mb, queue: q}
}

// Start runs until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("starting worker")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopped")
			return
		case j := <-w.queue.Jobs():
			w.run(ctx, j)
		case <-w.mb.Ready():
			if j, ok := w.mb.TryTake(); ok {
				w.run(ctx, j)
			}
		}
	}
}

func (w *Worker) run(ctx context.Context, j Job) {
	if err := w.Handle(ctx, j); err != nil {
		w.log.Error("job failed", "kind", j.Kind, "reason", j.Reason, "error", err)
	}
}

// UpdateService swaps the service and inbox settings after a reload. The
// job in progress finishes on the old ones.
func (w *Worker) UpdateService(svc Service, inbox config.InboxConfig) {
	w.mu.Lock()
	w.svc = svc
	w.inbox = inbox
	w.mu.Unlock()
	w.log.Debug("worker service updated")
}

// Handle executes one job. Per-target failures are joined; one target
// failing never skips the others.
func (w *Worker) Handle(ctx context.Context, j Job) error {
	w.mu.RLock()
	svc, inbox := w.svc, w.inbox
	w.mu.RUnlock()

	switch j.Kind {
	case KindSweep:
		return w.sweep(ctx, svc, targetsFor(j, svc.Targets()))
	case KindPlace:
		targets := targetsFor(j, inbox.Targets)
		if len(targets) == 0 {
			targets = svc.Targets()
		}
		return w.place(ctx, svc, j.Source, targets, inbox.RemoveAfterPlace)
	default:
		return fmt.Errorf("unknown job kind %d", j.Kind)
	}
}

func targetsFor(j Job, fallback []string) []string {
	if len(j.Targets) > 0 {
		return j.Targets
	}
	return fallback
}

func (w *Worker) sweep(ctx context.Context, svc Service, targets []string) error {
	var errs []error
	for _, t := range targets {
		report, err := svc.ApplyRetention(ctx, t, svc.Policy())
		if err != nil {
			errs = append(errs, fmt.Errorf("retention %s: %w", t, err))
			continue
		}
		if err := report.Err(); err != nil {
			errs = append(errs, fmt.Errorf("retention %s: %w", t, err))
		}
	}
	return errors.Join(errs...)
}

// place stores src in every target. The inbox file is removed only when
// every target holds a copy.
func (w *Worker) place(ctx context.Context, svc Service, src string, targets []string, removeAfter bool) error {
	log := w.log.With("src", src)

	var errs []error
	for _, t := range targets {
		a, report, err := svc.Place(ctx, t, src)
		switch {
		case err != nil && a == nil:
			errs = append(errs, fmt.Errorf("placing into %s: %w", t, err))
			continue
		case err != nil:
			// placed, but retention afterwards failed
			log.Error("retention after placement failed", "target", t, "path", a.Path(), "error", err)
			continue
		}
		log.Info("dump placed", "target", t, "path", a.Path(), "deleted", len(report.Deleted))
		if err := report.Err(); err != nil {
			log.Warn("retention left failures", "target", t, "error", err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	if removeAfter {
		if err := os.Remove(src); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing inbox file: %w", err)
		}
		log.Debug("inbox file removed")
	}
	return nil
}
