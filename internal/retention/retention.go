// Package retention decides which dumps survive and deletes the rest.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raoulx24/dumpkeeper/internal/config"
	"github.com/raoulx24/dumpkeeper/internal/dump"
	"github.com/raoulx24/dumpkeeper/internal/fs"
	"github.com/raoulx24/dumpkeeper/internal/logging"
	"github.com/raoulx24/dumpkeeper/internal/metrics"
)

// ErrDeleteFailed marks a per-artifact deletion failure in a Report.
var ErrDeleteFailed = errors.New("delete failed")

// Catalog is the part of dump.Catalog the engine needs.
type Catalog interface {
	List(ctx context.Context) ([]*dump.Artifact, error)
	Root() string
	FS() fs.FS
	Location() *time.Location
}

// Policy is a retention configuration for one run.
type Policy struct {
	config.RetentionConfig
	DryRun bool
}

// PolicyFrom applies defaults to a configured policy.
func PolicyFrom(cfg config.RetentionConfig) Policy {
	return Policy{RetentionConfig: cfg.WithDefaults()}
}

// PathError pairs a path with the reason an operation on it failed.
type PathError struct {
	Path string
	Err  error
}

func (e PathError) Error() string { return e.Path + ": " + e.Err.Error() }
func (e PathError) Unwrap() error { return e.Err }

// Report describes one retention run.
type Report struct {
	RunID       string
	Target      string
	Mode        string
	Now         time.Time
	DryRun      bool
	Kept        []string
	Unresolved  []string // kept because no timestamp could be read
	Deleted     []string // planned deletions when DryRun is set
	Errors      []PathError
	RemovedDirs []string
	DirErrors   []PathError
	Duration    time.Duration
}

// Err joins the deletion failures, or returns nil when there were none.
// Directory failures are informational and not included.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// Engine runs retention against catalogs.
type Engine struct {
	log     logging.Logger
	metrics metrics.Metrics
	now     func() time.Time
}

// New creates an engine using the wall clock.
func New(log logging.Logger, m metrics.Metrics) *Engine {
	if log == nil {
		log = logging.Nop{}
	}
	if m == nil {
		m = metrics.Noop{}
	}
	return &Engine{log: log, metrics: m, now: time.Now}
}

// WithClock replaces the clock. It is read once per run.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Apply lists the catalog, decides the keep-set, deletes everything else
// and prunes empty directories. Deletion failures are collected in the
// report; only an invalid policy or a failed listing returns an error.
func (e *Engine) Apply(ctx context.Context, target string, cat Catalog, p Policy) (*Report, error) {
	p.RetentionConfig = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	begin := time.Now()
	now := e.now().In(cat.Location())
	log := e.log.With("target", target, "mode", p.Mode)

	artifacts, err := cat.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("retention %s: %w", target, err)
	}

	keep, drop, err := Decide(artifacts, p, now)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:  uuid.NewString(),
		Target: target,
		Mode:   p.Mode,
		Now:    now,
		DryRun: p.DryRun,
		Kept:   paths(keep),
	}
	for _, a := range keep {
		if unresolved(a) {
			report.Unresolved = append(report.Unresolved, a.Path())
		}
	}
	log = log.With("run", report.RunID)
	log.Debug("retention decided", "total", len(artifacts), "keep", len(keep), "drop", len(drop))
	if len(report.Unresolved) > 0 {
		log.Warn("dumps without a timestamp are kept", "count", len(report.Unresolved))
	}

	if p.DryRun {
		report.Deleted = paths(drop)
	} else {
		report.Deleted, report.Errors = deleteAll(ctx, drop, p.Concurrency)
		for _, fe := range report.Errors {
			log.Warn("dump deletion failed", "path", fe.Path, "error", fe.Err)
		}
		report.RemovedDirs, report.DirErrors = pruneEmptyDirs(ctx, cat.FS(), cat.Root())
		for _, de := range report.DirErrors {
			log.Warn("directory cleanup failed", "path", de.Path, "error", de.Err)
		}
	}

	report.Duration = time.Since(begin)
	deleted := len(report.Deleted)
	if p.DryRun {
		deleted = 0
	}
	e.metrics.ObserveRetention(target, p.Mode, len(report.Kept), deleted, len(report.Errors), report.Duration.Seconds())
	log.Info("retention applied",
		"kept", len(report.Kept),
		"deleted", len(report.Deleted),
		"failed", len(report.Errors),
		"dirs_removed", len(report.RemovedDirs),
		"dry_run", p.DryRun,
	)
	return report, nil
}

func paths(artifacts []*dump.Artifact) []string {
	out := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, a.Path())
	}
	return out
}
