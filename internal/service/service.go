// Package service exposes dump listing, placement and retention keyed by
// storage target name.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/raoulx24/dumpkeeper/internal/config"
	"github.com/raoulx24/dumpkeeper/internal/dump"
	"github.com/raoulx24/dumpkeeper/internal/logging"
	"github.com/raoulx24/dumpkeeper/internal/metrics"
	"github.com/raoulx24/dumpkeeper/internal/retention"
	"github.com/raoulx24/dumpkeeper/internal/storage"
)

type Service struct {
	cfg     config.Config
	opts    dump.Options
	reg     *storage.Registry
	engine  *retention.Engine
	log     logging.Logger
	metrics metrics.Metrics
	now     func() time.Time
}

// New builds a service over reg. The dump timezone is resolved here so a
// bad zone fails before any target is touched.
func New(cfg config.Config, reg *storage.Registry, log logging.Logger, m metrics.Metrics) (*Service, error) {
	if log == nil {
		log = logging.Nop{}
	}
	if m == nil {
		m = metrics.Noop{}
	}
	loc, err := cfg.Dump.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: dump.timezone: %w", config.ErrInvalid, err)
	}

	return &Service{
		cfg: cfg,
		opts: dump.Options{
			Naming:    dump.Naming{Layout: cfg.Dump.FileNameFormat, Location: loc},
			DirLayout: cfg.Dump.DirName,
			Extension: cfg.Dump.Extension(),
		},
		reg:     reg,
		engine:  retention.New(log, m),
		log:     log,
		metrics: m,
		now:     time.Now,
	}, nil
}

// WithClock replaces the clock used for placement names and retention.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.engine.WithClock(now)
	return s
}

// Targets lists the configured storage names.
func (s *Service) Targets() []string { return s.reg.Names() }

// Policy returns the configured retention policy.
func (s *Service) Policy() retention.Policy { return retention.PolicyFrom(s.cfg.Retention) }

// Catalog opens the dump catalog of a target.
func (s *Service) Catalog(name string) (*dump.Catalog, error) {
	t, err := s.reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	return dump.NewCatalog(t.FS, t.Path, s.opts, s.log.With("target", name)), nil
}

// ListArtifacts returns the dumps of a target, newest first.
func (s *Service) ListArtifacts(ctx context.Context, name string) ([]*dump.Artifact, error) {
	cat, err := s.Catalog(name)
	if err != nil {
		return nil, err
	}
	return cat.List(ctx)
}

// ApplyRetention runs one retention pass on a target.
func (s *Service) ApplyRetention(ctx context.Context, name string, p retention.Policy) (*retention.Report, error) {
	cat, err := s.Catalog(name)
	if err != nil {
		return nil, err
	}
	return s.engine.Apply(ctx, name, cat, p)
}

// Place copies a finished dump into a target and then applies the
// configured retention to it. A retention failure is returned alongside
// the placed artifact.
func (s *Service) Place(ctx context.Context, name, src string) (*dump.Artifact, *retention.Report, error) {
	cat, err := s.Catalog(name)
	if err != nil {
		return nil, nil, err
	}

	a, err := cat.Place(ctx, src, s.now())
	switch {
	case errors.Is(err, os.ErrExist):
		s.metrics.IncPlaced(name, "exists")
		return nil, nil, err
	case err != nil:
		s.metrics.IncPlaced(name, "error")
		return nil, nil, err
	}
	s.metrics.IncPlaced(name, "ok")

	report, err := s.engine.Apply(ctx, name, cat, s.Policy())
	if err != nil {
		return a, nil, fmt.Errorf("retention after placing %s: %w", a.Path(), err)
	}
	return a, report, nil
}
