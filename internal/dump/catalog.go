package dump

import (
	"context"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/raoulx24/dumpkeeper/internal/fs"
	"github.com/raoulx24/dumpkeeper/internal/logging"
	"github.com/raoulx24/dumpkeeper/internal/period"
)

// Options configure a catalog.
type Options struct {
	Naming    Naming
	DirLayout string // per-dump subdirectory, Go time layout; empty places at the root
	Extension string // ".sql" or ".sql.gz"
}

// Catalog lists and places dumps below one path of a backend.
type Catalog struct {
	fs   fs.FS
	root string
	opts Options
	log  logging.Logger
}

// NewCatalog creates a catalog for root on fsys.
func NewCatalog(fsys fs.FS, root string, opts Options, log logging.Logger) *Catalog {
	if log == nil {
		log = logging.Nop{}
	}
	return &Catalog{fs: fsys, root: root, opts: opts, log: log}
}

func (c *Catalog) Root() string             { return c.root }
func (c *Catalog) FS() fs.FS                { return c.fs }
func (c *Catalog) Location() *time.Location { return c.opts.Naming.location() }

// List returns every file below the root, newest first. Files with equal
// timestamps keep the backend's enumeration order. Partial copies are
// skipped. Nothing is cached.
func (c *Catalog) List(ctx context.Context) ([]*Artifact, error) {
	paths, err := c.fs.ListFiles(ctx, c.root)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.root, err)
	}

	artifacts := make([]*Artifact, 0, len(paths))
	for _, p := range paths {
		if strings.HasSuffix(p, fs.PartSuffix) {
			c.log.Debug("skipping partial copy", "path", p)
			continue
		}
		a := NewArtifact(c.fs, p, c.opts.Naming)
		a.Resolve(ctx)
		switch a.Source() {
		case SourceBackend:
			c.log.Debug("timestamp from backend metadata", "path", p)
		case SourceUnknown:
			c.log.Warn("timestamp unavailable", "path", p, "error", a.ResolveErr())
		}
		artifacts = append(artifacts, a)
	}

	slices.SortStableFunc(artifacts, func(x, y *Artifact) int {
		return y.LastModified().Compare(x.LastModified())
	})
	return artifacts, nil
}

// maxPlaceAttempts bounds how far Place moves a colliding name forward.
const maxPlaceAttempts = 60

// Place copies a finished dump from the local filesystem into the catalog
// under a name derived from at, and returns the new artifact. A name that
// is already taken moves forward one second at a time; os.ErrExist is
// returned only when every candidate is taken.
func (c *Catalog) Place(ctx context.Context, src string, at time.Time) (*Artifact, error) {
	at = at.In(c.opts.Naming.location())

	for range maxPlaceAttempts {
		dir, dst := c.destination(at)
		exists, err := c.fs.Exists(ctx, dst)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", dst, err)
		}
		if exists {
			c.log.Debug("dump name taken", "path", dst)
			at = c.nextName(at, dst)
			continue
		}

		if err := c.fs.MkdirAll(ctx, dir); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
		if err := c.fs.CopyIn(ctx, src, dst); err != nil {
			return nil, fmt.Errorf("copying %s to %s: %w", src, dst, err)
		}

		c.log.Info("dump placed", "src", src, "path", dst)
		return NewArtifact(c.fs, dst, c.opts.Naming), nil
	}
	return nil, fmt.Errorf("placing %s: no free name after %d attempts: %w", src, maxPlaceAttempts, os.ErrExist)
}

// nextName returns the first second after at whose name differs from
// taken. Layouts coarser than a second skip ahead to their next unit.
func (c *Catalog) nextName(at time.Time, taken string) time.Time {
	for limit := at.Add(24 * time.Hour); at.Before(limit); {
		at = at.Add(time.Second)
		if _, dst := c.destination(at); dst != taken {
			return at
		}
	}
	return at
}

func (c *Catalog) destination(at time.Time) (dir, file string) {
	dir = c.root
	if c.opts.DirLayout != "" {
		dir = path.Join(c.root, at.Format(c.opts.DirLayout))
	}
	return dir, path.Join(dir, at.Format(c.opts.Naming.Layout)+c.opts.Extension)
}

func stampOf(a *Artifact) time.Time { return a.LastModified() }

// Group buckets artifacts by a calendar unit name such as "day".
func Group(artifacts []*Artifact, unit string) ([]period.Group[*Artifact], error) {
	return period.GroupByName(artifacts, stampOf, unit)
}

// Tree nests artifacts into year, month and day branches.
func Tree(artifacts []*Artifact) *period.Node[*Artifact] {
	return period.BuildTree(artifacts, stampOf)
}
