// Package dump models backup files on a storage target and lists them.
package dump

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/raoulx24/dumpkeeper/internal/fs"
	"github.com/raoulx24/dumpkeeper/internal/period"
)

// Naming tells how timestamps are read from file names.
type Naming struct {
	Layout   string         // Go time layout of the name without extension
	Location *time.Location // zone for parsing and bucketing; nil means UTC
}

func (n Naming) location() *time.Location {
	if n.Location == nil {
		return time.UTC
	}
	return n.Location
}

// Source records where an artifact's timestamp came from.
type Source int

const (
	SourceName Source = iota
	SourceBackend
	SourceUnknown
)

// Artifact is one dump file on a backend. Its timestamp is resolved on
// first use and then fixed for the lifetime of the value.
type Artifact struct {
	path   string
	fs     fs.FS
	naming Naming

	once   sync.Once
	ts     time.Time
	source Source
	err    error
}

// NewArtifact describes the file at p on fsys.
func NewArtifact(fsys fs.FS, p string, naming Naming) *Artifact {
	return &Artifact{path: p, fs: fsys, naming: naming}
}

func (a *Artifact) Path() string { return a.path }
func (a *Artifact) Name() string { return path.Base(a.path) }

// Resolve returns the timestamp, computing it on the first call only.
func (a *Artifact) Resolve(ctx context.Context) time.Time {
	a.once.Do(func() {
		a.ts, a.source, a.err = resolveTimestamp(a.Name(), a.naming, func() (time.Time, error) {
			return a.fs.ModTime(ctx, a.path)
		})
	})
	return a.ts
}

// LastModified is Resolve without a caller context.
func (a *Artifact) LastModified() time.Time {
	return a.Resolve(context.Background())
}

// Unix returns LastModified as epoch seconds.
func (a *Artifact) Unix() int64 {
	return a.LastModified().Unix()
}

// Source reports which resolution step produced the timestamp.
func (a *Artifact) Source() Source {
	a.LastModified()
	return a.source
}

// ResolveErr is the backend error when neither step yielded a timestamp.
func (a *Artifact) ResolveErr() error {
	a.LastModified()
	return a.err
}

// IsInPeriod reports whether the artifact falls in the same unit as ref,
// comparing unit and every coarser calendar field.
func (a *Artifact) IsInPeriod(unit period.Unit, ref time.Time) (bool, error) {
	return period.Same(a.LastModified(), ref.In(a.naming.location()), unit)
}

// Delete removes the file. Calling it twice surfaces the backend's
// not-found error.
func (a *Artifact) Delete(ctx context.Context) error {
	return a.fs.Remove(ctx, a.path)
}

// ParseName reads the timestamp encoded in a file name. Everything from
// the first dot on is treated as extension.
func ParseName(name string, naming Naming) (time.Time, error) {
	base, _, _ := strings.Cut(name, ".")
	return time.ParseInLocation(naming.Layout, base, naming.location())
}

// resolveTimestamp prefers the name and falls back to the backend's
// modification time. Both results are expressed in naming's location.
func resolveTimestamp(name string, naming Naming, modTime func() (time.Time, error)) (time.Time, Source, error) {
	if ts, err := ParseName(name, naming); err == nil {
		return ts, SourceName, nil
	}
	mt, err := modTime()
	if err != nil {
		return time.Unix(0, 0).In(naming.location()), SourceUnknown, err
	}
	return mt.In(naming.location()), SourceBackend, nil
}
