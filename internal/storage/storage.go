// Package storage resolves named storage targets to backends.
package storage

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/raoulx24/dumpkeeper/internal/config"
	"github.com/raoulx24/dumpkeeper/internal/fs"
)

var (
	ErrTargetNotFound    = errors.New("storage target not found")
	ErrDiskMisconfigured = errors.New("disk misconfigured")
)

// Target is a named dump destination.
type Target struct {
	Name string
	Disk string
	Path string
	FS   fs.FS
}

// Registry builds one backend per disk and hands out targets.
type Registry struct {
	mu       sync.Mutex
	storages map[string]config.StorageConfig
	disks    map[string]config.DiskConfig
	backends map[string]fs.FS
}

// NewRegistry captures the storage and disk definitions. Backends are
// created on first use so that a broken disk only fails its own targets.
func NewRegistry(cfg config.Config) *Registry {
	return &Registry{
		storages: cfg.Storages,
		disks:    cfg.Disks,
		backends: make(map[string]fs.FS),
	}
}

// WithBackend registers a prebuilt backend for a disk, replacing the driver.
func (r *Registry) WithBackend(disk string, backend fs.FS) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[disk] = backend
	return r
}

// Names lists the configured storage targets in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.storages))
	for n := range r.storages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the target called name.
func (r *Registry) Resolve(name string) (Target, error) {
	s, ok := r.storages[name]
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", ErrTargetNotFound, name)
	}
	backend, err := r.backend(s.Disk)
	if err != nil {
		return Target{}, fmt.Errorf("storage %q: %w", name, err)
	}
	return Target{Name: name, Disk: s.Disk, Path: s.Path, FS: backend}, nil
}

func (r *Registry) backend(disk string) (fs.FS, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.backends[disk]; ok {
		return b, nil
	}
	d, ok := r.disks[disk]
	if !ok {
		return nil, fmt.Errorf("%w: disk %q not defined", ErrDiskMisconfigured, disk)
	}

	var b fs.FS
	switch d.Driver {
	case "local":
		if d.Root == "" {
			return nil, fmt.Errorf("%w: disk %q has no root", ErrDiskMisconfigured, disk)
		}
		b = fs.NewLocal(d.Root)
	case "memory":
		b = fs.NewMemory()
	default:
		return nil, fmt.Errorf("%w: disk %q uses unknown driver %q", ErrDiskMisconfigured, disk, d.Driver)
	}
	r.backends[disk] = b
	return b, nil
}
