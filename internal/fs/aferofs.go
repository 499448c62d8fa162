package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// AferoFS implements FS on top of an afero filesystem.
type AferoFS struct {
	fs afero.Fs
}

// New wraps an arbitrary afero filesystem.
func New(fsys afero.Fs) *AferoFS {
	return &AferoFS{fs: fsys}
}

// NewLocal returns a backend rooted at a directory of the OS filesystem.
func NewLocal(root string) *AferoFS {
	return New(afero.NewBasePathFs(afero.NewOsFs(), root))
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *AferoFS {
	return New(afero.NewMemMapFs())
}

// Afero exposes the underlying filesystem.
func (a *AferoFS) Afero() afero.Fs {
	return a.fs
}

// abs maps a relative slash path to the rooted form afero expects.
func abs(p string) string {
	return filepath.FromSlash(path.Join("/", p))
}

// rel turns an afero path back into the relative slash form.
func rel(p string) string {
	return strings.TrimPrefix(filepath.ToSlash(p), "/")
}

func (a *AferoFS) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	return a.walk(ctx, prefix, false)
}

func (a *AferoFS) ListDirs(ctx context.Context, prefix string) ([]string, error) {
	return a.walk(ctx, prefix, true)
}

func (a *AferoFS) walk(ctx context.Context, prefix string, dirs bool) ([]string, error) {
	root := abs(prefix)
	var out []string
	err := afero.Walk(a.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p == root {
			return nil
		}
		if info.IsDir() == dirs {
			out = append(out, rel(p))
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", prefix, err)
	}
	sort.Strings(out)
	return out, nil
}

func (a *AferoFS) ModTime(_ context.Context, p string) (time.Time, error) {
	st, err := a.fs.Stat(abs(p))
	if err != nil {
		return time.Time{}, err
	}
	return st.ModTime(), nil
}

func (a *AferoFS) Exists(_ context.Context, p string) (bool, error) {
	return afero.Exists(a.fs, abs(p))
}

func (a *AferoFS) IsEmptyDir(_ context.Context, p string) (bool, error) {
	st, err := a.fs.Stat(abs(p))
	if err != nil {
		return false, err
	}
	if !st.IsDir() {
		return false, fmt.Errorf("%s: %w", p, ErrNotDir)
	}
	entries, err := afero.ReadDir(a.fs, abs(p))
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

func (a *AferoFS) MkdirAll(_ context.Context, p string) error {
	return a.fs.MkdirAll(abs(p), 0o755)
}

func (a *AferoFS) Remove(ctx context.Context, p string) error {
	return retry(ctx, "remove", func() error {
		st, err := a.fs.Stat(abs(p))
		if err != nil {
			return err
		}
		if st.IsDir() {
			return &iofs.PathError{Op: "remove", Path: p, Err: ErrIsDir}
		}
		return a.fs.Remove(abs(p))
	})
}

// RemoveDir checks emptiness itself because afero's MemMapFs removes
// non-empty directories without complaint.
func (a *AferoFS) RemoveDir(ctx context.Context, p string) error {
	empty, err := a.IsEmptyDir(ctx, p)
	if err != nil {
		return err
	}
	if !empty {
		return &iofs.PathError{Op: "rmdir", Path: p, Err: ErrDirNotEmpty}
	}
	return retry(ctx, "rmdir", func() error {
		return a.fs.Remove(abs(p))
	})
}

func (a *AferoFS) CopyIn(ctx context.Context, src, dst string) error {
	return copyWithRetry(ctx, a.fs, src, abs(dst))
}
