// Package fs defines the storage adapter used by dumpkeeper and its
// afero-backed implementation.
//
// Paths handed to and returned from an FS are slash separated and relative
// to the backend root. Listings are recursive and in lexical order.
package fs

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotDir      = errors.New("not a directory")
	ErrIsDir       = errors.New("is a directory")
	ErrDirNotEmpty = errors.New("directory not empty")
)

// FileInfo describes a local source file.
type FileInfo struct {
	Path  string
	Size  int64
	MTime time.Time
	Inode uint64
}

type FS interface {
	// ListFiles returns every regular file below prefix.
	ListFiles(ctx context.Context, prefix string) ([]string, error)
	// ListDirs returns every directory below prefix, prefix itself excluded.
	ListDirs(ctx context.Context, prefix string) ([]string, error)
	// ModTime reports the modification time in the backend's native zone.
	ModTime(ctx context.Context, path string) (time.Time, error)
	Exists(ctx context.Context, path string) (bool, error)
	IsEmptyDir(ctx context.Context, path string) (bool, error)
	MkdirAll(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
	// RemoveDir fails with ErrDirNotEmpty unless the directory is empty.
	RemoveDir(ctx context.Context, path string) error
	// CopyIn copies a file from the local filesystem into the backend.
	CopyIn(ctx context.Context, src, dst string) error
}
