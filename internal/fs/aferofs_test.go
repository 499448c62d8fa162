package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(t *testing.T) {
	t.Helper()
	orig := backoff
	backoff.base = time.Millisecond
	t.Cleanup(func() { backoff = orig })
}

func seed(t *testing.T, fsys afero.Fs, files ...string) {
	t.Helper()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fsys, abs(f), []byte(f), 0o644))
	}
}

func TestListFilesAndDirs(t *testing.T) {
	m := NewMemory()
	seed(t, m.Afero(),
		"mysql/2024-02/2024-02-01_00-00-00.sql",
		"mysql/2024-01/2024-01-31_00-00-00.sql",
		"mysql/2024-01/nested/x.sql",
		"other/ignored.sql",
	)
	require.NoError(t, m.MkdirAll(context.Background(), "mysql/empty"))

	files, err := m.ListFiles(context.Background(), "mysql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"mysql/2024-01/2024-01-31_00-00-00.sql",
		"mysql/2024-01/nested/x.sql",
		"mysql/2024-02/2024-02-01_00-00-00.sql",
	}, files)

	dirs, err := m.ListDirs(context.Background(), "mysql")
	require.NoError(t, err)
	assert.Equal(t, []string{"mysql/2024-01", "mysql/2024-01/nested", "mysql/2024-02", "mysql/empty"}, dirs)
}

func TestListMissingPrefixIsEmpty(t *testing.T) {
	files, err := NewMemory().ListFiles(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRemoveDirRefusesNonEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seed(t, m.Afero(), "a/b/file.sql")

	err := m.RemoveDir(ctx, "a/b")
	require.ErrorIs(t, err, ErrDirNotEmpty)

	require.NoError(t, m.Remove(ctx, "a/b/file.sql"))
	empty, err := m.IsEmptyDir(ctx, "a/b")
	require.NoError(t, err)
	assert.True(t, empty)
	require.NoError(t, m.RemoveDir(ctx, "a/b"))

	ok, err := m.Exists(ctx, "a/b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveIsNotIdempotent(t *testing.T) {
	fastBackoff(t)
	ctx := context.Background()
	m := NewMemory()
	seed(t, m.Afero(), "x.sql")

	require.NoError(t, m.Remove(ctx, "x.sql"))
	err := m.Remove(ctx, "x.sql")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRemoveRejectsDirectory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.MkdirAll(ctx, "dir"))
	assert.ErrorIs(t, m.Remove(ctx, "dir"), ErrIsDir)
}

func TestCopyInLocalBackend(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "dump.sql")
	require.NoError(t, os.WriteFile(src, []byte("CREATE TABLE t;"), 0o600))

	l := NewLocal(root)
	require.NoError(t, l.MkdirAll(ctx, "mysql/2024-05"))
	require.NoError(t, l.CopyIn(ctx, src, "mysql/2024-05/2024-05-01_10-00-00.sql"))

	data, err := os.ReadFile(filepath.Join(root, "mysql", "2024-05", "2024-05-01_10-00-00.sql"))
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE t;", string(data))

	files, err := l.ListFiles(ctx, "mysql")
	require.NoError(t, err)
	assert.Equal(t, []string{"mysql/2024-05/2024-05-01_10-00-00.sql"}, files, "no temporary file left behind")
}

func TestModTime(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seed(t, m.Afero(), "f.sql")
	want := time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.Afero().Chtimes(abs("f.sql"), want, want))

	got, err := m.ModTime(ctx, "f.sql")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestRetryTransient(t *testing.T) {
	fastBackoff(t)
	calls := 0
	err := retry(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return syscall.EBUSY
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPermanentStopsImmediately(t *testing.T) {
	fastBackoff(t)
	calls := 0
	err := retry(context.Background(), "op", func() error {
		calls++
		return os.ErrPermission
	})
	require.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUp(t *testing.T) {
	fastBackoff(t)
	calls := 0
	err := retry(context.Background(), "op", func() error {
		calls++
		return syscall.EAGAIN
	})
	require.ErrorIs(t, err, syscall.EAGAIN)
	assert.Equal(t, backoff.attempts, calls)
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry(ctx, "op", func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
