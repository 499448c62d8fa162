package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/dumpkeeper/internal/config"
	"github.com/raoulx24/dumpkeeper/internal/fs"
	"github.com/raoulx24/dumpkeeper/internal/retention"
	"github.com/raoulx24/dumpkeeper/internal/storage"
)

const testYAML = `
disks:
  mem:
    driver: memory
storages:
  primary:
    disk: mem
    path: mysql
  secondary:
    disk: mem
    path: replica
dump:
  compress: true
retention:
  recentDays: 2
`

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type placed struct{ target, status string }

type recorder struct {
	runs   []string
	placed []placed
}

func (r *recorder) ObserveRetention(target, _ string, _, _, _ int, _ float64) {
	r.runs = append(r.runs, target)
}

func (r *recorder) IncPlaced(target, status string) {
	r.placed = append(r.placed, placed{target, status})
}

func newService(t *testing.T) (*Service, *fs.AferoFS, *recorder) {
	t.Helper()
	cfg, err := config.Parse([]byte(testYAML))
	require.NoError(t, err)

	mem := fs.NewMemory()
	rec := &recorder{}
	svc, err := New(cfg, storage.NewRegistry(cfg).WithBackend("mem", mem), nil, rec)
	require.NoError(t, err)
	return svc.WithClock(func() time.Time { return now }), mem, rec
}

func seedDump(t *testing.T, mem *fs.AferoFS, p string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(mem.Afero(), "/"+p, []byte("x"), 0o644))
}

func TestTargets(t *testing.T) {
	svc, _, _ := newService(t)
	assert.Equal(t, []string{"primary", "secondary"}, svc.Targets())
}

func TestListArtifactsIsScopedToTarget(t *testing.T) {
	svc, mem, _ := newService(t)
	seedDump(t, mem, "mysql/2024-06/2024-06-14_03-00-00.sql.gz")
	seedDump(t, mem, "mysql/2024-06/2024-06-13_03-00-00.sql.gz")
	seedDump(t, mem, "replica/2024-06/2024-06-14_03-00-00.sql.gz")

	list, err := svc.ListArtifacts(context.Background(), "primary")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "mysql/2024-06/2024-06-14_03-00-00.sql.gz", list[0].Path())
}

func TestUnknownTarget(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.ListArtifacts(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrTargetNotFound)
	_, err = svc.ApplyRetention(context.Background(), "nope", svc.Policy())
	assert.ErrorIs(t, err, storage.ErrTargetNotFound)
	_, _, err = svc.Place(context.Background(), "nope", "/dev/null")
	assert.ErrorIs(t, err, storage.ErrTargetNotFound)
}

func TestApplyRetentionUsesPolicy(t *testing.T) {
	svc, mem, rec := newService(t)
	for _, d := range []string{"14", "13", "12", "11", "10"} {
		seedDump(t, mem, "mysql/2024-06/2024-06-"+d+"_03-00-00.sql.gz")
	}

	p := svc.Policy()
	assert.Equal(t, 2, p.RecentDays)
	p.DryRun = true
	report, err := svc.ApplyRetention(context.Background(), "primary", p)
	require.NoError(t, err)

	// 14 is recent, 13..10 collapse into June
	assert.Len(t, report.Kept, 2)
	assert.Len(t, report.Deleted, 3)
	assert.Equal(t, []string{"primary"}, rec.runs)

	files, err := mem.ListFiles(context.Background(), "mysql")
	require.NoError(t, err)
	assert.Len(t, files, 5, "dry run")
}

func TestPlaceCopiesAndApplies(t *testing.T) {
	svc, mem, rec := newService(t)
	seedDump(t, mem, "mysql/2024-06/2024-06-15_01-00-00.sql.gz")

	src := filepath.Join(t.TempDir(), "latest.sql.gz")
	require.NoError(t, os.WriteFile(src, []byte("dump"), 0o600))

	a, report, err := svc.Place(context.Background(), "primary", src)
	require.NoError(t, err)
	assert.Equal(t, "mysql/2024-06/2024-06-15_12-00-00.sql.gz", a.Path())
	require.NotNil(t, report)
	assert.Equal(t, []string{a.Path()}, report.Kept, "newest of the day wins")
	assert.Equal(t, []string{"mysql/2024-06/2024-06-15_01-00-00.sql.gz"}, report.Deleted)

	again, report, err := svc.Place(context.Background(), "primary", src)
	require.NoError(t, err)
	assert.Equal(t, "mysql/2024-06/2024-06-15_12-00-01.sql.gz", again.Path(), "same second gets the next name")
	assert.Equal(t, []string{a.Path()}, report.Deleted)
	assert.Equal(t, []placed{{"primary", "ok"}, {"primary", "ok"}}, rec.placed)
}

func TestPlaceMissingSource(t *testing.T) {
	svc, _, rec := newService(t)
	_, _, err := svc.Place(context.Background(), "primary", filepath.Join(t.TempDir(), "absent.sql"))
	require.Error(t, err)
	assert.Equal(t, []placed{{"primary", "error"}}, rec.placed)
}

func TestNewRejectsBadTimezone(t *testing.T) {
	cfg, err := config.Parse([]byte(testYAML))
	require.NoError(t, err)
	cfg.Dump.Timezone = "Mars/Olympus"

	_, err = New(cfg, storage.NewRegistry(cfg), nil, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestPolicyOverride(t *testing.T) {
	svc, mem, _ := newService(t)
	seedDump(t, mem, "mysql/2024-06/2024-06-14_03-00-00.sql.gz")
	seedDump(t, mem, "mysql/2024-06/2024-06-14_02-00-00.sql.gz")

	p := retention.PolicyFrom(config.RetentionConfig{Mode: config.ModeCapped, Day: 5})
	report, err := svc.ApplyRetention(context.Background(), "primary", p)
	require.NoError(t, err)
	assert.Empty(t, report.Deleted)
}
