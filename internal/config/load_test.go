package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
disks:
  backups:
    driver: local
    root: $(DUMPKEEPER_TEST_ROOT)
storages:
  primary:
    disk: backups
    path: mysql
dump:
  compress: true
retention:
  year: 3
schedule:
  cron: "0 3 * * *"
inbox:
  path: /var/spool/dumps
  targets: [primary]
  watch:
    pollInterval: 10s
`

func TestParseExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("DUMPKEEPER_TEST_ROOT", "/srv/backups")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/srv/backups", cfg.Disks["backups"].Root)
	assert.Equal(t, "mysql", cfg.Storages["primary"].Path)
	assert.Equal(t, ".sql.gz", cfg.Dump.Extension())
	assert.Equal(t, DefaultFileNameFormat, cfg.Dump.FileNameFormat)
	assert.Equal(t, DefaultDirName, cfg.Dump.DirName)
	assert.Equal(t, ModeTiered, cfg.Retention.Mode)
	assert.Equal(t, 7, cfg.Retention.RecentDays)
	assert.Equal(t, 12, cfg.Retention.MonthlyMonths)
	assert.Equal(t, 3, cfg.Retention.Year)
	assert.Equal(t, 10*time.Second, cfg.Inbox.Watch.PollInterval)
	assert.Equal(t, "auto", cfg.Inbox.Watch.Mode)
	assert.Equal(t, "info", cfg.Logging.Level)

	loc, err := cfg.Dump.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestParseRejectsInvalidFields(t *testing.T) {
	cases := []struct {
		name  string
		doc   string
		field string
	}{
		{
			name:  "no storages",
			doc:   "disks: {d: {driver: memory}}",
			field: "storages",
		},
		{
			name:  "unknown disk",
			doc:   "storages: {s: {disk: nope}}",
			field: "storages.s.disk",
		},
		{
			name:  "unknown driver",
			doc:   "disks: {d: {driver: ftp}}\nstorages: {s: {disk: d}}",
			field: "disks.d.driver",
		},
		{
			name:  "local without root",
			doc:   "disks: {d: {driver: local}}\nstorages: {s: {disk: d}}",
			field: "disks.d.root",
		},
		{
			name:  "negative limit",
			doc:   "disks: {d: {driver: memory}}\nstorages: {s: {disk: d}}\nretention: {month: -1}",
			field: "retention.month",
		},
		{
			name:  "unknown mode",
			doc:   "disks: {d: {driver: memory}}\nstorages: {s: {disk: d}}\nretention: {mode: fifo}",
			field: "retention.mode",
		},
		{
			name:  "bad cron",
			doc:   "disks: {d: {driver: memory}}\nstorages: {s: {disk: d}}\nschedule: {cron: 'every day'}",
			field: "schedule.cron",
		},
		{
			name:  "bad timezone",
			doc:   "disks: {d: {driver: memory}}\nstorages: {s: {disk: d}}\ndump: {timezone: Mars/Olympus}",
			field: "dump.timezone",
		},
		{
			name:  "unknown inbox target",
			doc:   "disks: {d: {driver: memory}}\nstorages: {s: {disk: d}}\ninbox: {targets: [x]}",
			field: "inbox.targets",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestLoadReadsFileAndEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	cfgPath := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(envPath, []byte("DUMPKEEPER_ENVFILE_ROOT=/from/dotenv\n"), 0o600))
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
disks: {d: {driver: local, root: $(DUMPKEEPER_ENVFILE_ROOT)}}
storages: {s: {disk: d, path: dumps}}
`), 0o600))

	t.Cleanup(func() { _ = os.Unsetenv("DUMPKEEPER_ENVFILE_ROOT") })
	require.NoError(t, LoadEnvFile(envPath))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.Disks["d"].Root)
}

func TestLoadEnvFileMissingIsIgnored(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, LoadEnvFile(""))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}
