package config

import "time"

// Config is the immutable runtime configuration. It is loaded once and
// passed by value into constructors; a reload builds a new Config.
type Config struct {
	Disks        map[string]DiskConfig    `yaml:"disks"`
	Storages     map[string]StorageConfig `yaml:"storages"`
	Dump         DumpConfig               `yaml:"dump"`
	Retention    RetentionConfig          `yaml:"retention"`
	Schedule     ScheduleConfig           `yaml:"schedule"`
	Inbox        InboxConfig              `yaml:"inbox"`
	Logging      LoggingConfig            `yaml:"logging"`
	ConfigReload ReloadConfig             `yaml:"configReload"`
	Metrics      MetricsConfig            `yaml:"metrics"`
}

// DiskConfig describes a storage backend.
type DiskConfig struct {
	Driver string `yaml:"driver"` // "local", "memory"
	Root   string `yaml:"root"`
}

// StorageConfig is a named dump destination on a disk.
type StorageConfig struct {
	Disk string `yaml:"disk"`
	Path string `yaml:"path"`
}

type DumpConfig struct {
	DirName        string `yaml:"dirName"`        // Go time layout, e.g. "2006-01"
	FileNameFormat string `yaml:"fileNameFormat"` // Go time layout, e.g. "2006-01-02_15-04-05"
	Compress       bool   `yaml:"compress"`
	Timezone       string `yaml:"timezone"` // "UTC", "Local" or an IANA name
}

// Extension returns the dump file suffix.
func (d DumpConfig) Extension() string {
	if d.Compress {
		return ".sql.gz"
	}
	return ".sql"
}

// Location resolves Timezone. An empty value means UTC.
func (d DumpConfig) Location() (*time.Location, error) {
	switch d.Timezone {
	case "", "UTC":
		return time.UTC, nil
	case "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(d.Timezone)
	}
}

const (
	ModeTiered = "tiered"
	ModeCapped = "capped"
)

// RetentionConfig holds the retention limits. Zero disables a limit.
type RetentionConfig struct {
	Mode          string `yaml:"mode"` // "tiered" (default) or "capped"
	Day           int    `yaml:"day"`
	Week          int    `yaml:"week"`
	Month         int    `yaml:"month"`
	Year          int    `yaml:"year"`
	Total         int    `yaml:"total"`
	RecentDays    int    `yaml:"recentDays"`    // tiered: window with one dump per day
	MonthlyMonths int    `yaml:"monthlyMonths"` // tiered: window with one dump per month
	Concurrency   int    `yaml:"concurrency"`
}

type ScheduleConfig struct {
	Cron string `yaml:"cron"` // empty disables scheduled sweeps
}

// InboxConfig describes the directory where an external dump tool drops
// finished dumps.
type InboxConfig struct {
	Path             string      `yaml:"path"`
	Pattern          string      `yaml:"pattern"` // glob on the base name
	Targets          []string    `yaml:"targets"`
	RemoveAfterPlace bool        `yaml:"removeAfterPlace"`
	Watch            WatchConfig `yaml:"watch"`
}

type WatchConfig struct {
	Mode            string        `yaml:"mode"`           // "auto", "poll", "fsnotify"
	PollInterval    time.Duration `yaml:"pollInterval"`   // e.g. 5s
	DebounceWindow  time.Duration `yaml:"debounceWindow"` // e.g. 500ms
	StabilityWindow time.Duration `yaml:"stabilityWindow"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "text", "logfmt"
}

type ReloadConfig struct {
	Enabled bool   `yaml:"enabled"`
	Method  string `yaml:"method"` // "signal", "fsnotify"
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the /metrics listener
}
