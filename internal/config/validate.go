package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

const (
	DefaultFileNameFormat = "2006-01-02_15-04-05"
	DefaultDirName        = "2006-01"
	DefaultRecentDays     = 7
	DefaultMonthlyMonths  = 12
	DefaultConcurrency    = 4
)

func withDefaults(cfg Config) Config {
	if cfg.Dump.FileNameFormat == "" {
		cfg.Dump.FileNameFormat = DefaultFileNameFormat
	}
	if cfg.Dump.DirName == "" {
		cfg.Dump.DirName = DefaultDirName
	}
	cfg.Retention = cfg.Retention.WithDefaults()
	if cfg.Inbox.Pattern == "" {
		cfg.Inbox.Pattern = "*.sql*"
	}
	if cfg.Inbox.Watch.Mode == "" {
		cfg.Inbox.Watch.Mode = "auto"
	}
	if cfg.Inbox.Watch.PollInterval <= 0 {
		cfg.Inbox.Watch.PollInterval = 5 * time.Second
	}
	if cfg.Inbox.Watch.DebounceWindow <= 0 {
		cfg.Inbox.Watch.DebounceWindow = 500 * time.Millisecond
	}
	if cfg.Inbox.Watch.StabilityWindow <= 0 {
		cfg.Inbox.Watch.StabilityWindow = 2 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.ConfigReload.Method == "" {
		cfg.ConfigReload.Method = "signal"
	}
	return cfg
}

// WithDefaults fills the tiered windows, mode and concurrency.
func (r RetentionConfig) WithDefaults() RetentionConfig {
	if r.Mode == "" {
		r.Mode = ModeTiered
	}
	if r.RecentDays <= 0 {
		r.RecentDays = DefaultRecentDays
	}
	if r.MonthlyMonths <= 0 {
		r.MonthlyMonths = DefaultMonthlyMonths
	}
	if r.Concurrency <= 0 {
		r.Concurrency = DefaultConcurrency
	}
	return r
}

// Validate reports the first invalid field.
func Validate(cfg Config) error {
	if len(cfg.Storages) == 0 {
		return invalid("storages", "at least one storage is required")
	}
	for name, d := range cfg.Disks {
		switch d.Driver {
		case "local":
			if d.Root == "" {
				return invalid("disks."+name+".root", "required for local driver")
			}
		case "memory":
		default:
			return invalid("disks."+name+".driver", fmt.Sprintf("unknown driver %q", d.Driver))
		}
	}
	for name, s := range cfg.Storages {
		if _, ok := cfg.Disks[s.Disk]; !ok {
			return invalid("storages."+name+".disk", fmt.Sprintf("disk %q not found", s.Disk))
		}
	}
	if _, err := cfg.Dump.Location(); err != nil {
		return invalid("dump.timezone", err.Error())
	}
	if err := cfg.Retention.Validate(); err != nil {
		return err
	}
	if cfg.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
			return invalid("schedule.cron", err.Error())
		}
	}
	for _, t := range cfg.Inbox.Targets {
		if _, ok := cfg.Storages[t]; !ok {
			return invalid("inbox.targets", fmt.Sprintf("storage %q not found", t))
		}
	}
	if !slices.Contains([]string{"auto", "poll", "fsnotify"}, cfg.Inbox.Watch.Mode) {
		return invalid("inbox.watch.mode", fmt.Sprintf("unknown mode %q", cfg.Inbox.Watch.Mode))
	}
	if !slices.Contains([]string{"signal", "fsnotify"}, cfg.ConfigReload.Method) {
		return invalid("configReload.method", fmt.Sprintf("unknown method %q", cfg.ConfigReload.Method))
	}
	return nil
}

// Validate checks mode and limits. Call WithDefaults first.
func (r RetentionConfig) Validate() error {
	if r.Mode != ModeTiered && r.Mode != ModeCapped {
		return invalid("retention.mode", fmt.Sprintf("unknown mode %q", r.Mode))
	}
	limits := []struct {
		name  string
		value int
	}{
		{"day", r.Day}, {"week", r.Week}, {"month", r.Month}, {"year", r.Year}, {"total", r.Total},
		{"recentDays", r.RecentDays}, {"monthlyMonths", r.MonthlyMonths}, {"concurrency", r.Concurrency},
	}
	for _, l := range limits {
		if l.value < 0 {
			return invalid("retention."+l.name, "must not be negative")
		}
	}
	return nil
}

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, field, reason)
}
