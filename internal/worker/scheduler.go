package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/dumpkeeper/internal/logging"
	"github.com/raoulx24/dumpkeeper/internal/mailbox"
)

// Scheduler puts a sweep job into the mailbox on every cron tick. Ticks
// that land while a sweep is still pending collapse into it.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location
	log  logging.Logger
}

// NewScheduler parses a standard five-field spec evaluated in loc.
func NewScheduler(spec string, loc *time.Location, mb *mailbox.Mailbox[Job], log logging.Logger) (*Scheduler, error) {
	if log == nil {
		log = logging.Nop{}
	}
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{log}))
	_, err := c.AddFunc(spec, func() {
		log.Debug("cron tick", "spec", spec)
		mb.Put(Job{Kind: KindSweep, Reason: "cron", At: time.Now()})
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, loc: loc, log: log}, nil
}

// Next returns the upcoming tick. Parsed schedules evaluate in the zone of
// the time they are given, so now is moved into the cron location first.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(time.Now().In(s.loc))
}

// Start runs the schedule until ctx is done and waits for a running tick.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.log.Info("scheduler started", "next", s.Next())
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct{ log logging.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
