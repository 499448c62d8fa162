package worker

import "time"

// Kind tells the worker what a job asks for.
type Kind int

const (
	// KindPlace copies an inbox file into its targets, then applies retention.
	KindPlace Kind = iota
	// KindSweep applies retention to targets without placing anything.
	KindSweep
)

func (k Kind) String() string {
	switch k {
	case KindPlace:
		return "place"
	case KindSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// Job is one unit of work for the worker.
type Job struct {
	Kind    Kind
	Source  string   // local file, KindPlace only
	Targets []string // empty means every target the job kind applies to
	Reason  string   // "cron", "inbox", "reload"
	At      time.Time
}
