package retention

import (
	"fmt"
	"slices"
	"time"

	"github.com/raoulx24/dumpkeeper/internal/config"
	"github.com/raoulx24/dumpkeeper/internal/dump"
	"github.com/raoulx24/dumpkeeper/internal/period"
)

func stamp(a *dump.Artifact) time.Time { return a.LastModified() }

// Decide splits artifacts into the keep-set and the deletions without
// touching the backend. Both results keep the input order. Artifacts
// without a resolvable timestamp are kept and take no part in any limit.
func Decide(artifacts []*dump.Artifact, p Policy, now time.Time) (keep, drop []*dump.Artifact, err error) {
	dated := slices.DeleteFunc(slices.Clone(artifacts), unresolved)

	var keepSet map[string]bool
	switch p.Mode {
	case config.ModeTiered, "":
		keepSet, err = tiered(dated, p, now)
	case config.ModeCapped:
		keepSet, err = capped(dated, p)
	default:
		return nil, nil, fmt.Errorf("%w: retention.mode: unknown mode %q", config.ErrInvalid, p.Mode)
	}
	if err != nil {
		return nil, nil, err
	}

	for _, a := range artifacts {
		if keepSet[a.Path()] || unresolved(a) {
			keep = append(keep, a)
		} else {
			drop = append(drop, a)
		}
	}
	return keep, drop, nil
}

func unresolved(a *dump.Artifact) bool { return a.Source() == dump.SourceUnknown }

// tiered keeps one dump per day inside the recent window, one per month
// inside the monthly window and one per year before that.
func tiered(artifacts []*dump.Artifact, p Policy, now time.Time) (map[string]bool, error) {
	recentCutoff := now.AddDate(0, 0, -p.RecentDays)
	monthlyCutoff := now.AddDate(0, -p.MonthlyMonths, 0)

	daily, err := newestPer(artifacts, period.Day)
	if err != nil {
		return nil, err
	}

	var recent, monthly, yearly []*dump.Artifact
	for _, a := range daily {
		switch ts := a.LastModified(); {
		case !ts.Before(recentCutoff):
			recent = append(recent, a)
		case !ts.Before(monthlyCutoff):
			monthly = append(monthly, a)
		default:
			yearly = append(yearly, a)
		}
	}

	monthly, err = newestPer(monthly, period.Month)
	if err != nil {
		return nil, err
	}
	yearly, err = newestPer(yearly, period.Year)
	if err != nil {
		return nil, err
	}
	if p.Year > 0 {
		yearly = newestN(yearly, p.Year)
	}

	kept := slices.Concat(recent, monthly, yearly)
	if p.Total > 0 {
		kept = newestN(kept, p.Total)
	}

	set := make(map[string]bool, len(kept))
	for _, a := range kept {
		set[a.Path()] = true
	}
	return set, nil
}

// capped drops the oldest dump of every bucket holding more dumps than
// its tier allows. At most one dump per bucket goes per run.
func capped(artifacts []*dump.Artifact, p Policy) (map[string]bool, error) {
	tiers := []struct {
		limit int
		unit  period.Unit
	}{
		{p.Day, period.Day},
		{p.Week, period.WeekOfMonth},
		{p.Month, period.Month},
		{p.Year, period.Year},
	}

	dropped := make(map[string]bool)
	for _, tier := range tiers {
		if tier.limit <= 0 {
			continue
		}
		groups, err := period.GroupBy(artifacts, stamp, tier.unit)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			if len(g.Items) > tier.limit {
				dropped[oldest(g.Items).Path()] = true
			}
		}
	}
	if p.Total > 0 && len(artifacts) > p.Total {
		dropped[oldest(artifacts).Path()] = true
	}

	set := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		if !dropped[a.Path()] {
			set[a.Path()] = true
		}
	}
	return set, nil
}

// newestPer returns the most recent artifact of every bucket of unit, in
// bucket order. The first of equally recent artifacts wins.
func newestPer(artifacts []*dump.Artifact, unit period.Unit) ([]*dump.Artifact, error) {
	groups, err := period.GroupBy(artifacts, stamp, unit)
	if err != nil {
		return nil, err
	}
	out := make([]*dump.Artifact, 0, len(groups))
	for _, g := range groups {
		best := g.Items[0]
		for _, a := range g.Items[1:] {
			if a.LastModified().After(best.LastModified()) {
				best = a
			}
		}
		out = append(out, best)
	}
	return out, nil
}

// oldest returns the least recent artifact; the last of equals wins so
// that with newest-first input the tail is dropped.
func oldest(artifacts []*dump.Artifact) *dump.Artifact {
	worst := artifacts[0]
	for _, a := range artifacts[1:] {
		if !a.LastModified().After(worst.LastModified()) {
			worst = a
		}
	}
	return worst
}

// newestN keeps the n most recent artifacts.
func newestN(artifacts []*dump.Artifact, n int) []*dump.Artifact {
	if len(artifacts) <= n {
		return artifacts
	}
	sorted := slices.Clone(artifacts)
	slices.SortStableFunc(sorted, func(x, y *dump.Artifact) int {
		return y.LastModified().Compare(x.LastModified())
	})
	return sorted[:n]
}
