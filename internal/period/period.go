// Package period provides calendar units, bucket keys and grouping of
// timestamped items.
package period

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned for an unrecognised unit name.
var ErrInvalidPeriod = errors.New("invalid period")

// Unit is a calendar field, ordered from finest to coarsest.
type Unit int

const (
	Second Unit = iota
	Minute
	Hour
	Day
	WeekOfMonth
	Month
	Year
)

var unitNames = [...]string{"second", "minute", "hour", "day", "weekOfMonth", "month", "year"}

func (u Unit) String() string {
	if u < Second || u > Year {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitNames[u]
}

// Valid reports whether u is one of the declared units.
func (u Unit) Valid() bool {
	return u >= Second && u <= Year
}

// ParseUnit maps a unit name to a Unit.
func ParseUnit(name string) (Unit, error) {
	for i, n := range unitNames {
		if n == name {
			return Unit(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, name)
}

// WeekOfMonthOf numbers weeks 1..5 counting 7-day blocks from the 1st.
func WeekOfMonthOf(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// field returns the value of a single calendar field.
func field(t time.Time, u Unit) int {
	switch u {
	case Second:
		return t.Second()
	case Minute:
		return t.Minute()
	case Hour:
		return t.Hour()
	case Day:
		return t.Day()
	case WeekOfMonth:
		return WeekOfMonthOf(t)
	case Month:
		return int(t.Month())
	default:
		return t.Year()
	}
}

// Same reports whether a and b agree on u and every coarser field.
// Same(a, b, Month) is true iff year and month match.
func Same(a, b time.Time, u Unit) (bool, error) {
	if !u.Valid() {
		return false, fmt.Errorf("%w: %s", ErrInvalidPeriod, u)
	}
	for f := u; f <= Year; f++ {
		if field(a, f) != field(b, f) {
			return false, nil
		}
	}
	return true, nil
}

// Key returns the composite bucket key of t for u, e.g. "2006" for Year,
// "2006-01" for Month and "2006-01-02" for Day. Two times share a key
// exactly when Same reports true.
func Key(t time.Time, u Unit) (string, error) {
	switch u {
	case Year:
		return t.Format("2006"), nil
	case Month:
		return t.Format("2006-01"), nil
	case WeekOfMonth:
		return fmt.Sprintf("%s-w%d", t.Format("2006-01"), WeekOfMonthOf(t)), nil
	case Day:
		return t.Format("2006-01-02"), nil
	case Hour:
		return t.Format("2006-01-02T15"), nil
	case Minute:
		return t.Format("2006-01-02T15:04"), nil
	case Second:
		return t.Format("2006-01-02T15:04:05"), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPeriod, u)
	}
}
