// Package schedule computes when the next automatic price update should run.
//
// A schedule is a Frequency (daily, weekly, monthly or every N days) plus a
// wall-clock TimeOfDay. NextRun is pure: it only looks at its arguments, so it
// can be tested against fixed instants.
package schedule

import (
	"fmt"
	"time"
)

// Frequency is a closed set: Daily, Weekly, Monthly and Custom are the only
// implementations.
type Frequency interface {
	// Name is the persisted identifier ("daily", "weekly", ...).
	Name() string
	isFrequency()
}

// Daily fires every day at the configured time.
type Daily struct{}

// Weekly fires on Day at the configured time.
type Weekly struct {
	Day time.Weekday
}

// Monthly fires on Day of every month, or on the last day when Last is set.
type Monthly struct {
	Day  int
	Last bool
}

// Custom fires every IntervalDays days.
type Custom struct {
	IntervalDays int
}

func (Daily) Name() string   { return "daily" }
func (Weekly) Name() string  { return "weekly" }
func (Monthly) Name() string { return "monthly" }
func (Custom) Name() string  { return "custom" }

func (Daily) isFrequency()   {}
func (Weekly) isFrequency()  {}
func (Monthly) isFrequency() {}
func (Custom) isFrequency()  {}

// TimeOfDay is an hour:minute pair.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Config is a fully-typed schedule.
type Config struct {
	Frequency Frequency
	At        TimeOfDay
}

// Period is the recurrence between two runs once the first one has fired.
//
// A monthly period is anchored to DayOfMonth (or LastDay) so that a run
// clamped to a short month returns to the anchor the month after.
type Period struct {
	Days       int  `json:"days"`
	Months     int  `json:"months"`
	DayOfMonth int  `json:"day_of_month,omitempty"`
	LastDay    bool `json:"last_day,omitempty"`
}

// Advance returns t moved forward by one period, keeping t's wall clock.
func (p Period) Advance(t time.Time) time.Time {
	if p.Months <= 0 {
		return t.AddDate(0, 0, p.Days)
	}
	first := time.Date(t.Year(), t.Month()+time.Month(p.Months), 1, 0, 0, 0, 0, t.Location())
	last := daysIn(first.Year(), first.Month())
	day := p.DayOfMonth
	if day <= 0 {
		day = t.Day()
	}
	if p.LastDay || day > last {
		day = last
	}
	next := time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return next.AddDate(0, 0, p.Days)
}

// IsZero reports whether the period would never advance.
func (p Period) IsZero() bool { return p.Days <= 0 && p.Months <= 0 }

func (p Period) String() string {
	switch {
	case p.Months == 1 && p.Days == 0:
		return "monthly"
	case p.Months == 0 && p.Days == 1:
		return "daily"
	case p.Months == 0 && p.Days == 7:
		return "weekly"
	default:
		return fmt.Sprintf("every_%dd_%dm", p.Days, p.Months)
	}
}

// PeriodOf derives the recurrence period of a frequency.
func PeriodOf(f Frequency) Period {
	switch f := f.(type) {
	case Daily:
		return Period{Days: 1}
	case Weekly:
		return Period{Days: 7}
	case Monthly:
		return Period{Months: 1, DayOfMonth: max(f.Day, 1), LastDay: f.Last}
	case Custom:
		return Period{Days: max(f.IntervalDays, 1)}
	default:
		panic(fmt.Sprintf("schedule: unknown frequency %T", f))
	}
}

// NextRun returns the next instant the update should fire, in now's location.
//
//   - daily:   today at At, or tomorrow if that is before now.
//   - weekly:  the next Day strictly after today, at At.
//   - monthly: Day (or the last day) of the month after now's month, at At.
//   - custom:  the daily candidate plus IntervalDays-1 days.
func NextRun(cfg Config, now time.Time) time.Time {
	switch f := cfg.Frequency.(type) {
	case Daily:
		return nextDaily(cfg.At, now)
	case Weekly:
		days := (int(f.Day) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		d := now.AddDate(0, 0, days)
		return at(d.Year(), d.Month(), d.Day(), cfg.At, now.Location())
	case Monthly:
		first := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
		last := daysIn(first.Year(), first.Month())
		day := f.Day
		if f.Last || day > last {
			day = last
		}
		if day < 1 {
			day = 1
		}
		return at(first.Year(), first.Month(), day, cfg.At, now.Location())
	case Custom:
		start := nextDaily(cfg.At, now)
		return start.AddDate(0, 0, max(f.IntervalDays, 1)-1)
	default:
		panic(fmt.Sprintf("schedule: unknown frequency %T", f))
	}
}

func nextDaily(t TimeOfDay, now time.Time) time.Time {
	candidate := at(now.Year(), now.Month(), now.Day(), t, now.Location())
	if candidate.Before(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func at(y int, m time.Month, d int, t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, loc)
}

// daysIn returns the number of days in month m of year y.
func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
