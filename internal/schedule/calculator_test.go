package schedule_test

import (
	"testing"
	"time"

	"fuelsurcharge/internal/schedule"

	"github.com/stretchr/testify/assert"
)

func ts(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNextRunDaily(t *testing.T) {
	cfg := schedule.Config{Frequency: schedule.Daily{}, At: schedule.TimeOfDay{Hour: 12}}

	assert.Equal(t, ts(2024, 1, 2, 12, 0), schedule.NextRun(cfg, ts(2024, 1, 1, 13, 0)), "time already passed today, so tomorrow")
	assert.Equal(t, ts(2024, 1, 1, 12, 0), schedule.NextRun(cfg, ts(2024, 1, 1, 9, 30)), "still ahead today")
	assert.Equal(t, ts(2024, 1, 1, 12, 0), schedule.NextRun(cfg, ts(2024, 1, 1, 12, 0)), "exactly now counts")
}

func TestNextRunWeekly(t *testing.T) {
	cfg := schedule.Config{Frequency: schedule.Weekly{Day: time.Tuesday}, At: schedule.TimeOfDay{Hour: 12}}

	// 2024-01-01 is a Monday.
	assert.Equal(t, ts(2024, 1, 2, 12, 0), schedule.NextRun(cfg, ts(2024, 1, 1, 0, 0)))

	// Same weekday with the time still ahead still jumps a full week.
	assert.Equal(t, ts(2024, 1, 9, 12, 0), schedule.NextRun(cfg, ts(2024, 1, 2, 8, 0)))

	// Saturday rolls to the following Tuesday.
	assert.Equal(t, ts(2024, 1, 9, 12, 0), schedule.NextRun(cfg, ts(2024, 1, 6, 18, 0)))
}

func TestNextRunMonthly(t *testing.T) {
	last := schedule.Config{Frequency: schedule.Monthly{Last: true}}
	assert.Equal(t, ts(2024, 2, 29, 0, 0), schedule.NextRun(last, ts(2024, 1, 15, 0, 0)))
	assert.Equal(t, ts(2025, 2, 28, 0, 0), schedule.NextRun(last, ts(2025, 1, 31, 23, 0)))

	fifteenth := schedule.Config{Frequency: schedule.Monthly{Day: 15}, At: schedule.TimeOfDay{Hour: 6, Minute: 30}}
	assert.Equal(t, ts(2024, 2, 15, 6, 30), schedule.NextRun(fifteenth, ts(2024, 1, 1, 0, 0)))
	assert.Equal(t, ts(2025, 1, 15, 6, 30), schedule.NextRun(fifteenth, ts(2024, 12, 20, 0, 0)), "rolls the year")

	thirtyFirst := schedule.Config{Frequency: schedule.Monthly{Day: 31}}
	assert.Equal(t, ts(2024, 4, 30, 0, 0), schedule.NextRun(thirtyFirst, ts(2024, 3, 31, 1, 0)), "clamped to month length")
}

func TestNextRunCustom(t *testing.T) {
	cfg := schedule.Config{Frequency: schedule.Custom{IntervalDays: 3}, At: schedule.TimeOfDay{Hour: 12}}

	assert.Equal(t, ts(2024, 1, 3, 12, 0), schedule.NextRun(cfg, ts(2024, 1, 1, 9, 0)))
	assert.Equal(t, ts(2024, 1, 4, 12, 0), schedule.NextRun(cfg, ts(2024, 1, 1, 13, 0)))

	one := schedule.Config{Frequency: schedule.Custom{IntervalDays: 1}, At: schedule.TimeOfDay{Hour: 12}}
	assert.Equal(t, ts(2024, 1, 1, 12, 0), schedule.NextRun(one, ts(2024, 1, 1, 9, 0)))
}

func TestNextRunKeepsLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	cfg := schedule.Config{Frequency: schedule.Daily{}, At: schedule.TimeOfDay{Hour: 8}}

	got := schedule.NextRun(cfg, time.Date(2024, 3, 1, 9, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}

func TestPeriodOf(t *testing.T) {
	assert.Equal(t, schedule.Period{Days: 1}, schedule.PeriodOf(schedule.Daily{}))
	assert.Equal(t, schedule.Period{Days: 7}, schedule.PeriodOf(schedule.Weekly{Day: time.Friday}))
	assert.Equal(t, schedule.Period{Months: 1, DayOfMonth: 1, LastDay: true}, schedule.PeriodOf(schedule.Monthly{Last: true}))
	assert.Equal(t, schedule.Period{Months: 1, DayOfMonth: 31}, schedule.PeriodOf(schedule.Monthly{Day: 31}))
	assert.Equal(t, schedule.Period{Days: 10}, schedule.PeriodOf(schedule.Custom{IntervalDays: 10}))

	assert.Equal(t, ts(2024, 2, 15, 0, 0), schedule.Period{Months: 1}.Advance(ts(2024, 1, 15, 0, 0)))
}

func TestMonthlyAdvanceReturnsToAnchorAfterShortMonth(t *testing.T) {
	last := schedule.PeriodOf(schedule.Monthly{Last: true})
	want := []time.Time{
		ts(2024, 2, 29, 12, 0),
		ts(2024, 3, 31, 12, 0),
		ts(2024, 4, 30, 12, 0),
		ts(2024, 5, 31, 12, 0),
	}
	got := ts(2024, 1, 31, 12, 0)
	for _, w := range want {
		got = last.Advance(got)
		assert.Equal(t, w, got)
	}

	thirtieth := schedule.PeriodOf(schedule.Monthly{Day: 30})
	feb := thirtieth.Advance(ts(2025, 1, 30, 6, 0))
	assert.Equal(t, ts(2025, 2, 28, 6, 0), feb, "clamped to the end of February")
	assert.Equal(t, ts(2025, 3, 30, 6, 0), thirtieth.Advance(feb), "back on the 30th")
}

func TestParse(t *testing.T) {
	cfg := schedule.Parse(schedule.RawConfig{Frequency: "weekly", DayOfWeek: "Tuesday", TimeOfDay: "12:00"})
	assert.Equal(t, schedule.Weekly{Day: time.Tuesday}, cfg.Frequency)
	assert.Equal(t, schedule.TimeOfDay{Hour: 12}, cfg.At)

	cfg = schedule.Parse(schedule.RawConfig{Frequency: "monthly", DayOfMonth: "last", TimeOfDay: "bogus"})
	assert.Equal(t, schedule.Monthly{Last: true}, cfg.Frequency)
	assert.Equal(t, schedule.TimeOfDay{}, cfg.At)

	cfg = schedule.Parse(schedule.RawConfig{Frequency: "custom", CustomIntervalDays: 0})
	assert.Equal(t, schedule.Custom{IntervalDays: 1}, cfg.Frequency)

	cfg = schedule.Parse(schedule.RawConfig{Frequency: "hourly", TimeOfDay: "07:45"})
	assert.Equal(t, schedule.Weekly{Day: schedule.DefaultWeekday}, cfg.Frequency, "unknown frequency falls back to weekly")
	assert.Equal(t, schedule.TimeOfDay{Hour: 7, Minute: 45}, cfg.At)
}

func TestRawRoundTrip(t *testing.T) {
	raws := []schedule.RawConfig{
		{Frequency: "daily", TimeOfDay: "05:00"},
		{Frequency: "weekly", DayOfWeek: "friday", TimeOfDay: "12:30"},
		{Frequency: "monthly", DayOfMonth: "last", TimeOfDay: "00:00"},
		{Frequency: "monthly", DayOfMonth: "10", TimeOfDay: "23:59"},
		{Frequency: "custom", CustomIntervalDays: 14, TimeOfDay: "01:15"},
	}
	for _, raw := range raws {
		assert.Equal(t, raw, schedule.Parse(raw).Raw(), raw.Frequency)
	}
}
