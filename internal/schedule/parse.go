package schedule

import (
	"strconv"
	"strings"
	"time"
)

// DefaultWeekday is used when a persisted frequency is not recognised.
const DefaultWeekday = time.Monday

// LastDay is the persisted sentinel for "last day of the month".
const LastDay = "last"

// RawConfig is the untyped, persisted form of a schedule.
type RawConfig struct {
	Frequency          string `json:"frequency"`
	DayOfWeek          string `json:"day_of_week"`
	DayOfMonth         string `json:"day_of_month"`
	CustomIntervalDays int    `json:"custom_interval_days"`
	TimeOfDay          string `json:"time_of_day"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Parse converts a persisted schedule into a typed Config. It never fails:
// an unrecognised frequency becomes weekly on DefaultWeekday, an unparsable
// time becomes 00:00 and out-of-range numbers are clamped.
func Parse(raw RawConfig) Config {
	cfg := Config{At: ParseTimeOfDay(raw.TimeOfDay)}

	switch strings.ToLower(strings.TrimSpace(raw.Frequency)) {
	case "daily":
		cfg.Frequency = Daily{}
	case "weekly":
		cfg.Frequency = Weekly{Day: ParseWeekday(raw.DayOfWeek)}
	case "monthly":
		cfg.Frequency = parseMonthly(raw.DayOfMonth)
	case "custom":
		cfg.Frequency = Custom{IntervalDays: max(raw.CustomIntervalDays, 1)}
	default:
		cfg.Frequency = Weekly{Day: DefaultWeekday}
	}
	return cfg
}

// Raw is the inverse of Parse.
func (c Config) Raw() RawConfig {
	raw := RawConfig{Frequency: c.Frequency.Name(), TimeOfDay: c.At.String()}
	switch f := c.Frequency.(type) {
	case Weekly:
		raw.DayOfWeek = strings.ToLower(f.Day.String())
	case Monthly:
		if f.Last {
			raw.DayOfMonth = LastDay
		} else {
			raw.DayOfMonth = strconv.Itoa(f.Day)
		}
	case Custom:
		raw.CustomIntervalDays = f.IntervalDays
	}
	return raw
}

// ParseWeekday accepts full English day names in any case.
func ParseWeekday(s string) time.Weekday {
	if d, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d
	}
	return DefaultWeekday
}

// ValidWeekday reports whether s names a day of the week.
func ValidWeekday(s string) bool {
	_, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseTimeOfDay reads "HH:MM". Anything else yields 00:00.
func ParseTimeOfDay(s string) TimeOfDay {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

func parseMonthly(s string) Monthly {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == LastDay {
		return Monthly{Last: true}
	}
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 {
		return Monthly{Day: 1}
	}
	if day > 31 {
		return Monthly{Last: true}
	}
	return Monthly{Day: day}
}
