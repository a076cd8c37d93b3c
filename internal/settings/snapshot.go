// Package settings defines the read-only view of the admin-editable
// configuration that every pipeline and scheduler call receives.
package settings

import (
	"context"
	"time"

	"fuelsurcharge/internal/feed"
	"fuelsurcharge/internal/model"
	"fuelsurcharge/internal/schedule"
	"fuelsurcharge/internal/surcharge"
)

// Snapshot is an immutable copy of the current settings. Components take one
// per call instead of reading shared mutable state.
type Snapshot struct {
	APIKey      string
	CacheTTL    time.Duration
	MaxRetries  int
	Series      feed.Series
	Schedule    schedule.Config
	Calculation surcharge.Config
}

// Provider hands out the current snapshot.
type Provider interface {
	Current(ctx context.Context) (Snapshot, error)
}

// Static always returns the same snapshot.
type Static Snapshot

func (s Static) Current(context.Context) (Snapshot, error) { return Snapshot(s), nil }

// FromModel builds a snapshot from the persisted row. series carries the
// deployment-level request parameters that are not admin-editable.
func FromModel(m *model.Settings, series feed.Series) Snapshot {
	return Snapshot{
		APIKey:     m.APIKey,
		CacheTTL:   time.Duration(m.CacheTTLMinutes) * time.Minute,
		MaxRetries: m.MaxRetries,
		Series:     series,
		Schedule: schedule.Parse(schedule.RawConfig{
			Frequency:          m.ScheduleFrequency,
			DayOfWeek:          m.ScheduleDayOfWeek,
			DayOfMonth:         m.ScheduleDayOfMonth,
			CustomIntervalDays: m.ScheduleCustomIntervalDays,
			TimeOfDay:          m.ScheduleTime,
		}),
		Calculation: surcharge.Config{
			BaseThreshold:   m.BaseThreshold,
			IncrementAmount: m.IncrementAmount,
			PercentageRate:  m.PercentageRate,
		},
	}
}

// ToModel is the inverse of FromModel, minus the series.
func (s Snapshot) ToModel() *model.Settings {
	raw := s.Schedule.Raw()
	return &model.Settings{
		ID:                         model.SettingsRowID,
		APIKey:                     s.APIKey,
		CacheTTLMinutes:            int(s.CacheTTL / time.Minute),
		MaxRetries:                 s.MaxRetries,
		ScheduleFrequency:          raw.Frequency,
		ScheduleDayOfWeek:          raw.DayOfWeek,
		ScheduleDayOfMonth:         raw.DayOfMonth,
		ScheduleCustomIntervalDays: raw.CustomIntervalDays,
		ScheduleTime:               raw.TimeOfDay,
		BaseThreshold:              s.Calculation.BaseThreshold,
		IncrementAmount:            s.Calculation.IncrementAmount,
		PercentageRate:             s.Calculation.PercentageRate,
	}
}
