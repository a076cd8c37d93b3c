package settings

import (
	"fmt"
	"time"

	"fuelsurcharge/internal/config"
	"fuelsurcharge/internal/feed"
	"fuelsurcharge/internal/schedule"
	"fuelsurcharge/internal/surcharge"

	"github.com/shopspring/decimal"
)

// SeriesFromConfig returns the deployment-level request parameters.
func SeriesFromConfig(cfg *config.Config) feed.Series {
	s := feed.DefaultSeries()
	if cfg.EIABaseURL != "" {
		s.BaseURL = cfg.EIABaseURL
	}
	if cfg.EIASeriesProduct != "" {
		s.Product = cfg.EIASeriesProduct
	}
	if cfg.EIASeriesArea != "" {
		s.Area = cfg.EIASeriesArea
	}
	if cfg.EIAFetchLength > 0 {
		s.Length = cfg.EIAFetchLength
	}
	return s
}

// FromConfig builds the snapshot used to seed the settings row.
func FromConfig(cfg *config.Config) (Snapshot, error) {
	calc, err := calculationFromConfig(cfg)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		APIKey:     cfg.EIAAPIKey,
		CacheTTL:   time.Duration(cfg.CacheTTLMinutes) * time.Minute,
		MaxRetries: cfg.MaxRetries,
		Series:     SeriesFromConfig(cfg),
		Schedule: schedule.Parse(schedule.RawConfig{
			Frequency:          cfg.ScheduleFrequency,
			DayOfWeek:          cfg.ScheduleDayOfWeek,
			DayOfMonth:         cfg.ScheduleDayOfMonth,
			CustomIntervalDays: cfg.ScheduleCustomIntervalDays,
			TimeOfDay:          cfg.ScheduleTime,
		}),
		Calculation: calc,
	}, nil
}

func calculationFromConfig(cfg *config.Config) (surcharge.Config, error) {
	calc := surcharge.DefaultConfig()
	for _, f := range []struct {
		key string
		raw string
		dst *decimal.Decimal
	}{
		{"BASE_THRESHOLD", cfg.BaseThreshold, &calc.BaseThreshold},
		{"INCREMENT_AMOUNT", cfg.IncrementAmount, &calc.IncrementAmount},
		{"PERCENTAGE_RATE", cfg.PercentageRate, &calc.PercentageRate},
	} {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return surcharge.Config{}, fmt.Errorf("settings: %s: %w", f.key, err)
		}
		*f.dst = d
	}
	if err := calc.Validate(); err != nil {
		return surcharge.Config{}, fmt.Errorf("settings: %w", err)
	}
	return calc, nil
}
