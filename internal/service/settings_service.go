package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"fuelsurcharge/internal/activity"
	"fuelsurcharge/internal/dto"
	"fuelsurcharge/internal/infra"
	"fuelsurcharge/internal/repository"
	"fuelsurcharge/internal/schedule"
	"fuelsurcharge/internal/settings"
	"fuelsurcharge/internal/surcharge"
)

// ErrInvalidSettings wraps every rejection of a settings update.
var ErrInvalidSettings = errors.New("invalid settings")

// Rescheduler recomputes the next automatic run after a schedule change.
type Rescheduler interface {
	ScheduleUpdate(ctx context.Context) error
}

// SettingsService owns the persisted settings row and hands out read-only
// snapshots of it.
type SettingsService interface {
	settings.Provider

	// Seed writes defaults on first start. An existing row is left alone.
	Seed(ctx context.Context) error
	Get(ctx context.Context) (*dto.SettingsResponse, error)
	Update(ctx context.Context, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)

	// SetRescheduler breaks the construction cycle with the scheduler, which
	// itself reads snapshots from this service.
	SetRescheduler(r Rescheduler)
}

type settingsService struct {
	repo     repository.SettingsRepository
	defaults settings.Snapshot
	cache    infra.PriceCache
	sink     activity.Sink

	mu          sync.RWMutex
	rescheduler Rescheduler
}

func NewSettingsService(repo repository.SettingsRepository, defaults settings.Snapshot, cache infra.PriceCache, sink activity.Sink) SettingsService {
	return &settingsService{repo: repo, defaults: defaults, cache: cache, sink: activity.OrNop(sink)}
}

func (s *settingsService) SetRescheduler(r Rescheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rescheduler = r
}

func (s *settingsService) Seed(ctx context.Context) error {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return fmt.Errorf("settings: load: %w", err)
	}
	if row != nil {
		return nil
	}
	if err := s.repo.Save(ctx, s.defaults.ToModel()); err != nil {
		return fmt.Errorf("settings: seed: %w", err)
	}
	s.sink.Append(ctx, activity.TypeSettings, "Seeded settings from environment", map[string]any{
		"api_key_configured": s.defaults.APIKey != "",
		"schedule":           s.defaults.Schedule.Frequency.Name(),
	})
	return nil
}

// Current reads the row on every call so that a change made by another
// process is picked up by the next run.
func (s *settingsService) Current(ctx context.Context) (settings.Snapshot, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return settings.Snapshot{}, err
	}
	if row == nil {
		return s.defaults, nil
	}
	return settings.FromModel(row, s.defaults.Series), nil
}

func (s *settingsService) Get(ctx context.Context) (*dto.SettingsResponse, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return settingsToResponse(snap), nil
}

func (s *settingsService) Update(ctx context.Context, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	before, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	after, err := applySettings(before, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, after.ToModel()); err != nil {
		return nil, fmt.Errorf("settings: save: %w", err)
	}

	apiChanged := before.APIKey != after.APIKey
	scheduleChanged := before.Schedule.Raw() != after.Schedule.Raw()
	s.sink.Append(ctx, activity.TypeSettings, "Settings updated", map[string]any{
		"api_key_changed":  apiChanged,
		"schedule_changed": scheduleChanged,
		"schedule":         after.Schedule.Raw(),
		"cache_ttl":        after.CacheTTL.String(),
		"max_retries":      after.MaxRetries,
	})

	// A cached body fetched with another key may belong to another account.
	if apiChanged {
		s.cache.Clear(ctx, infra.PriceCacheKey)
		s.sink.Append(ctx, activity.TypeCache, "Cleared price cache after API settings change", nil)
	}

	if scheduleChanged {
		s.mu.RLock()
		r := s.rescheduler
		s.mu.RUnlock()
		if r != nil {
			if err := r.ScheduleUpdate(ctx); err != nil {
				return nil, fmt.Errorf("settings: reschedule: %w", err)
			}
		}
	}
	return settingsToResponse(after), nil
}

func applySettings(snap settings.Snapshot, req dto.UpdateSettingsRequest) (settings.Snapshot, error) {
	if req.APIKey != nil {
		snap.APIKey = strings.TrimSpace(*req.APIKey)
	}
	if req.CacheTTLMinutes != nil {
		snap.CacheTTL = time.Duration(*req.CacheTTLMinutes) * time.Minute
	}
	if req.MaxRetries != nil {
		snap.MaxRetries = *req.MaxRetries
	}

	raw := snap.Schedule.Raw()
	if req.ScheduleFrequency != nil {
		raw.Frequency = *req.ScheduleFrequency
	}
	if req.ScheduleDayOfWeek != nil {
		if !schedule.ValidWeekday(*req.ScheduleDayOfWeek) {
			return snap, fmt.Errorf("%w: unknown day of week %q", ErrInvalidSettings, *req.ScheduleDayOfWeek)
		}
		raw.DayOfWeek = *req.ScheduleDayOfWeek
	}
	if req.ScheduleDayOfMonth != nil {
		if err := validDayOfMonth(*req.ScheduleDayOfMonth); err != nil {
			return snap, err
		}
		raw.DayOfMonth = *req.ScheduleDayOfMonth
	}
	if req.ScheduleCustomIntervalDays != nil {
		raw.CustomIntervalDays = *req.ScheduleCustomIntervalDays
	}
	if req.ScheduleTime != nil {
		raw.TimeOfDay = *req.ScheduleTime
	}
	// Switching frequency keeps day fields from the request, or falls back to
	// sensible values for the new frequency.
	if raw.DayOfWeek == "" {
		raw.DayOfWeek = strings.ToLower(schedule.DefaultWeekday.String())
	}
	if raw.DayOfMonth == "" {
		raw.DayOfMonth = "1"
	}
	if raw.CustomIntervalDays == 0 {
		raw.CustomIntervalDays = 7
	}
	snap.Schedule = schedule.Parse(raw)

	calc := snap.Calculation
	if req.BaseThreshold != nil {
		calc.BaseThreshold = *req.BaseThreshold
	}
	if req.IncrementAmount != nil {
		calc.IncrementAmount = *req.IncrementAmount
	}
	if req.PercentageRate != nil {
		calc.PercentageRate = *req.PercentageRate
	}
	if err := calc.Validate(); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	snap.Calculation = calc
	return snap, nil
}

func validDayOfMonth(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == schedule.LastDay {
		return nil
	}
	d, err := strconv.Atoi(s)
	if err != nil || d < 1 || d > 31 {
		return fmt.Errorf("%w: day of month must be 1-31 or %q", ErrInvalidSettings, schedule.LastDay)
	}
	return nil
}

func settingsToResponse(s settings.Snapshot) *dto.SettingsResponse {
	raw := s.Schedule.Raw()
	return &dto.SettingsResponse{
		APIKeyConfigured:           s.APIKey != "",
		APIKeyHint:                 maskKey(s.APIKey),
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
		Formula:                    surcharge.FormulaDescription(s.Calculation),
	}
}

// maskKey keeps the last four characters.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

var _ settings.Provider = (*settingsService)(nil)
