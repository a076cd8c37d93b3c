package worker

import (
	"context"
	"fmt"
	"time"

	"fuelsurcharge/internal/activity"
	"fuelsurcharge/internal/schedule"
	"fuelsurcharge/internal/settings"
)

const (
	// UpdateTriggerID identifies the automatic price update.
	UpdateTriggerID = "fuel_price_update"

	// LogCleanupTriggerID identifies the daily activity log pruning.
	LogCleanupTriggerID = "log_cleanup"
)

// Scheduler is a thin adapter between the schedule settings and the trigger
// registry.
type Scheduler struct {
	registry TriggerRegistry
	settings settings.Provider
	sink     activity.Sink
	loc      *time.Location
	now      func() time.Time
}

func NewScheduler(registry TriggerRegistry, provider settings.Provider, sink activity.Sink, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		registry: registry,
		settings: provider,
		sink:     activity.OrNop(sink),
		loc:      loc,
		now:      time.Now,
	}
}

// Location is the time zone schedule times are interpreted in.
func (s *Scheduler) Location() *time.Location { return s.loc }

// ScheduleUpdate replaces any registration with one at the next run computed
// from the current schedule settings.
func (s *Scheduler) ScheduleUpdate(ctx context.Context) error {
	snap, err := s.settings.Current(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: load settings: %w", err)
	}

	if err := s.registry.Deregister(ctx, UpdateTriggerID); err != nil {
		return err
	}

	next := schedule.NextRun(snap.Schedule, s.now().In(s.loc))
	period := schedule.PeriodOf(snap.Schedule.Frequency)
	if err := s.registry.Register(ctx, UpdateTriggerID, next, period); err != nil {
		return err
	}

	s.sink.Append(ctx, activity.TypeSchedule, "Scheduled automatic price update", map[string]any{
		"frequency":   snap.Schedule.Frequency.Name(),
		"time_of_day": snap.Schedule.At.String(),
		"next_run":    next.Format(time.RFC3339),
		"period":      period.String(),
	})
	return nil
}

func (s *Scheduler) ClearScheduledUpdate(ctx context.Context) error {
	if err := s.registry.Deregister(ctx, UpdateTriggerID); err != nil {
		return err
	}
	s.sink.Append(ctx, activity.TypeSchedule, "Cleared scheduled price update", nil)
	return nil
}

// NextScheduledUpdate reports the registered next run, if any.
func (s *Scheduler) NextScheduledUpdate(ctx context.Context) (time.Time, bool, error) {
	next, ok, err := NextRegistered(ctx, s.registry, UpdateTriggerID)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return next.In(s.loc), true, nil
}

// EnsureLogCleanup registers a daily cleanup at the next local midnight unless
// one is already registered. A zero retention disables it.
func (s *Scheduler) EnsureLogCleanup(ctx context.Context, retention time.Duration) error {
	if retention <= 0 {
		return s.registry.Deregister(ctx, LogCleanupTriggerID)
	}
	existing, err := s.registry.Lookup(ctx, LogCleanupTriggerID)
	if err != nil || existing != nil {
		return err
	}
	next := schedule.NextRun(schedule.Config{Frequency: schedule.Daily{}}, s.now().In(s.loc))
	return s.registry.Register(ctx, LogCleanupTriggerID, next, schedule.Period{Days: 1})
}
