package worker

import (
	"context"
	"testing"
	"time"

	"fuelsurcharge/internal/schedule"
	"fuelsurcharge/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ TriggerRegistry = (*MemoryTriggerRegistry)(nil)
	_ TriggerRegistry = (*RedisTriggerRegistry)(nil)
)

type recordingSink struct {
	messages []string
}

func (s *recordingSink) Append(_ context.Context, _ string, message string, _ map[string]any) {
	s.messages = append(s.messages, message)
}

func newTestScheduler(t *testing.T, cfg schedule.Config, now time.Time) (*Scheduler, *MemoryTriggerRegistry, *recordingSink) {
	t.Helper()
	reg := NewMemoryTriggerRegistry()
	sink := &recordingSink{}
	s := NewScheduler(reg, settings.Static(settings.Snapshot{Schedule: cfg}), sink, time.UTC)
	s.now = func() time.Time { return now }
	return s, reg, sink
}

// ── Scheduler ─────────────────────────────────────────────────────────────────

func TestScheduleUpdateRegistersNextRun(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	cfg := schedule.Config{Frequency: schedule.Weekly{Day: time.Tuesday}, At: schedule.TimeOfDay{Hour: 12}}
	s, reg, sink := newTestScheduler(t, cfg, now)
	ctx := context.Background()

	require.NoError(t, s.ScheduleUpdate(ctx))

	next, ok, err := s.NextScheduledUpdate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), next)

	tr, err := reg.Lookup(ctx, UpdateTriggerID)
	require.NoError(t, err)
	assert.Equal(t, schedule.Period{Days: 7}, tr.Period)
	assert.Len(t, sink.messages, 1)
}

func TestScheduleUpdateReplacesExistingRegistration(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	s, reg, _ := newTestScheduler(t, schedule.Config{Frequency: schedule.Daily{}, At: schedule.TimeOfDay{Hour: 6}}, now)
	ctx := context.Background()
	require.NoError(t, reg.Register(ctx, UpdateTriggerID, now.AddDate(1, 0, 0), schedule.Period{Months: 1}))

	require.NoError(t, s.ScheduleUpdate(ctx))

	tr, err := reg.Lookup(ctx, UpdateTriggerID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 16, 6, 0, 0, 0, time.UTC), tr.NextRun)
	assert.Equal(t, schedule.Period{Days: 1}, tr.Period)
}

func TestClearScheduledUpdate(t *testing.T) {
	s, _, _ := newTestScheduler(t, schedule.Config{Frequency: schedule.Daily{}}, time.Now())
	ctx := context.Background()
	require.NoError(t, s.ScheduleUpdate(ctx))

	require.NoError(t, s.ClearScheduledUpdate(ctx))

	_, ok, err := s.NextScheduledUpdate(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureLogCleanup(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	s, reg, _ := newTestScheduler(t, schedule.Config{Frequency: schedule.Daily{}}, now)
	ctx := context.Background()

	require.NoError(t, s.EnsureLogCleanup(ctx, 24*time.Hour))
	tr, err := reg.Lookup(ctx, LogCleanupTriggerID)
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), tr.NextRun)

	// An existing registration is kept as is.
	require.NoError(t, reg.Reschedule(ctx, LogCleanupTriggerID, now.Add(time.Minute)))
	require.NoError(t, s.EnsureLogCleanup(ctx, 24*time.Hour))
	tr, _ = reg.Lookup(ctx, LogCleanupTriggerID)
	assert.Equal(t, now.Add(time.Minute), tr.NextRun)

	require.NoError(t, s.EnsureLogCleanup(ctx, 0))
	tr, _ = reg.Lookup(ctx, LogCleanupTriggerID)
	assert.Nil(t, tr)
}

// ── Trigger loop ──────────────────────────────────────────────────────────────

func TestFireDueAdvancesPastNow(t *testing.T) {
	reg := NewMemoryTriggerRegistry()
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, reg.Register(ctx, "daily", start, schedule.Period{Days: 1}))

	calls := 0
	// Three days late: fires once and lands on the next future occurrence.
	now := start.AddDate(0, 0, 3).Add(time.Hour)
	fired := FireDue(ctx, LoopConfig{
		Registry: reg,
		Handlers: map[string]TriggerHandler{"daily": func(context.Context) { calls++ }},
		Now:      func() time.Time { return now },
	})

	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, calls)
	tr, err := reg.Lookup(ctx, "daily")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC), tr.NextRun)
}

func TestFireDueSkipsFutureAndUnknownTriggers(t *testing.T) {
	reg := NewMemoryTriggerRegistry()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, reg.Register(ctx, "future", now.Add(time.Hour), schedule.Period{Days: 1}))
	require.NoError(t, reg.Register(ctx, "orphan", now.Add(-time.Hour), schedule.Period{Days: 1}))

	calls := 0
	fired := FireDue(ctx, LoopConfig{
		Registry: reg,
		Handlers: map[string]TriggerHandler{"future": func(context.Context) { calls++ }},
		Now:      func() time.Time { return now },
	})

	assert.Zero(t, fired)
	assert.Zero(t, calls)
}

func TestFireDueOneShotIsDeregistered(t *testing.T) {
	reg := NewMemoryTriggerRegistry()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, reg.Register(ctx, "once", now, schedule.Period{}))

	fired := FireDue(ctx, LoopConfig{
		Registry: reg,
		Handlers: map[string]TriggerHandler{"once": func(context.Context) {}},
		Now:      func() time.Time { return now },
	})

	assert.Equal(t, 1, fired)
	tr, _ := reg.Lookup(ctx, "once")
	assert.Nil(t, tr)
}

func TestFireDueMonthlyPeriod(t *testing.T) {
	reg := NewMemoryTriggerRegistry()
	ctx := context.Background()
	first := time.Date(2024, 2, 15, 8, 0, 0, 0, time.UTC)
	require.NoError(t, reg.Register(ctx, UpdateTriggerID, first, schedule.Period{Months: 1}))

	FireDue(ctx, LoopConfig{
		Registry: reg,
		Handlers: map[string]TriggerHandler{UpdateTriggerID: func(context.Context) {}},
		Now:      func() time.Time { return first },
	})

	next, ok, err := NextRegistered(ctx, reg, UpdateTriggerID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC), next)
}

func TestFireDueMonthlyLastDayAcrossShortMonths(t *testing.T) {
	reg := NewMemoryTriggerRegistry()
	ctx := context.Background()
	cfg := schedule.Config{Frequency: schedule.Monthly{Last: true}, At: schedule.TimeOfDay{Hour: 12}}
	first := schedule.NextRun(cfg, time.Date(2023, 12, 15, 9, 0, 0, 0, time.UTC))
	require.Equal(t, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), first)
	require.NoError(t, reg.Register(ctx, UpdateTriggerID, first, schedule.PeriodOf(cfg.Frequency)))

	want := []time.Time{
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC),
	}
	fireAt := first
	for _, w := range want {
		fired := FireDue(ctx, LoopConfig{
			Registry: reg,
			Handlers: map[string]TriggerHandler{UpdateTriggerID: func(context.Context) {}},
			Now:      func() time.Time { return fireAt },
		})
		require.Equal(t, 1, fired)

		next, ok, err := NextRegistered(ctx, reg, UpdateTriggerID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, w.Equal(next), "want %s, got %s", w, next)
		fireAt = next
	}
}

func TestFireDueKeepsLocalTimeAcrossDST(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	ctx := context.Background()

	// Noon CST on the Monday before DST starts (2024-03-10), stored with a
	// fixed offset the way a JSON round trip returns it.
	first := time.Date(2024, 3, 4, 12, 0, 0, 0, chicago)
	reg := NewMemoryTriggerRegistry()
	require.NoError(t, reg.Register(ctx, UpdateTriggerID, first.In(time.FixedZone("", -6*3600)), schedule.Period{Days: 7}))

	FireDue(ctx, LoopConfig{
		Registry: reg,
		Handlers: map[string]TriggerHandler{UpdateTriggerID: func(context.Context) {}},
		Now:      func() time.Time { return first.Add(time.Minute) },
		Location: chicago,
	})

	tr, err := reg.Lookup(ctx, UpdateTriggerID)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 11, 12, 0, 0, 0, chicago).Equal(tr.NextRun), "got %s", tr.NextRun)
}

func TestStartTriggerLoopStopsOnCancel(t *testing.T) {
	reg := NewMemoryTriggerRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, reg.Register(ctx, "tick", time.Now().Add(-time.Second), schedule.Period{Days: 1}))

	fired := make(chan struct{}, 1)
	StartTriggerLoop(ctx, LoopConfig{
		Registry: reg,
		Tick:     10 * time.Millisecond,
		Handlers: map[string]TriggerHandler{"tick": func(context.Context) {
			select {
			case fired <- struct{}{}:
			default:
			}
		}},
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not fire")
	}
	cancel()
}
