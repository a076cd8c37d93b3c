package worker

// trigger_loop.go
// Background goroutine that fires due triggers. Each trigger is advanced past
// now before its handler runs, so a slow run is never fired twice and missed
// occurrences during downtime collapse into a single run.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTickInterval = 30 * time.Second

// TriggerHandler is invoked synchronously when its trigger fires.
type TriggerHandler func(ctx context.Context)

// LoopConfig holds all dependencies for the trigger goroutine.
type LoopConfig struct {
	Registry TriggerRegistry
	Handlers map[string]TriggerHandler
	Tick     time.Duration
	Now      func() time.Time

	// Location is the zone periods are advanced in, so a weekly noon run
	// stays at noon across DST changes. Nil keeps the stored offset.
	Location *time.Location
}

// StartTriggerLoop launches a goroutine that checks for due triggers on every
// tick. It respects the context for graceful shutdown.
func StartTriggerLoop(ctx context.Context, cfg LoopConfig) {
	tick := cfg.Tick
	if tick <= 0 {
		tick = defaultTickInterval
	}
	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		log.Info().Dur("tick", tick).Msg("trigger_loop: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("trigger_loop: shutting down")
				return
			case <-ticker.C:
				FireDue(ctx, cfg)
			}
		}
	}()
}

// FireDue runs every due trigger once and returns how many fired.
func FireDue(ctx context.Context, cfg LoopConfig) int {
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	current := now()

	due, err := cfg.Registry.Due(ctx, current)
	if err != nil {
		log.Error().Err(err).Msg("trigger_loop: failed to list due triggers")
		return 0
	}

	fired := 0
	for _, tr := range due {
		handler, ok := cfg.Handlers[tr.ID]
		if !ok {
			log.Warn().Str("trigger", tr.ID).Msg("trigger_loop: no handler registered, skipping")
			continue
		}

		if tr.Period.IsZero() {
			if err := cfg.Registry.Deregister(ctx, tr.ID); err != nil {
				log.Error().Err(err).Str("trigger", tr.ID).Msg("trigger_loop: failed to deregister one-shot trigger")
				continue
			}
		} else {
			next := tr.NextRun
			if cfg.Location != nil {
				next = next.In(cfg.Location)
			}
			for !next.After(current) {
				next = tr.Period.Advance(next)
			}
			if err := cfg.Registry.Reschedule(ctx, tr.ID, next); err != nil {
				log.Error().Err(err).Str("trigger", tr.ID).Msg("trigger_loop: failed to advance trigger, skipping")
				continue
			}
			log.Info().Str("trigger", tr.ID).Time("next_run", next).Msg("trigger_loop: firing")
		}

		handler(ctx)
		fired++
	}
	return fired
}
