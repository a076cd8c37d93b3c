package worker

// trigger_registry.go
// Persistent registry of recurring triggers. A trigger fires once at NextRun
// and is then advanced by Period. Redis is used when configured so that the
// registration survives restarts; the in-memory registry backs tests and
// single-process deployments without Redis.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fuelsurcharge/internal/schedule"

	"github.com/redis/go-redis/v9"
)

const (
	TriggerPrefix   = "trigger:"
	triggerIndexKey = "triggers"
)

// Trigger is one registration.
type Trigger struct {
	ID           string          `json:"id"`
	NextRun      time.Time       `json:"next_run"`
	Period       schedule.Period `json:"period"`
	RegisteredAt time.Time       `json:"registered_at"`
}

// TriggerRegistry is the recurring-task facility the scheduler adapts to.
type TriggerRegistry interface {
	Register(ctx context.Context, id string, at time.Time, period schedule.Period) error
	Deregister(ctx context.Context, id string) error

	// Lookup returns (nil, nil) when id is not registered.
	Lookup(ctx context.Context, id string) (*Trigger, error)

	// Due lists triggers whose NextRun is at or before now, oldest first.
	Due(ctx context.Context, now time.Time) ([]Trigger, error)

	// Reschedule moves an existing trigger to next. It is a no-op when the
	// trigger has been deregistered meanwhile.
	Reschedule(ctx context.Context, id string, next time.Time) error
}

// NextRegistered is a pure read of a registration.
func NextRegistered(ctx context.Context, r TriggerRegistry, id string) (time.Time, bool, error) {
	tr, err := r.Lookup(ctx, id)
	if err != nil || tr == nil {
		return time.Time{}, false, err
	}
	return tr.NextRun, true, nil
}

// ── Redis ─────────────────────────────────────────────────────────────────────

type RedisTriggerRegistry struct {
	rdb *redis.Client
}

func NewRedisTriggerRegistry(rdb *redis.Client) *RedisTriggerRegistry {
	return &RedisTriggerRegistry{rdb: rdb}
}

func (r *RedisTriggerRegistry) Register(ctx context.Context, id string, at time.Time, period schedule.Period) error {
	data, err := json.Marshal(Trigger{ID: id, NextRun: at, Period: period, RegisteredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("trigger: marshal %s: %w", id, err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, TriggerPrefix+id, data, 0)
		p.SAdd(ctx, triggerIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("trigger: register %s: %w", id, err)
	}
	return nil
}

func (r *RedisTriggerRegistry) Deregister(ctx context.Context, id string) error {
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, TriggerPrefix+id)
		p.SRem(ctx, triggerIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("trigger: deregister %s: %w", id, err)
	}
	return nil
}

func (r *RedisTriggerRegistry) Lookup(ctx context.Context, id string) (*Trigger, error) {
	data, err := r.rdb.Get(ctx, TriggerPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("trigger: lookup %s: %w", id, err)
	}
	var tr Trigger
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("trigger: decode %s: %w", id, err)
	}
	return &tr, nil
}

func (r *RedisTriggerRegistry) Due(ctx context.Context, now time.Time) ([]Trigger, error) {
	ids, err := r.rdb.SMembers(ctx, triggerIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("trigger: list: %w", err)
	}
	var due []Trigger
	for _, id := range ids {
		tr, err := r.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if tr != nil && !tr.NextRun.After(now) {
			due = append(due, *tr)
		}
	}
	sortByNextRun(due)
	return due, nil
}

func (r *RedisTriggerRegistry) Reschedule(ctx context.Context, id string, next time.Time) error {
	tr, err := r.Lookup(ctx, id)
	if err != nil || tr == nil {
		return err
	}
	tr.NextRun = next
	data, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("trigger: marshal %s: %w", id, err)
	}
	// XX: only overwrite if the key still exists.
	if err := r.rdb.SetXX(ctx, TriggerPrefix+id, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("trigger: reschedule %s: %w", id, err)
	}
	return nil
}

// ── In-memory ─────────────────────────────────────────────────────────────────

type MemoryTriggerRegistry struct {
	mu       sync.Mutex
	triggers map[string]Trigger
	now      func() time.Time
}

func NewMemoryTriggerRegistry() *MemoryTriggerRegistry {
	return &MemoryTriggerRegistry{triggers: make(map[string]Trigger), now: time.Now}
}

func (r *MemoryTriggerRegistry) Register(_ context.Context, id string, at time.Time, period schedule.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers[id] = Trigger{ID: id, NextRun: at, Period: period, RegisteredAt: r.now().UTC()}
	return nil
}

func (r *MemoryTriggerRegistry) Deregister(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.triggers, id)
	return nil
}

func (r *MemoryTriggerRegistry) Lookup(_ context.Context, id string) (*Trigger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tr, ok := r.triggers[id]
	if !ok {
		return nil, nil
	}
	return &tr, nil
}

func (r *MemoryTriggerRegistry) Due(_ context.Context, now time.Time) ([]Trigger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []Trigger
	for _, tr := range r.triggers {
		if !tr.NextRun.After(now) {
			due = append(due, tr)
		}
	}
	sortByNextRun(due)
	return due, nil
}

func (r *MemoryTriggerRegistry) Reschedule(_ context.Context, id string, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tr, ok := r.triggers[id]
	if !ok {
		return nil
	}
	tr.NextRun = next
	r.triggers[id] = tr
	return nil
}

func sortByNextRun(ts []Trigger) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].NextRun.Equal(ts[j].NextRun) {
			return ts[i].ID < ts[j].ID
		}
		return ts[i].NextRun.Before(ts[j].NextRun)
	})
}
