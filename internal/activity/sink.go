// Package activity is the structured log sink every pipeline stage, retry
// attempt and schedule change writes to. Appending is fire-and-forget: a
// failure to persist is logged and otherwise ignored.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"fuelsurcharge/internal/model"
	"fuelsurcharge/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log types.
const (
	TypeAPIRequest     = "api_request"
	TypeAPIError       = "api_error"
	TypeCache          = "cache"
	TypeDataProcessing = "data_processing"
	TypeDataUpdate     = "data_update"
	TypeSchedule       = "schedule"
	TypeSettings       = "settings"
	TypeMaintenance    = "maintenance"
)

// Sink receives activity entries.
type Sink interface {
	Append(ctx context.Context, logType, message string, fields map[string]any)
}

type nop struct{}

func (nop) Append(context.Context, string, string, map[string]any) {}

// Nop discards everything.
var Nop Sink = nop{}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop
	}
	return s
}

// DBSink persists entries through the activity log repository and mirrors
// them to zerolog.
type DBSink struct {
	repo repository.ActivityLogRepository
	now  func() time.Time
}

func NewDBSink(repo repository.ActivityLogRepository) *DBSink {
	return &DBSink{repo: repo, now: time.Now}
}

func (s *DBSink) Append(ctx context.Context, logType, message string, fields map[string]any) {
	ev := log.WithLevel(levelFor(logType)).Str("log_type", logType)
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(message)

	entry := &model.ActivityLog{
		ID:        uuid.New(),
		LogType:   logType,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if len(fields) > 0 {
		if b, err := json.Marshal(fields); err == nil {
			ctxJSON := string(b)
			entry.Context = &ctxJSON
		}
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("log_type", logType).Msg("activity: failed to persist log entry")
	}
}

// Prune deletes entries older than the retention window and records how many
// were removed.
func (s *DBSink) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	n, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Append(ctx, TypeMaintenance, "Pruned old activity log entries", map[string]any{
			"deleted": n,
			"cutoff":  cutoff.Format(time.RFC3339),
		})
	}
	return n, nil
}

func levelFor(logType string) zerolog.Level {
	switch logType {
	case TypeAPIError:
		return zerolog.WarnLevel
	case TypeAPIRequest, TypeCache, TypeDataProcessing:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
