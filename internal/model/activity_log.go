package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is one entry of the structured activity log.
// Context holds the JSON-encoded detail map, if any.
type ActivityLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	LogType   string    `gorm:"size:32;not null;index"`
	Message   string    `gorm:"type:text;not null"`
	Context   *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index"`
}
