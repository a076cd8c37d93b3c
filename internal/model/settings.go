package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsRowID is the primary key of the single settings row.
const SettingsRowID = 1

// Settings is the persisted, admin-editable configuration. There is exactly
// one row; env config seeds it on first start.
type Settings struct {
	ID     uint   `gorm:"primaryKey"`
	APIKey string `gorm:"size:128;not null;default:''"`

	CacheTTLMinutes int `gorm:"not null;default:60"`
	MaxRetries      int `gorm:"not null;default:3"`

	ScheduleFrequency          string `gorm:"size:16;not null;default:'weekly'"`
	ScheduleDayOfWeek          string `gorm:"size:16;not null;default:'monday'"`
	ScheduleDayOfMonth         string `gorm:"size:8;not null;default:'1'"`
	ScheduleCustomIntervalDays int    `gorm:"not null;default:7"`
	ScheduleTime               string `gorm:"size:5;not null;default:'00:00'"`

	BaseThreshold   decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	IncrementAmount decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	PercentageRate  decimal.Decimal `gorm:"type:decimal(10,3);not null"`

	UpdatedAt time.Time
}
