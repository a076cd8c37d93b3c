package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceRecord is one weekly diesel price for a region, with the surcharge
// rate derived from it. (date, region) is unique; CreatedAt is written once.
type PriceRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Date          time.Time       `gorm:"type:date;not null;uniqueIndex:idx_price_records_date_region,priority:1"`
	Region        string          `gorm:"size:64;not null;default:'national';uniqueIndex:idx_price_records_date_region,priority:2"`
	Price         decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	SurchargeRate decimal.Decimal `gorm:"type:decimal(10,4);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// PriceCandidate is a normalized price waiting to be stored.
type PriceCandidate struct {
	Date          time.Time
	Region        string
	Price         decimal.Decimal
	SurchargeRate decimal.Decimal
}
