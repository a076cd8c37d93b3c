package dto

import "github.com/shopspring/decimal"

// PriceItem is one stored weekly price with its surcharge rate.
type PriceItem struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"` // YYYY-MM-DD
	Region        string          `json:"region"`
	Price         decimal.Decimal `json:"price"`
	SurchargeRate decimal.Decimal `json:"surcharge_rate"`
	CreatedAt     string          `json:"created_at"`
}

// PriceFilter is bound from the query string of GET /v1/prices.
type PriceFilter struct {
	Region string `form:"region"`
	From   string `form:"from"  validate:"omitempty,datetime=2006-01-02"`
	To     string `form:"to"    validate:"omitempty,datetime=2006-01-02"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=200"`
}

// PriceListResponse is returned by GET /v1/prices.
type PriceListResponse struct {
	Data  []PriceItem `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// RegionsResponse is returned by GET /v1/regions.
type RegionsResponse struct {
	Regions []string `json:"regions"`
}

// FormulaResponse is returned by GET /v1/formula.
type FormulaResponse struct {
	BaseThreshold   decimal.Decimal `json:"base_threshold"`
	IncrementAmount decimal.Decimal `json:"increment_amount"`
	PercentageRate  decimal.Decimal `json:"percentage_rate"`
	Description     string          `json:"description"`
}
