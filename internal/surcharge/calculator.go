// Package surcharge turns a diesel price into a fuel-surcharge rate.
//
// The rate grows by PercentageRate for every IncrementAmount the price sits
// above BaseThreshold:
//
//	rate = max(0, (price - base) / increment) * percentage
package surcharge

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RatePlaces is the number of fractional digits kept on a computed rate.
// It matches the scale of the surcharge_rate column.
const RatePlaces = 4

// Config holds the three calculation parameters.
type Config struct {
	BaseThreshold   decimal.Decimal `json:"base_threshold"`
	IncrementAmount decimal.Decimal `json:"increment_amount"`
	PercentageRate  decimal.Decimal `json:"percentage_rate"`
}

// DefaultConfig mirrors the values shipped in the env defaults.
func DefaultConfig() Config {
	return Config{
		BaseThreshold:   decimal.RequireFromString("1.20"),
		IncrementAmount: decimal.RequireFromString("0.06"),
		PercentageRate:  decimal.RequireFromString("0.5"),
	}
}

// Validate rejects parameter sets the formula cannot evaluate.
func (c Config) Validate() error {
	if c.BaseThreshold.IsNegative() {
		return errors.New("surcharge: base threshold must be >= 0")
	}
	if !c.IncrementAmount.IsPositive() {
		return errors.New("surcharge: increment amount must be > 0")
	}
	if c.PercentageRate.IsNegative() {
		return errors.New("surcharge: percentage rate must be >= 0")
	}
	return nil
}

// Rate computes the surcharge for one price. Prices below the threshold
// yield zero. An invalid increment (<= 0) also yields zero rather than a
// division panic; Validate is the place to reject such configs.
func Rate(price decimal.Decimal, cfg Config) decimal.Decimal {
	if !cfg.IncrementAmount.IsPositive() {
		return decimal.Zero
	}
	steps := price.Sub(cfg.BaseThreshold).Div(cfg.IncrementAmount)
	if steps.IsNegative() {
		steps = decimal.Zero
	}
	return steps.Mul(cfg.PercentageRate).Round(RatePlaces)
}

// FormulaDescription renders the active formula for settings and display pages.
func FormulaDescription(cfg Config) string {
	return fmt.Sprintf(
		"For every $%s the diesel price rises above $%s, the fuel surcharge increases by %s%%.",
		cfg.IncrementAmount.StringFixed(2),
		cfg.BaseThreshold.StringFixed(2),
		cfg.PercentageRate.String(),
	)
}
