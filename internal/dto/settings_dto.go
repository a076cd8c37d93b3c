package dto

import "github.com/shopspring/decimal"

// UpdateSettingsRequest is a partial update: nil fields are left unchanged.
type UpdateSettingsRequest struct {
	APIKey                     *string          `json:"api_key"                      validate:"omitempty,max=128"`
	CacheTTLMinutes            *int             `json:"cache_ttl_minutes"            validate:"omitempty,min=0,max=10080"`
	MaxRetries                 *int             `json:"max_retries"                  validate:"omitempty,min=1,max=10"`
	ScheduleFrequency          *string          `json:"schedule_frequency"           validate:"omitempty,oneof=daily weekly monthly custom"`
	ScheduleDayOfWeek          *string          `json:"schedule_day_of_week"         validate:"omitempty,oneof=sunday monday tuesday wednesday thursday friday saturday"`
	ScheduleDayOfMonth         *string          `json:"schedule_day_of_month"`
	ScheduleCustomIntervalDays *int             `json:"schedule_custom_interval_days" validate:"omitempty,min=1,max=365"`
	ScheduleTime               *string          `json:"schedule_time"                validate:"omitempty,datetime=15:04"`
	BaseThreshold              *decimal.Decimal `json:"base_threshold"`
	IncrementAmount            *decimal.Decimal `json:"increment_amount"`
	PercentageRate             *decimal.Decimal `json:"percentage_rate"`
}

// SettingsResponse never echoes the API key, only a masked hint.
type SettingsResponse struct {
	APIKeyConfigured           bool            `json:"api_key_configured"`
	APIKeyHint                 string          `json:"api_key_hint,omitempty"`
	CacheTTLMinutes            int             `json:"cache_ttl_minutes"`
	MaxRetries                 int             `json:"max_retries"`
	ScheduleFrequency          string          `json:"schedule_frequency"`
	ScheduleDayOfWeek          string          `json:"schedule_day_of_week,omitempty"`
	ScheduleDayOfMonth         string          `json:"schedule_day_of_month,omitempty"`
	ScheduleCustomIntervalDays int             `json:"schedule_custom_interval_days,omitempty"`
	ScheduleTime               string          `json:"schedule_time"`
	BaseThreshold              decimal.Decimal `json:"base_threshold"`
	IncrementAmount            decimal.Decimal `json:"increment_amount"`
	PercentageRate             decimal.Decimal `json:"percentage_rate"`
	Formula                    string          `json:"formula"`
}
