package dto

// ScheduleResponse is returned by the /v1/schedule endpoints.
type ScheduleResponse struct {
	Scheduled bool    `json:"scheduled"`
	NextRun   *string `json:"next_run"` // RFC 3339, null when nothing is registered
	Frequency string  `json:"frequency"`
	Period    string  `json:"period,omitempty"`
	Timezone  string  `json:"timezone"`
}
