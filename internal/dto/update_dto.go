package dto

// UpdateRequest is bound from the query string of POST /v1/updates.
type UpdateRequest struct {
	Force bool `form:"force"`
	Debug bool `form:"debug"`
}

type UpdateStats struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// UpdateDebug is only included when the caller asks for it.
type UpdateDebug struct {
	RequestURL  string `json:"request_url,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
	Attempts    int    `json:"attempts"`
	FetchTimeMS int64  `json:"fetch_time_ms"`
	TotalTimeMS int64  `json:"total_time_ms"`
	Received    int    `json:"received"`
	Valid       int    `json:"valid"`
}

// UpdateResponse is returned by POST /v1/updates.
type UpdateResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Error     string       `json:"error,omitempty"`
	FromCache bool         `json:"from_cache"`
	Stats     UpdateStats  `json:"stats"`
	Debug     *UpdateDebug `json:"debug,omitempty"`
}

// ConnectionTestResponse is returned by GET /v1/updates/connection-test.
type ConnectionTestResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	Message    string `json:"message"`
	RequestURL string `json:"request_url,omitempty"`
}
