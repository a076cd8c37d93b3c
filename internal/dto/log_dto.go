package dto

// LogFilter is bound from the query string of GET /v1/logs.
type LogFilter struct {
	Type  string `form:"type"`
	Page  int    `form:"page,default=1"  validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type LogItem struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// LogListResponse is returned by GET /v1/logs.
type LogListResponse struct {
	Data  []LogItem `json:"data"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}
