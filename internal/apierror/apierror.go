// Package apierror holds the JSON envelopes for every 4xx/5xx response.
// Handlers never return raw errors, so internal detail stays in the logs.
package apierror

// APIError is the canonical error envelope.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// WithCode tags the error with a machine-readable reason, such as a pipeline
// failure kind.
func WithCode(msg, code string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// ValidationError lists the failing field and the tag that rejected it.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}
