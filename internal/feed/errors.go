// Package feed talks to the EIA price API: it builds the request, fetches it
// with class-based retries, parses the JSON payload and normalizes the
// entries into price candidates.
package feed

import (
	"errors"
	"fmt"
)

// Kind classifies why an update could not complete.
type Kind string

const (
	KindMissingCredential  Kind = "missing_credential"
	KindConnection         Kind = "connection_error"
	KindClient             Kind = "client_error"
	KindServer             Kind = "server_error"
	KindParse              Kind = "parse_error"
	KindUnexpectedResponse Kind = "unexpected_response"
	KindMaxRetries         Kind = "max_retries_exceeded"
	KindNoValidData        Kind = "no_valid_data"
	KindStorage            Kind = "storage_error"
)

// Retryable reports whether RetryPolicy retries this class of failure.
func (k Kind) Retryable() bool {
	return k == KindConnection || k == KindServer
}

// Error is the single error type surfaced by the fetch/parse stages.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // 0 when no response was received
	Attempts   int
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("feed: %s: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an Error without a cause or status.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf extracts the Kind of err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
