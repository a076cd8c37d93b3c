package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Payload is the decoded body of a successful EIA response.
//
//	{ "response": { "total": "1234", "data": [ { "period": "2024-01-01", "value": "4.50" }, ... ] } }
type Payload struct {
	Total   string
	Entries []RawEntry
}

// RawEntry is one element of response.data. Values are kept untyped so the
// normalizer can tell a missing field from a malformed one.
type RawEntry map[string]any

type envelope struct {
	Response *struct {
		Total json.RawMessage   `json:"total"`
		Data  []json.RawMessage `json:"data"`
	} `json:"response"`
	Error json.RawMessage `json:"error"`
}

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Bad request: the API rejected the query parameters",
	http.StatusUnauthorized:        "Unauthorized: the API key is missing or invalid",
	http.StatusForbidden:           "Forbidden: the API key does not have access to this dataset",
	http.StatusNotFound:            "Not found: the requested dataset does not exist",
	http.StatusTooManyRequests:     "Rate limit exceeded: too many requests to the API",
	http.StatusInternalServerError: "Internal server error at the API",
	http.StatusServiceUnavailable:  "Service unavailable: the API is temporarily down",
}

// StatusMessage maps an HTTP status to a human-readable explanation.
func StatusMessage(code int) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unexpected HTTP status %d", code)
}

// Parse decodes a response body. A decode failure and an API-reported error
// both come back as a KindParse *Error.
func Parse(body []byte) (*Payload, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, &Error{Kind: KindParse, Message: "invalid JSON in API response", Cause: err}
	}

	if msg, ok := apiError(env.Error); ok {
		return nil, &Error{Kind: KindParse, Message: "API error: " + msg}
	}

	if env.Response == nil || env.Response.Data == nil {
		return nil, NewError(KindParse, "unexpected response structure: missing response.data")
	}

	p := &Payload{Total: strings.Trim(string(env.Response.Total), `"`)}
	p.Entries = make([]RawEntry, 0, len(env.Response.Data))
	for _, raw := range env.Response.Data {
		var e RawEntry
		d := json.NewDecoder(bytes.NewReader(raw))
		d.UseNumber()
		if err := d.Decode(&e); err != nil {
			// Non-object elements reach the normalizer as empty entries and
			// are discarded there with a "missing field" reason.
			e = RawEntry{}
		}
		p.Entries = append(p.Entries, e)
	}
	return p, nil
}

// ErrorMessage extracts an API error message from a body without failing.
// It returns "" when the body carries none.
func ErrorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	msg, _ := apiError(env.Error)
	return msg
}

// apiError accepts both {"error": "text"} and {"error": {"message": "text"}}.
func apiError(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var obj struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message, true
	}
	return strings.TrimSpace(string(raw)), true
}
