package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fuelsurcharge/internal/activity"
)

const (
	DefaultMaxAttempts    = 3
	DefaultNetworkBackoff = 2 * time.Second
	DefaultServerBackoff  = 3 * time.Second
)

// Fetcher issues a single GET. A non-nil error means no HTTP response was
// received at all.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (status int, body []byte, err error)
}

// FetchTrace records what happened during Do, for debug output.
type FetchTrace struct {
	RequestURL string        `json:"request_url"`
	Attempts   int           `json:"attempts"`
	StatusCode int           `json:"status_code,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// RetryPolicy wraps a Fetcher with class-based retries: network failures
// and 5xx responses are retried with fixed delays, everything else is final.
type RetryPolicy struct {
	Fetcher        Fetcher
	MaxAttempts    int
	NetworkBackoff time.Duration
	ServerBackoff  time.Duration
	Sink           activity.Sink

	// Sleep waits between attempts. Nil means a ctx-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy returns a policy with the default delays.
func NewRetryPolicy(f Fetcher, maxAttempts int, sink activity.Sink) *RetryPolicy {
	return &RetryPolicy{
		Fetcher:        f,
		MaxAttempts:    maxAttempts,
		NetworkBackoff: DefaultNetworkBackoff,
		ServerBackoff:  DefaultServerBackoff,
		Sink:           activity.OrNop(sink),
	}
}

// Do fetches url, returning the body of a 200 response. redacted is the URL
// used in logs and in the returned trace.
func (p *RetryPolicy) Do(ctx context.Context, url, redacted string) ([]byte, FetchTrace, error) {
	sink := activity.OrNop(p.Sink)
	trace := FetchTrace{RequestURL: redacted}
	start := time.Now()

	attempts := 0
	for attempts < p.MaxAttempts {
		sink.Append(ctx, activity.TypeAPIRequest, "Requesting price data", map[string]any{
			"url":     redacted,
			"attempt": attempts + 1,
		})

		status, body, err := p.Fetcher.Fetch(ctx, url)
		attempts++
		trace.Attempts = attempts
		if err == nil {
			trace.StatusCode = status
		}

		fe := p.classify(ctx, sink, status, body, err, attempts)
		if fe == nil {
			return body, p.finish(&trace, start), nil
		}
		if fe.Kind.Retryable() && attempts < p.MaxAttempts {
			if serr := p.sleep(ctx, p.backoff(fe.Kind)); serr != nil {
				return nil, p.finish(&trace, start), &Error{Kind: fe.Kind, Message: "cancelled while waiting to retry", StatusCode: fe.StatusCode, Attempts: attempts, Cause: serr}
			}
			continue
		}
		return nil, p.finish(&trace, start), fe
	}

	return nil, p.finish(&trace, start), &Error{
		Kind:     KindMaxRetries,
		Message:  fmt.Sprintf("maximum retries (%d) exceeded", p.MaxAttempts),
		Attempts: attempts,
	}
}

// classify logs one attempt and returns nil for a 200, otherwise the error
// that attempt would end the run with.
func (p *RetryPolicy) classify(ctx context.Context, sink activity.Sink, status int, body []byte, err error, attempt int) *Error {
	if err != nil {
		sink.Append(ctx, activity.TypeAPIError, "Network error contacting API", map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		})
		return &Error{
			Kind:     KindConnection,
			Message:  fmt.Sprintf("could not connect to API after %d attempts", attempt),
			Attempts: attempt,
			Cause:    err,
		}
	}

	switch {
	case status == http.StatusOK:
		return nil

	case status >= 400 && status <= 499:
		msg := messageFor(status, body)
		sink.Append(ctx, activity.TypeAPIError, "API rejected the request", map[string]any{
			"status":  status,
			"message": msg,
			"attempt": attempt,
		})
		return &Error{Kind: KindClient, Message: msg, StatusCode: status, Attempts: attempt}

	case status >= 500:
		sink.Append(ctx, activity.TypeAPIError, "API server error", map[string]any{
			"status":  status,
			"attempt": attempt,
		})
		return &Error{Kind: KindServer, Message: messageFor(status, body), StatusCode: status, Attempts: attempt}

	default:
		sink.Append(ctx, activity.TypeAPIError, "Unexpected API response", map[string]any{
			"status":  status,
			"attempt": attempt,
		})
		return &Error{Kind: KindUnexpectedResponse, Message: StatusMessage(status), StatusCode: status, Attempts: attempt}
	}
}

func (p *RetryPolicy) backoff(k Kind) time.Duration {
	if k == KindServer {
		return p.ServerBackoff
	}
	return p.NetworkBackoff
}

func messageFor(status int, body []byte) string {
	if msg := ErrorMessage(body); msg != "" {
		return msg
	}
	return StatusMessage(status)
}

func (p *RetryPolicy) finish(trace *FetchTrace, start time.Time) FetchTrace {
	trace.Duration = time.Since(start)
	return *trace
}

func (p *RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
