package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fuelsurcharge/internal/feed"
)

const (
	DefaultFetchTimeout          = 15 * time.Second
	DefaultConnectionTestTimeout = 10 * time.Second

	userAgent = "fuelsurcharge/1.0"

	// maxBodyBytes caps how much of a response is read into memory.
	maxBodyBytes = 16 << 20
)

// HTTPFetcher performs single GET requests against the EIA API. It never
// retries; that is feed.RetryPolicy's job.
type HTTPFetcher struct {
	httpClient *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the status and body of one GET. err is non-nil only when no
// response was received (DNS, refused connection, timeout).
// Errors never carry the api_key: net/http embeds the request URL in them.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("fetcher: create request: %w", redactURLError(err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetcher: request failed: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	// The server answered; a truncated body surfaces later as a parse error.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode, body, nil
}

func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = feed.Redact(ue.URL)
	}
	return err
}
