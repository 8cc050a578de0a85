// Package fetcher downloads raw feed content over HTTP with a bounded response size.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBodyBytes caps how much of a feed response is read into memory.
const DefaultMaxBodyBytes = 8_000_000

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves feed documents. One Fetcher (and its client) is shared
// across all URLs of a poll cycle.
type Fetcher struct {
	client  HTTPClient
	maxBody int64
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client and the default body cap.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		maxBody: DefaultMaxBodyBytes,
		timeout: 30 * time.Second,
	}
}

// SetMaxBodyBytes overrides the response size cap.
func (f *Fetcher) SetMaxBodyBytes(n int64) {
	if n > 0 {
		f.maxBody = n
	}
}

// Fetch downloads the document at url. A response body larger than the cap
// is treated as a fetch failure rather than silently truncated.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "rss-fanout/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("response larger than %d bytes", f.maxBody)
	}
	return body, nil
}
