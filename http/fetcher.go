package http

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/fwojciec/illustdl"
)

// Ensure Fetcher implements illustdl.Fetcher at compile time.
var _ illustdl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves listing and detail pages. It performs exactly one request
// per call; retries are the caller's concern.
type Fetcher struct {
	client  *http.Client
	limiter illustdl.DomainLimiter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchLimiter rate limits requests per host.
func WithFetchLimiter(l illustdl.DomainLimiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// NewFetcher creates a new Fetcher using client.
// If client is nil, a client from NewClient with default options is used.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client, _ = NewClient()
	}
	f := &Fetcher{client: client}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the HTML content from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := wait(ctx, f.limiter, rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// wait blocks on the limiter for the URL's host, if a limiter is set.
func wait(ctx context.Context, limiter illustdl.DomainLimiter, rawURL string) error {
	if limiter == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return limiter.Wait(ctx, u.Host)
}
