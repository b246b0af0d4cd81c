// Package crawl provides crawl orchestration: it walks a ranked listing page
// by page, resolves each artwork and downloads its images, with bounded
// retries, a circuit breaker and per-host rate limiting.
package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/illustdl"
)

// Crawler walks the listing from the crawl cursor until the last page.
// It runs on a single goroutine; pages, artworks and images are processed
// strictly in order.
type Crawler struct {
	Lister illustdl.ListResolver
	Cursor illustdl.CursorStore
	Logger *slog.Logger
}

// RunResult holds the outcome of a crawl run.
type RunResult struct {
	Pages      int
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64

	// LastURL is the last listing page that was fully resolved.
	LastURL string

	// Complete is true when the run reached the end of the listing.
	Complete bool

	Elapsed time.Duration
}

// Run resolves listing pages starting at startURL, or at the persisted
// cursor when startURL is empty.
//
// The run ends when a page has no next link, in which case the result is
// Complete and the error nil. Otherwise the run stops at the first error
// returned by the list resolver: ELAYOUT when a page does not match the
// expected layout, EUNAVAILABLE when the network is unavailable, or the
// context error. The result always reflects the pages resolved so far.
func (c *Crawler) Run(ctx context.Context, startURL string) (*RunResult, error) {
	logger := loggerOrDiscard(c.Logger)
	start := time.Now()
	result := &RunResult{}
	defer func() { result.Elapsed = time.Since(start) }()

	url := startURL
	if url == "" && c.Cursor != nil {
		cursor, err := c.Cursor.LoadCursor()
		if err != nil {
			return result, err
		}
		url = cursor
	}
	if url == "" {
		return result, illustdl.Errorf(illustdl.EINVALID, "no start page configured")
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		logger.Info("resolving listing page", "url", url, "page", result.Pages+1)
		page, err := c.Lister.ResolveListPage(ctx, url)
		if err != nil {
			logger.Error("crawl stopped", "url", url, "error", err)
			return result, err
		}

		result.Pages++
		result.Downloaded += page.Downloaded
		result.Skipped += page.Skipped
		result.Failed += page.Failed
		result.Bytes += page.Bytes
		result.LastURL = url

		logger.Info("listing page done",
			"url", url,
			"downloaded", page.Downloaded,
			"skipped", page.Skipped,
			"failed", page.Failed,
		)

		if page.Last() {
			result.Complete = true
			logger.Info("end of listing", "pages", result.Pages)
			return result, nil
		}
		if page.NextURL == url {
			return result, illustdl.Errorf(illustdl.ELAYOUT, "listing page %s links to itself", url)
		}
		url = page.NextURL
	}
}
