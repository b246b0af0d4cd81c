package crawl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fwojciec/illustdl"
)

var _ illustdl.ItemResolver = (*ItemResolver)(nil)

// ItemResolver downloads every page of one artwork, gated by the ledger.
type ItemResolver struct {
	Fetcher    illustdl.Fetcher
	Parser     illustdl.ArtworkParser
	Downloader illustdl.Downloader
	Ledger     illustdl.Ledger

	// Retrier wraps detail page fetches. Nil fetches once.
	Retrier *Retrier

	Logger *slog.Logger
}

// ResolveItem downloads the artwork unless the ledger already records it.
//
// A recorded artwork is skipped without any network access. Otherwise every
// page is downloaded in order and the ledger entry is written only after the
// last page succeeded; the first failing page aborts the artwork and leaves
// no entry, so a later run downloads it again from page 0.
//
// A failed ledger read is treated as "not downloaded" and a failed ledger
// write is logged and ignored.
func (r *ItemResolver) ResolveItem(ctx context.Context, detailURL string, id int64) (*illustdl.ItemResult, error) {
	logger := loggerOrDiscard(r.Logger).With("artwork", id)

	pages, err := r.Ledger.PagesDownloaded(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("ledger read failed, downloading anyway", "error", err)
		pages = 0
	}
	if pages > 0 {
		logger.Debug("already downloaded", "pages", pages)
		return &illustdl.ItemResult{ID: id, Outcome: illustdl.ItemSkipped, Pages: pages}, nil
	}

	html, err := r.fetch(ctx, detailURL)
	if err != nil {
		return nil, fmt.Errorf("artwork %d: fetch detail page: %w", id, err)
	}

	artwork, err := r.Parser.ParseArtwork(html, id)
	if err != nil {
		return nil, err
	}

	result := &illustdl.ItemResult{ID: id, Outcome: illustdl.ItemDownloaded, Pages: artwork.PageCount}
	for i, pageURL := range artwork.PageURLs() {
		dl, err := r.Downloader.Download(ctx, illustdl.DownloadRequest{URL: pageURL, ArtworkID: id})
		if err != nil {
			return nil, fmt.Errorf("artwork %d page %d: %w", id, i, err)
		}
		result.Bytes += dl.Bytes
	}

	entry := illustdl.LedgerEntry{ArtworkID: id, Pages: artwork.PageCount}
	if err := r.Ledger.Record(ctx, entry); err != nil {
		logger.Warn("ledger write failed", "pages", artwork.PageCount, "error", err)
	}

	return result, nil
}

func (r *ItemResolver) fetch(ctx context.Context, url string) (string, error) {
	if r.Retrier == nil {
		return r.Fetcher.Fetch(ctx, url)
	}
	return r.Retrier.Fetch(ctx, url, r.Fetcher.Fetch)
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
