package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fwojciec/illustdl"
)

var _ illustdl.ListResolver = (*ListResolver)(nil)

// ListResolver processes one listing page: it resolves every entry in page
// order and then persists the page as the crawl cursor.
type ListResolver struct {
	Fetcher illustdl.Fetcher
	Parser  illustdl.ListingParser
	Items   illustdl.ItemResolver
	Cursor  illustdl.CursorStore

	// Retrier wraps listing page fetches. Nil fetches once.
	Retrier *Retrier

	Logger *slog.Logger
}

// ResolveListPage fetches and parses the listing page at url and resolves
// each of its entries.
//
// An entry that fails is logged and counted; it has no ledger entry, so the
// next run tries it again. ELAYOUT, EUNAVAILABLE and context cancellation
// abort the page before the cursor is saved, so a restart resumes at the
// same page.
// The cursor is saved with url itself, not the next page.
func (r *ListResolver) ResolveListPage(ctx context.Context, url string) (*illustdl.ListingResult, error) {
	logger := loggerOrDiscard(r.Logger).With("listing", url)

	html, err := r.fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if illustdl.ErrorCode(err) == illustdl.EUNAVAILABLE {
			return nil, err
		}
		return nil, illustdl.Errorf(illustdl.EUNAVAILABLE, "listing page %s unavailable: %v", url, err)
	}

	page, err := r.Parser.ParseListing(html, url)
	if err != nil {
		return nil, err
	}

	result := &illustdl.ListingResult{URL: url, NextURL: page.NextURL}
	for i, entry := range page.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item, err := r.Items.ResolveItem(ctx, entry.DetailURL, entry.ID)
		if err != nil {
			if isTerminal(ctx, err) {
				return nil, err
			}
			result.Failed++
			logger.Error("artwork failed", "artwork", entry.ID, "position", i, "error", err)
			continue
		}

		switch item.Outcome {
		case illustdl.ItemSkipped:
			result.Skipped++
		default:
			result.Downloaded++
			result.Bytes += item.Bytes
		}
	}

	if r.Cursor != nil {
		if err := r.Cursor.SaveCursor(url); err != nil {
			return nil, fmt.Errorf("save cursor: %w", err)
		}
	}

	return result, nil
}

func (r *ListResolver) fetch(ctx context.Context, url string) (string, error) {
	if r.Retrier == nil {
		return r.Fetcher.Fetch(ctx, url)
	}
	return r.Retrier.Fetch(ctx, url, r.Fetcher.Fetch)
}

// isTerminal reports whether err must stop the crawl rather than skip one
// artwork.
func isTerminal(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch illustdl.ErrorCode(err) {
	case illustdl.EUNAVAILABLE, illustdl.ELAYOUT:
		return true
	}
	return false
}
