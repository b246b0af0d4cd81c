package mock

import (
	"context"

	"github.com/fwojciec/illustdl"
)

// Compile-time interface verification.
var (
	_ illustdl.ItemResolver = (*ItemResolver)(nil)
	_ illustdl.ListResolver = (*ListResolver)(nil)
	_ illustdl.CursorStore  = (*CursorStore)(nil)
)

// ItemResolver is a mock implementation of illustdl.ItemResolver.
type ItemResolver struct {
	ResolveItemFn func(ctx context.Context, detailURL string, id int64) (*illustdl.ItemResult, error)
}

func (r *ItemResolver) ResolveItem(ctx context.Context, detailURL string, id int64) (*illustdl.ItemResult, error) {
	return r.ResolveItemFn(ctx, detailURL, id)
}

// ListResolver is a mock implementation of illustdl.ListResolver.
type ListResolver struct {
	ResolveListPageFn func(ctx context.Context, url string) (*illustdl.ListingResult, error)
}

func (r *ListResolver) ResolveListPage(ctx context.Context, url string) (*illustdl.ListingResult, error) {
	return r.ResolveListPageFn(ctx, url)
}

// CursorStore is a mock implementation of illustdl.CursorStore.
type CursorStore struct {
	LoadCursorFn func() (string, error)
	SaveCursorFn func(url string) error
}

func (s *CursorStore) LoadCursor() (string, error) {
	return s.LoadCursorFn()
}

func (s *CursorStore) SaveCursor(url string) error {
	return s.SaveCursorFn(url)
}
