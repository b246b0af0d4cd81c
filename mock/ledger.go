package mock

import (
	"context"

	"github.com/fwojciec/illustdl"
)

var _ illustdl.Ledger = (*Ledger)(nil)

// Ledger is a mock implementation of illustdl.Ledger.
type Ledger struct {
	PagesDownloadedFn func(ctx context.Context, id int64) (int, error)
	RecordFn          func(ctx context.Context, entry illustdl.LedgerEntry) error
	CountFn           func(ctx context.Context) (int, error)
	IDsFn             func(ctx context.Context) ([]int64, error)
}

func (l *Ledger) PagesDownloaded(ctx context.Context, id int64) (int, error) {
	return l.PagesDownloadedFn(ctx, id)
}

func (l *Ledger) Record(ctx context.Context, entry illustdl.LedgerEntry) error {
	return l.RecordFn(ctx, entry)
}

func (l *Ledger) Count(ctx context.Context) (int, error) {
	return l.CountFn(ctx)
}

func (l *Ledger) IDs(ctx context.Context) ([]int64, error) {
	return l.IDsFn(ctx)
}
