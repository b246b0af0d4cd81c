package bloom

import (
	"context"

	"github.com/fwojciec/illustdl"
)

// Ensure Ledger implements illustdl.Ledger at compile time.
var _ illustdl.Ledger = (*Ledger)(nil)

// Ledger is an illustdl.Ledger decorator that consults a Bloom filter before
// the underlying ledger. Artworks the filter has never seen are reported as
// not downloaded without a database lookup.
type Ledger struct {
	next   illustdl.Ledger
	filter *Filter
}

// NewLedger wraps next with filter. The filter must be warmed with Warm
// before the first lookup, or lookups of existing entries will miss.
func NewLedger(next illustdl.Ledger, filter *Filter) *Ledger {
	return &Ledger{next: next, filter: filter}
}

// Warm adds every ID of the underlying ledger to the filter and returns
// the number of IDs loaded.
func (l *Ledger) Warm(ctx context.Context) (int, error) {
	ids, err := l.next.IDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		l.filter.Add(id)
	}
	return len(ids), nil
}

func (l *Ledger) PagesDownloaded(ctx context.Context, id int64) (int, error) {
	if !l.filter.Test(id) {
		return 0, nil
	}
	return l.next.PagesDownloaded(ctx, id)
}

// Record writes the entry and adds its ID to the filter. A conflicting
// entry still marks the ID as present.
func (l *Ledger) Record(ctx context.Context, entry illustdl.LedgerEntry) error {
	err := l.next.Record(ctx, entry)
	if err == nil || illustdl.ErrorCode(err) == illustdl.ECONFLICT {
		l.filter.Add(entry.ArtworkID)
	}
	return err
}

func (l *Ledger) Count(ctx context.Context) (int, error) {
	return l.next.Count(ctx)
}

func (l *Ledger) IDs(ctx context.Context) ([]int64, error) {
	return l.next.IDs(ctx)
}
