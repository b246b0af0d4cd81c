package illustdl

import "context"

// LedgerEntry records an artwork whose full image set has been downloaded.
// An entry is written once, after every page succeeded, and never updated.
type LedgerEntry struct {
	ArtworkID int64 `json:"artworkId"`
	Pages     int   `json:"pages"`
}

// Validate returns an error if the entry contains invalid fields.
func (e *LedgerEntry) Validate() error {
	if e.ArtworkID <= 0 {
		return Errorf(EINVALID, "ledger artwork ID must be positive")
	}
	if e.Pages <= 0 {
		return Errorf(EINVALID, "ledger entry for %d: pages must be positive", e.ArtworkID)
	}
	return nil
}

// Ledger represents the persistent store of fully downloaded artworks.
type Ledger interface {
	// PagesDownloaded returns the recorded page count for an artwork,
	// or 0 if the artwork has no entry.
	PagesDownloaded(ctx context.Context, id int64) (int, error)

	// Record writes an entry.
	// Returns ECONFLICT if the artwork already has an entry.
	Record(ctx context.Context, entry LedgerEntry) error

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)

	// IDs returns the artwork IDs of every entry.
	IDs(ctx context.Context) ([]int64, error)
}
