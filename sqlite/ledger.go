package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fwojciec/illustdl"
)

// Compile-time interface verification.
var _ illustdl.Ledger = (*LedgerService)(nil)

// LedgerService implements illustdl.Ledger using SQLite.
type LedgerService struct {
	db *DB
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(db *DB) *LedgerService {
	return &LedgerService{db: db}
}

// PagesDownloaded returns the recorded page count for an artwork.
// Returns 0 if the artwork has no entry.
func (s *LedgerService) PagesDownloaded(ctx context.Context, id int64) (int, error) {
	var amount int
	err := s.db.QueryRowContext(ctx, `
		SELECT amount FROM crawled_artworks WHERE id = ?
	`, id).Scan(&amount)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// Record writes a ledger entry.
// Entries are never overwritten; a second entry for the same artwork
// returns ECONFLICT.
func (s *LedgerService) Record(ctx context.Context, entry illustdl.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO crawled_artworks (id, amount)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, entry.ArtworkID, entry.Pages)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return illustdl.Errorf(illustdl.ECONFLICT, "artwork %d already recorded", entry.ArtworkID)
	}

	return nil
}

// Count returns the number of ledger entries.
func (s *LedgerService) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crawled_artworks").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// IDs returns the artwork IDs of every entry in ascending order.
func (s *LedgerService) IDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM crawled_artworks ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
