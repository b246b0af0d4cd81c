package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/illustdl"
)

// Ensure LoggingLedger implements illustdl.Ledger.
var _ illustdl.Ledger = (*LoggingLedger)(nil)

// LoggingLedger wraps a Ledger with logging.
type LoggingLedger struct {
	next   illustdl.Ledger
	logger *slog.Logger
}

// NewLoggingLedger creates a new LoggingLedger.
func NewLoggingLedger(next illustdl.Ledger, logger *slog.Logger) *LoggingLedger {
	return &LoggingLedger{next: next, logger: logger}
}

func (l *LoggingLedger) PagesDownloaded(ctx context.Context, id int64) (pages int, err error) {
	defer func(begin time.Time) {
		l.logger.Debug("ledger lookup",
			"artwork", id,
			"pages", pages,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.PagesDownloaded(ctx, id)
}

func (l *LoggingLedger) Record(ctx context.Context, entry illustdl.LedgerEntry) (err error) {
	defer func(begin time.Time) {
		l.logger.Info("ledger record",
			"artwork", entry.ArtworkID,
			"pages", entry.Pages,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.Record(ctx, entry)
}

func (l *LoggingLedger) Count(ctx context.Context) (int, error) {
	return l.next.Count(ctx)
}

func (l *LoggingLedger) IDs(ctx context.Context) ([]int64, error) {
	return l.next.IDs(ctx)
}
