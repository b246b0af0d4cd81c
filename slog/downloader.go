package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fwojciec/illustdl"
)

// Ensure LoggingDownloader implements illustdl.Downloader.
var _ illustdl.Downloader = (*LoggingDownloader)(nil)

// LoggingDownloader wraps a Downloader with logging of every written image.
type LoggingDownloader struct {
	next   illustdl.Downloader
	logger *slog.Logger
}

// NewLoggingDownloader creates a new LoggingDownloader.
func NewLoggingDownloader(next illustdl.Downloader, logger *slog.Logger) *LoggingDownloader {
	return &LoggingDownloader{next: next, logger: logger}
}

// Download delegates to the wrapped downloader and logs the file written,
// its size and the URL actually served.
func (d *LoggingDownloader) Download(ctx context.Context, req illustdl.DownloadRequest) (result *illustdl.DownloadResult, err error) {
	defer func(begin time.Time) {
		if err != nil {
			d.logger.Warn("download failed",
				"url", req.URL,
				"artwork", req.ArtworkID,
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		attrs := []any{
			"file", result.Filename,
			"artwork", req.ArtworkID,
			"bytes", result.Bytes,
			"size", humanize.IBytes(uint64(result.Bytes)),
			"duration", time.Since(begin),
		}
		if result.URL != req.URL {
			attrs = append(attrs, "served", result.URL)
		}
		d.logger.Info("download", attrs...)
	}(time.Now())
	return d.next.Download(ctx, req)
}
