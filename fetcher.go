package illustdl

import (
	"context"
	"io"
)

// Fetcher retrieves the HTML of listing and detail pages.
type Fetcher interface {
	// Fetch performs a single GET and returns the body of a 2xx response.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)
}

// DownloadRequest describes one image page to download.
type DownloadRequest struct {
	// URL is the canonical image URL of the page.
	URL string

	// ArtworkID identifies the artwork the page belongs to; it determines the
	// Referer sent with the request.
	ArtworkID int64
}

// DownloadResult describes a completed download.
type DownloadResult struct {
	// URL is the URL that was actually served, which may differ from the
	// requested URL by its extension.
	URL         string
	Filename    string
	Bytes       int64
	ContentType string
}

// Downloader fetches one image page and writes it to storage.
type Downloader interface {
	// Download writes the image to storage under the basename of the served
	// URL, replacing any existing file. It returns only after a fully
	// successful write.
	Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error)
}

// ImageStore stores downloaded image files by name.
type ImageStore interface {
	// Create creates or truncates the named file.
	Create(name string) (io.WriteCloser, error)

	// Open opens the named file for reading.
	Open(name string) (io.ReadCloser, error)

	// Remove deletes the named file. Missing files are not an error.
	Remove(name string) error

	// List returns the names of stored files in lexical order.
	List() ([]string, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
