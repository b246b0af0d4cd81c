package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/fwojciec/illustdl"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultRefererBase is prefixed to the artwork ID to form the Referer of
// image requests. The image host rejects requests without it.
const DefaultRefererBase = "https://www.pixiv.net/artworks/"

// sniffLen is the number of leading bytes inspected to detect the image type.
const sniffLen = 512

// RetryFunc runs op, retrying it according to the caller's policy.
type RetryFunc func(ctx context.Context, op func(ctx context.Context) error) error

// once runs op a single time.
func once(ctx context.Context, op func(ctx context.Context) error) error {
	return op(ctx)
}

// Ensure Downloader implements illustdl.Downloader at compile time.
var _ illustdl.Downloader = (*Downloader)(nil)

// Downloader fetches image pages and streams them into an ImageStore.
//
// When the server rejects an image URL with an HTTP status error, the
// Downloader tries the same URL with the .jpg/.png extension toggled. Each
// known extension is tried once.
type Downloader struct {
	client      *http.Client
	store       illustdl.ImageStore
	refererBase string
	limiter     illustdl.DomainLimiter
	retry       RetryFunc
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithRefererBase overrides DefaultRefererBase.
func WithRefererBase(base string) DownloaderOption {
	return func(d *Downloader) {
		d.refererBase = base
	}
}

// WithDownloadLimiter rate limits requests per host.
func WithDownloadLimiter(l illustdl.DomainLimiter) DownloaderOption {
	return func(d *Downloader) {
		d.limiter = l
	}
}

// WithRetry wraps every request attempt with retry.
// By default each candidate URL is requested once.
func WithRetry(retry RetryFunc) DownloaderOption {
	return func(d *Downloader) {
		d.retry = retry
	}
}

// NewDownloader creates a Downloader writing into store.
func NewDownloader(client *http.Client, store illustdl.ImageStore, opts ...DownloaderOption) *Downloader {
	if client == nil {
		client, _ = NewClient()
	}
	d := &Downloader{
		client:      client,
		store:       store,
		refererBase: DefaultRefererBase,
		retry:       once,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches req.URL, falling back to the alternate image extension on
// HTTP status errors, and writes the body to the store.
func (d *Downloader) Download(ctx context.Context, req illustdl.DownloadRequest) (*illustdl.DownloadResult, error) {
	var lastStatus *StatusError
	for _, candidate := range illustdl.ImageURLCandidates(req.URL) {
		var result *illustdl.DownloadResult
		err := d.retry(ctx, func(ctx context.Context) error {
			r, err := d.fetch(ctx, candidate, req.ArtworkID)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		if err == nil {
			return result, nil
		}

		var se *StatusError
		if !errors.As(err, &se) {
			return nil, err
		}
		lastStatus = se
	}

	if lastStatus.StatusCode == http.StatusNotFound || lastStatus.StatusCode == http.StatusGone {
		return nil, illustdl.Errorf(illustdl.ENOTFOUND, "image %s not found under any known extension", req.URL)
	}
	return nil, fmt.Errorf("image %s rejected under every known extension: %w", req.URL, lastStatus)
}

// fetch performs one request for rawURL and streams a successful response
// into the store. The destination is only created once the response status
// and content type are known to be good.
func (d *Downloader) fetch(ctx context.Context, rawURL string, artworkID int64) (*illustdl.DownloadResult, error) {
	if err := wait(ctx, d.limiter, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/png,image/jpeg,*/*")
	req.Header.Set("Referer", d.refererBase+strconv.FormatInt(artworkID, 10))

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body := bufio.NewReader(resp.Body)
	head, err := body.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, illustdl.Errorf(illustdl.EINVALID, "%s served %s instead of an image", rawURL, mtype.String())
	}

	name := illustdl.ImageFilename(rawURL)
	w, err := d.store.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	n, err := io.Copy(w, body)
	if err != nil {
		_ = w.Close()
		_ = d.store.Remove(name)
		return nil, err
	}
	if err := w.Close(); err != nil {
		_ = d.store.Remove(name)
		return nil, fmt.Errorf("close %s: %w", name, err)
	}

	return &illustdl.DownloadResult{
		URL:         rawURL,
		Filename:    name,
		Bytes:       n,
		ContentType: mtype.String(),
	}, nil
}
