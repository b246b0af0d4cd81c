package mock

import (
	"context"
	"io"

	"github.com/fwojciec/illustdl"
)

// Compile-time interface verification.
var (
	_ illustdl.Fetcher       = (*Fetcher)(nil)
	_ illustdl.Downloader    = (*Downloader)(nil)
	_ illustdl.ImageStore    = (*ImageStore)(nil)
	_ illustdl.DomainLimiter = (*DomainLimiter)(nil)
)

// Fetcher is a mock implementation of illustdl.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

// Downloader is a mock implementation of illustdl.Downloader.
type Downloader struct {
	DownloadFn func(ctx context.Context, req illustdl.DownloadRequest) (*illustdl.DownloadResult, error)
}

func (d *Downloader) Download(ctx context.Context, req illustdl.DownloadRequest) (*illustdl.DownloadResult, error) {
	return d.DownloadFn(ctx, req)
}

// ImageStore is a mock implementation of illustdl.ImageStore.
type ImageStore struct {
	CreateFn func(name string) (io.WriteCloser, error)
	OpenFn   func(name string) (io.ReadCloser, error)
	RemoveFn func(name string) error
	ListFn   func() ([]string, error)
}

func (s *ImageStore) Create(name string) (io.WriteCloser, error) {
	return s.CreateFn(name)
}

func (s *ImageStore) Open(name string) (io.ReadCloser, error) {
	return s.OpenFn(name)
}

func (s *ImageStore) Remove(name string) error {
	return s.RemoveFn(name)
}

func (s *ImageStore) List() ([]string, error) {
	return s.ListFn()
}

// DomainLimiter is a mock implementation of illustdl.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
