// Package zip packs downloaded images into numbered zip archives.
package zip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/illustdl"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// ManifestName is the archive entry listing the xxhash64 of every other
// entry, one "<hex>  <name>" line per file.
const ManifestName = "CHECKSUMS.xxh64"

// DefaultPerArchive is the default number of images per archive.
const DefaultPerArchive = 100

// imageExts are the file extensions packed, compared case-insensitively.
var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Packer groups the images of a store into archives of at most PerArchive
// files, in lexical order of their names.
type Packer struct {
	Store illustdl.ImageStore

	// Fs receives the archives.
	Fs afero.Fs

	// Output is a fmt pattern receiving the 0-based archive index,
	// e.g. "archives/images-%03d.zip".
	Output string

	PerArchive int

	// Concurrency limits archives written at once. Zero means GOMAXPROCS.
	Concurrency int

	Logger *slog.Logger
}

// Archive describes one written archive.
type Archive struct {
	Path  string
	Files int
	Bytes int64
}

// Result holds the outcome of a pack run.
type Result struct {
	Archives []Archive

	// Skipped lists images that could not be opened.
	Skipped []string
}

// Pack writes the archives. An empty store yields an empty result.
func (p *Packer) Pack(ctx context.Context) (*Result, error) {
	if !strings.Contains(p.Output, "%") {
		return nil, illustdl.Errorf(illustdl.EINVALID, "archive output pattern %q has no index verb", p.Output)
	}
	perArchive := p.PerArchive
	if perArchive <= 0 {
		perArchive = DefaultPerArchive
	}
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	names, err := p.Store.List()
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	images := names[:0:0]
	for _, name := range names {
		if imageExts[strings.ToLower(filepath.Ext(name))] {
			images = append(images, name)
		}
	}
	sort.Strings(images)

	result := &Result{}
	if len(images) == 0 {
		logger.Warn("no images to pack")
		return result, nil
	}

	var batches [][]string
	for start := 0; start < len(images); start += perArchive {
		batches = append(batches, images[start:min(start+perArchive, len(images))])
	}
	result.Archives = make([]Archive, len(batches))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			archive, skipped, err := p.writeArchive(gctx, fmt.Sprintf(p.Output, i), batch, logger)
			if err != nil {
				return err
			}
			mu.Lock()
			result.Archives[i] = *archive
			result.Skipped = append(result.Skipped, skipped...)
			mu.Unlock()
			logger.Info("archive written", "path", archive.Path, "files", archive.Files, "bytes", archive.Bytes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(result.Skipped)
	return result, nil
}

// writeArchive writes one archive to a temporary file and renames it into
// place once complete.
func (p *Packer) writeArchive(ctx context.Context, path string, names []string, logger *slog.Logger) (_ *Archive, skipped []string, err error) {
	if err := p.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create archive directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := p.Fs.Create(tmp)
	if err != nil {
		return nil, nil, fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			_ = p.Fs.Remove(tmp)
		}
	}()

	archive := &Archive{Path: path}
	zw := zip.NewWriter(f)
	var manifest strings.Builder
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		n, sum, err := p.addFile(zw, name)
		if err != nil {
			if isOpenError(err) {
				logger.Error("skipping image", "file", name, "error", err)
				skipped = append(skipped, name)
				continue
			}
			return nil, nil, fmt.Errorf("archive %s: %w", path, err)
		}
		fmt.Fprintf(&manifest, "%016x  %s\n", sum, name)
		archive.Files++
		archive.Bytes += n
	}

	w, err := zw.Create(ManifestName)
	if err != nil {
		return nil, nil, fmt.Errorf("archive %s: %w", path, err)
	}
	if _, err := io.WriteString(w, manifest.String()); err != nil {
		return nil, nil, fmt.Errorf("archive %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("archive %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, nil, fmt.Errorf("archive %s: %w", path, err)
	}
	if err := p.Fs.Rename(tmp, path); err != nil {
		_ = p.Fs.Remove(tmp)
		return nil, nil, fmt.Errorf("archive %s: %w", path, err)
	}
	return archive, skipped, nil
}

// openError marks a source image that could not be opened.
type openError struct{ err error }

func (e *openError) Error() string { return e.err.Error() }
func (e *openError) Unwrap() error { return e.err }

func isOpenError(err error) bool {
	var oe *openError
	return errors.As(err, &oe)
}

// addFile copies one image into the archive and returns its size and
// xxhash64.
func (p *Packer) addFile(zw *zip.Writer, name string) (int64, uint64, error) {
	src, err := p.Store.Open(name)
	if err != nil {
		return 0, 0, &openError{err: err}
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return 0, 0, err
	}
	h := xxhash.New()
	n, err := io.Copy(io.MultiWriter(w, h), src)
	if err != nil {
		return 0, 0, fmt.Errorf("copy %s: %w", name, err)
	}
	return n, h.Sum64(), nil
}
