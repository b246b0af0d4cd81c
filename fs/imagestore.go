// Package fs provides file-based storage for downloaded images.
package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fwojciec/illustdl"
	"github.com/spf13/afero"
)

// Ensure ImageStore implements illustdl.ImageStore at compile time.
var _ illustdl.ImageStore = (*ImageStore)(nil)

// ImageStore keeps image files flat in a single directory, named by the
// basename of their source URL.
type ImageStore struct {
	fs  afero.Fs
	dir string
}

// NewImageStore creates an ImageStore rooted at dir on the OS filesystem.
func NewImageStore(dir string) *ImageStore {
	return NewImageStoreFs(afero.NewOsFs(), dir)
}

// NewImageStoreFs creates an ImageStore rooted at dir on fsys.
func NewImageStoreFs(fsys afero.Fs, dir string) *ImageStore {
	return &ImageStore{fs: fsys, dir: dir}
}

// Dir returns the directory images are written to.
func (s *ImageStore) Dir() string {
	return s.dir
}

// Create creates or truncates the named file, creating the directory first.
func (s *ImageStore) Create(name string) (io.WriteCloser, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	return s.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
}

// Open opens the named file for reading.
func (s *ImageStore) Open(name string) (io.ReadCloser, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, illustdl.Errorf(illustdl.ENOTFOUND, "image %q not found", name)
	}
	return f, err
}

// Remove deletes the named file.
func (s *ImageStore) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns the names of regular files in the directory, sorted.
// A missing directory holds no files.
func (s *ImageStore) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, info := range infos {
		if info.Mode().IsRegular() {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// path joins name to the store directory, rejecting names that would escape it.
func (s *ImageStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", illustdl.Errorf(illustdl.EINVALID, "invalid image name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
