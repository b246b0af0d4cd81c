package viper

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fwojciec/illustdl"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// CursorKey is the configuration key holding the crawl cursor.
const CursorKey = "startPage"

// Ensure CursorStore implements illustdl.CursorStore at compile time.
var _ illustdl.CursorStore = (*CursorStore)(nil)

// CursorStore persists the crawl cursor in the startPage key of the
// configuration file. Other keys of the file are preserved. Environment
// overrides are neither read nor written back.
type CursorStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewCursorStore creates a CursorStore for the configuration file at path.
func NewCursorStore(fsys afero.Fs, path string) *CursorStore {
	return &CursorStore{fs: fsys, path: path}
}

// LoadCursor returns the startPage value of the file.
func (s *CursorStore) LoadCursor() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.read()
	if err != nil {
		return "", err
	}
	return v.GetString(CursorKey), nil
}

// SaveCursor rewrites the file with startPage set to url. The file is
// replaced atomically so an interrupted write never loses the configuration.
func (s *CursorStore) SaveCursor(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.read()
	if err != nil {
		return err
	}
	v.Set(CursorKey, url)

	ext := filepath.Ext(s.path)
	tmp := strings.TrimSuffix(s.path, ext) + ".tmp" + ext
	if err := v.WriteConfigAs(tmp); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("write cursor: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func (s *CursorStore) read() (*viper.Viper, error) {
	v := viper.New()
	v.SetFs(s.fs)
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", s.path, err)
	}
	return v, nil
}
