package main_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/illustdl"
	main "github.com/fwojciec/illustdl/cmd/illustdl"
	"github.com/fwojciec/illustdl/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	helpOutput := stdout.String()
	for _, cmd := range []string{"crawl", "pack", "status", "--config"} {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s", cmd)
	}
}

func TestMain_Run_HelpShowsKongOutput(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.ConfigPath = filepath.Join(t.TempDir(), "config.yml")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"--help"}, stdout, stderr)
	require.NoError(t, err)

	for _, cmd := range []string{"crawl", "pack", "status"} {
		assert.Contains(t, stdout.String(), cmd)
	}
	assert.NoFileExists(t, m.ConfigPath, "help must not write a configuration file")
}

func TestMain_Run_NoCommand(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.ConfigPath = filepath.Join(t.TempDir(), "config.yml")

	err := m.Run(context.Background(), nil, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestMain_Run_WritesDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := main.NewMain()
	m.ConfigPath = filepath.Join(dir, "config.yml")

	stderr := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"status"}, &bytes.Buffer{}, stderr)

	require.ErrorIs(t, err, viper.ErrConfigCreated)
	assert.Equal(t, main.ExitConfigCreated, main.ExitCode(err))
	assert.FileExists(t, m.ConfigPath)
	assert.Contains(t, stderr.String(), "Wrote default configuration")
	assert.NoFileExists(t, filepath.Join(dir, "illustdl.db"), "no database is opened before the config exists")
}

func TestMain_Run_ConfigFlagOverridesDefaultPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := main.NewMain()
	m.ConfigPath = filepath.Join(dir, "unused.yml")
	custom := filepath.Join(dir, "custom.yml")

	err := m.Run(context.Background(), []string{"--config", custom, "status"}, &bytes.Buffer{}, &bytes.Buffer{})

	require.ErrorIs(t, err, viper.ErrConfigCreated)
	assert.FileExists(t, custom)
	assert.NoFileExists(t, m.ConfigPath)
}

func TestMain_Run_Status(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := main.NewMain()
	m.ConfigPath = filepath.Join(dir, "config.yml")
	require.NoError(t, viper.WriteDefault(m.Fs, m.ConfigPath))

	stdout := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"status"}, stdout, &bytes.Buffer{})
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "Artworks downloaded: 0")
	assert.Contains(t, out, viper.DefaultStartPage)
	assert.Contains(t, out, filepath.Join(dir, "images"))
	assert.FileExists(t, filepath.Join(dir, "illustdl.db"))
}

func TestMain_Run_CrawlRequiresCookie(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := main.NewMain()
	m.ConfigPath = filepath.Join(dir, "config.yml")
	require.NoError(t, viper.WriteDefault(m.Fs, m.ConfigPath))

	stderr := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"crawl"}, &bytes.Buffer{}, stderr)

	require.Error(t, err)
	assert.Equal(t, illustdl.EINVALID, illustdl.ErrorCode(err))
	assert.Equal(t, main.ExitFailure, main.ExitCode(err))
	assert.Contains(t, stderr.String(), "cookie required")
}

func TestMain_Run_Pack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := main.NewMain()
	m.ConfigPath = filepath.Join(dir, "config.yml")
	require.NoError(t, viper.WriteDefault(m.Fs, m.ConfigPath))

	images := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(images, 0o755))
	for i := range 3 {
		name := filepath.Join(images, fmt.Sprintf("10%d_p0.jpg", i))
		require.NoError(t, os.WriteFile(name, []byte("jpeg"), 0o644))
	}

	stdout := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"pack", "--per-archive", "2"}, stdout, &bytes.Buffer{})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "archives", "images-000.zip"))
	assert.FileExists(t, filepath.Join(dir, "archives", "images-001.zip"))
	assert.Contains(t, stdout.String(), "2 images")
	assert.Contains(t, stdout.String(), "1 images")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, main.ExitOK},
		{"config created", fmt.Errorf("load: %w", viper.ErrConfigCreated), main.ExitConfigCreated},
		{"layout", illustdl.Errorf(illustdl.ELAYOUT, "pager missing"), main.ExitLayout},
		{"wrapped layout", fmt.Errorf("page 3: %w", illustdl.Errorf(illustdl.ELAYOUT, "x")), main.ExitLayout},
		{"unavailable", illustdl.Errorf(illustdl.EUNAVAILABLE, "breaker open"), main.ExitUnavailable},
		{"invalid", illustdl.Errorf(illustdl.EINVALID, "bad"), main.ExitFailure},
		{"plain", errors.New("boom"), main.ExitFailure},
		{"canceled", context.Canceled, main.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, main.ExitCode(tt.err))
		})
	}
}
