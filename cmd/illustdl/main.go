package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/illustdl"
	illustslog "github.com/fwojciec/illustdl/slog"
	"github.com/fwojciec/illustdl/sqlite"
	"github.com/fwojciec/illustdl/viper"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfigCreated = 2
	ExitLayout        = 3
	ExitUnavailable   = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env file is not an error.
	_ = godotenv.Load()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err != nil && !errors.Is(err, viper.ErrConfigCreated) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(ExitCode(err))
}

// ExitCode maps the error returned by Run to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, viper.ErrConfigCreated) {
		return ExitConfigCreated
	}
	switch illustdl.ErrorCode(err) {
	case illustdl.ELAYOUT:
		return ExitLayout
	case illustdl.EUNAVAILABLE:
		return ExitUnavailable
	}
	return ExitFailure
}

// Main represents the program.
type Main struct {
	// ConfigPath is the configuration file used when --config is not given.
	ConfigPath string

	// Fs holds the configuration file, the images and the archives.
	Fs afero.Fs

	// SQLite database backing the ledger. Opened only by commands that
	// need it.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPath: defaultConfigPath(),
		Fs:         afero.NewOsFs(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("illustdl"),
		kong.Description("Resumable downloader for ranked illustration listings."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'illustdl --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	path := m.ConfigPath
	if cli.Config != "" {
		path = cli.Config
	}

	cfg, err := viper.Load(m.Fs, path, filepath.Dir(path))
	if errors.Is(err, viper.ErrConfigCreated) {
		fmt.Fprintf(stderr, "Wrote default configuration to %s\n", path)
		fmt.Fprintln(stderr, "Hint: set the session cookie in the file and run again")
		return err
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", illustdl.ErrorMessage(err))
		return err
	}
	deps.Config = cfg

	logger, err := illustslog.NewLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	deps.Logger = logger.With("run", uuid.NewString())
	deps.Cursor = viper.NewCursorStore(m.Fs, path)

	switch kongCtx.Command() {
	case "crawl":
		if err := cfg.RequireCookie(); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", illustdl.ErrorMessage(err))
			return err
		}
		if err := m.openDB(cfg, stderr); err != nil {
			return err
		}
		defer m.Close()

		wiring, err := newCrawlWiring(ctx, cfg, m.DB, m.Fs, deps.Cursor, deps.Logger)
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", illustdl.ErrorMessage(err))
			return err
		}
		deps.Crawler = wiring.Crawler
		deps.Ledger = wiring.Ledger
		deps.Images = wiring.Images

		if cfg.Metrics.Addr != "" {
			stopMetrics := serveMetrics(cfg.Metrics.Addr, wiring.Metrics, deps.Logger)
			defer stopMetrics()
		}

	case "status":
		if err := m.openDB(cfg, stderr); err != nil {
			return err
		}
		defer m.Close()

		deps.Ledger = illustslog.NewLoggingLedger(sqlite.NewLedgerService(m.DB), deps.Logger)
		deps.Images = newImageStore(m.Fs, cfg.ImgSavePath)

	case "pack":
		deps.Packer = newPacker(cfg, m.Fs, deps.Logger)
	}

	return kongCtx.Run(deps)
}

func (m *Main) openDB(cfg *viper.Config, stderr io.Writer) error {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		_ = m.Fs.MkdirAll(dir, 0o755)
	}
	m.DB = sqlite.NewDB(cfg.DBPath)
	if err := m.DB.Open(); err != nil {
		m.DB = nil
		fmt.Fprintf(stderr, "Hint: set dbPath in the config file or %s_DBPATH to use a different database\n", viper.EnvPrefix)
		return fmt.Errorf("failed to open database at %q: %w", cfg.DBPath, err)
	}
	return nil
}

// defaultConfigPath returns the configuration file next to the executable.
func defaultConfigPath() string {
	exe, err := os.Executable()
	if err != nil {
		return viper.DefaultConfigName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), viper.DefaultConfigName)
}
