// Package viper loads the YAML configuration file and persists the crawl
// cursor inside it.
package viper

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/illustdl"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// DefaultConfigName is the name of the configuration file next to the
// executable.
const DefaultConfigName = "config.yml"

// EnvPrefix prefixes environment variables that override configuration
// keys, e.g. ILLUSTDL_COOKIE or ILLUSTDL_RETRY_MAXATTEMPTS.
const EnvPrefix = "ILLUSTDL"

// HerePlaceholder is replaced with the installation directory in path
// settings.
const HerePlaceholder = "%HERE%"

// DefaultStartPage is the first page of the daily illustration ranking.
const DefaultStartPage = "https://www.pixiv.net/ranking.php?mode=daily&content=illust"

// ErrConfigCreated is returned by Load when no configuration file existed and
// a default one was written in its place.
var ErrConfigCreated = errors.New("default configuration written")

// Config holds the application configuration.
type Config struct {
	Cookie      string        `mapstructure:"cookie"`
	Proxy       ProxyConfig   `mapstructure:"proxy"`
	ImgSavePath string        `mapstructure:"imgSavePath"`
	StartPage   string        `mapstructure:"startPage"`
	DBPath      string        `mapstructure:"dbPath"`
	UserAgent   string        `mapstructure:"userAgent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RefererBase string        `mapstructure:"refererBase"`
	Retry       RetryConfig   `mapstructure:"retry"`

	// RateLimit is the request rate per host in requests per second.
	// Zero disables limiting.
	RateLimit float64 `mapstructure:"rateLimit"`

	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Pack    PackConfig    `mapstructure:"pack"`
}

type ProxyConfig struct {
	Scheme string `mapstructure:"scheme"`
	Host   string `mapstructure:"host"`
	Port   string `mapstructure:"port"`
}

type RetryConfig struct {
	MaxAttempts      int           `mapstructure:"maxAttempts"`
	InitialInterval  time.Duration `mapstructure:"initialInterval"`
	MaxInterval      time.Duration `mapstructure:"maxInterval"`
	BreakerThreshold int           `mapstructure:"breakerThreshold"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	// Addr is the listen address of the metrics endpoint. Empty disables it.
	Addr string `mapstructure:"addr"`
}

type PackConfig struct {
	PerArchive int `mapstructure:"perArchive"`

	// Output is a fmt pattern receiving the 0-based archive index.
	Output string `mapstructure:"output"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cookie", "")
	v.SetDefault("proxy.scheme", "http")
	v.SetDefault("proxy.host", "")
	v.SetDefault("proxy.port", "")
	v.SetDefault("imgSavePath", HerePlaceholder+"/images")
	v.SetDefault("startPage", DefaultStartPage)
	v.SetDefault("dbPath", HerePlaceholder+"/illustdl.db")
	v.SetDefault("userAgent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("timeout", "30s")
	v.SetDefault("refererBase", "https://www.pixiv.net/artworks/")

	v.SetDefault("retry.maxAttempts", 6)
	v.SetDefault("retry.initialInterval", "500ms")
	v.SetDefault("retry.maxInterval", "30s")
	v.SetDefault("retry.breakerThreshold", 5)
	v.SetDefault("rateLimit", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.addr", "")

	v.SetDefault("pack.perArchive", 100)
	v.SetDefault("pack.output", HerePlaceholder+"/archives/images-%03d.zip")
}

// Load reads the configuration file at path on fsys, applies environment
// overrides and replaces HerePlaceholder with here.
//
// When the file does not exist a default file is written and
// ErrConfigCreated returned.
func Load(fsys afero.Fs, path, here string) (*Config, error) {
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if !exists {
		if err := WriteDefault(fsys, path); err != nil {
			return nil, err
		}
		return nil, ErrConfigCreated
	}

	v := viper.New()
	v.SetFs(fsys)
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, illustdl.Errorf(illustdl.EINVALID, "read config %s: %v", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, illustdl.Errorf(illustdl.EINVALID, "decode config %s: %v", path, err)
	}

	cfg.ImgSavePath = expandHere(cfg.ImgSavePath, here)
	cfg.DBPath = expandHere(cfg.DBPath, here)
	cfg.Pack.Output = expandHere(cfg.Pack.Output, here)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteDefault writes a configuration file holding every default value.
func WriteDefault(fsys afero.Fs, path string) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	v := viper.New()
	v.SetFs(fsys)
	setDefaults(v)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// Validate returns an error if the configuration contains invalid values.
// The session cookie is not checked; commands that talk to the site check it
// with RequireCookie.
func (c *Config) Validate() error {
	if c.ImgSavePath == "" {
		return illustdl.Errorf(illustdl.EINVALID, "imgSavePath required")
	}
	if c.DBPath == "" {
		return illustdl.Errorf(illustdl.EINVALID, "dbPath required")
	}
	if c.StartPage != "" {
		u, err := url.Parse(c.StartPage)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return illustdl.Errorf(illustdl.EINVALID, "startPage must be an absolute http(s) URL: %q", c.StartPage)
		}
	}
	if c.Timeout <= 0 {
		return illustdl.Errorf(illustdl.EINVALID, "timeout must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return illustdl.Errorf(illustdl.EINVALID, "retry.maxAttempts must be at least 1")
	}
	if c.Retry.InitialInterval < 0 || c.Retry.MaxInterval < 0 {
		return illustdl.Errorf(illustdl.EINVALID, "retry intervals must not be negative")
	}
	if c.RateLimit < 0 {
		return illustdl.Errorf(illustdl.EINVALID, "rateLimit must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return illustdl.Errorf(illustdl.EINVALID, "log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Pack.PerArchive < 1 {
		return illustdl.Errorf(illustdl.EINVALID, "pack.perArchive must be at least 1")
	}
	return nil
}

// RequireCookie returns EINVALID if no session cookie is configured.
func (c *Config) RequireCookie() error {
	if strings.TrimSpace(c.Cookie) == "" {
		return illustdl.Errorf(illustdl.EINVALID, "cookie required: set the PHPSESSID session cookie in the config file or %s_COOKIE", EnvPrefix)
	}
	return nil
}

// HasProxy reports whether an outbound proxy is configured.
func (c *Config) HasProxy() bool {
	return c.Proxy.Host != ""
}

func expandHere(s, here string) string {
	return filepath.FromSlash(strings.ReplaceAll(s, HerePlaceholder, filepath.ToSlash(here)))
}
