// Package config loads lanegraph settings from a TOML file.
//
// Every field has a default, so an empty or missing file is valid. The CLI
// reads the file given by --config, then lets explicit flags override it.
//
//	[layout]
//	visible_lane_limit = 7
//
//	[geometry]
//	max_lane_width = 16
//
//	[render]
//	row_height = 24
//	labels = true
//	formats = ["svg", "text"]
//
//	[cache]
//	ttl = "24h"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/render/row"
)

// AppName names the cache and config directories.
const AppName = "lanegraph"

// Known output formats.
var Formats = []string{"svg", "png", "pdf", "json", "text"}

// Config is the full configuration file.
type Config struct {
	Layout   Layout       `toml:"layout"`
	Geometry row.Geometry `toml:"geometry"`
	Render   Render       `toml:"render"`
	Cache    Cache        `toml:"cache"`
	Server   Server       `toml:"server"`
}

type Layout struct {
	VisibleLaneLimit int `toml:"visible_lane_limit"`
}

type Render struct {
	RowHeight float64  `toml:"row_height"`
	Width     float64  `toml:"width"`
	Labels    bool     `toml:"labels"`
	Formats   []string `toml:"formats"`
	Palette   []string `toml:"palette"`
}

type Cache struct {
	Dir       string `toml:"dir"`
	Disabled  bool   `toml:"disabled"`
	RedisAddr string `toml:"redis_addr"`

	// TTL overrides the per-kind entry lifetimes when positive.
	TTL Duration `toml:"ttl"`
}

type Server struct {
	Addr           string   `toml:"addr"`
	MaxBodyBytes   int64    `toml:"max_body_bytes"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// Duration is a time.Duration written as a string ("90s", "24h") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout:   Layout{VisibleLaneLimit: lanes.DefaultVisibleLaneLimit},
		Geometry: row.DefaultGeometry(),
		Render: Render{
			RowHeight: 24,
			Formats:   []string{"svg"},
		},
		Server: Server{
			Addr:           ":8080",
			MaxBodyBytes:   8 << 20,
			RequestTimeout: Duration{30 * time.Second},
		},
	}
}

// Load reads the TOML file at path on top of [Default]. A missing file
// is not an error when path is the default location (see [DefaultPath]).
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			if def, derr := DefaultPath(); derr == nil && def == path {
				return Default(), nil
			}
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open config")
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML from r on top of [Default] and validates the result.
// Unknown keys are rejected so typos do not go unnoticed.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	cfg.Geometry = cfg.Geometry.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Layout.VisibleLaneLimit < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.visible_lane_limit must be at least 1")
	}
	if c.Render.RowHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render.row_height must be positive")
	}
	if c.Render.Width < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render.width must not be negative")
	}
	for _, f := range c.Render.Formats {
		if !slices.Contains(Formats, f) {
			return errors.New(errors.ErrCodeInvalidFormat, "render.formats: unknown format %q", f)
		}
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_body_bytes must be positive")
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// DefaultPath returns the config file location following XDG
// (~/.config/lanegraph/config.toml).
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns the cache directory: Cache.Dir when set, otherwise the
// XDG cache location (~/.cache/lanegraph).
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
