package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/lanegraph/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
[layout]
visible_lane_limit = 5

[geometry]
max_lane_width = 20.0
min_lane_width = 6.0

[render]
row_height = 30.0
labels = true
formats = ["svg", "text"]

[cache]
ttl = "90m"
redis_addr = "localhost:6379"

[server]
addr = ":9000"
`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if cfg.Layout.VisibleLaneLimit != 5 {
		t.Errorf("VisibleLaneLimit = %d, want 5", cfg.Layout.VisibleLaneLimit)
	}
	if cfg.Geometry.MaxLaneWidth != 20 || cfg.Geometry.MinLaneWidth != 6 {
		t.Errorf("Geometry = %+v", cfg.Geometry)
	}
	if cfg.Geometry.NodeRadius != 4 {
		t.Errorf("unset geometry field NodeRadius = %v, want default 4", cfg.Geometry.NodeRadius)
	}
	if cfg.Render.RowHeight != 30 || !cfg.Render.Labels {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if len(cfg.Render.Formats) != 2 || cfg.Render.Formats[1] != "text" {
		t.Errorf("Formats = %v", cfg.Render.Formats)
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("TTL = %v, want 90m", cfg.Cache.TTL)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Server.Addr != ":9000" {
		t.Errorf("Cache/Server = %+v %+v", cfg.Cache, cfg.Server)
	}
	if cfg.Server.MaxBodyBytes != Default().Server.MaxBodyBytes {
		t.Error("unset server field lost its default")
	}
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode(empty) error: %v", err)
	}
	if cfg.Layout.VisibleLaneLimit != 7 || cfg.Render.RowHeight != 24 {
		t.Errorf("Decode(empty) = %+v, want defaults", cfg)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"Syntax", "[layout", errors.ErrCodeInvalidConfig},
		{"UnknownKey", "[layout]\nvisible_lanes = 3", errors.ErrCodeInvalidConfig},
		{"BadLimit", "[layout]\nvisible_lane_limit = 0", errors.ErrCodeInvalidConfig},
		{"BadRowHeight", "[render]\nrow_height = -1.0", errors.ErrCodeInvalidConfig},
		{"BadFormat", "[render]\nformats = [\"gif\"]", errors.ErrCodeInvalidFormat},
		{"BadDuration", "[cache]\nttl = \"soon\"", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[render]\nwidth = 64.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Render.Width != 64 {
		t.Errorf("Width = %v, want 64", cfg.Render.Width)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	def, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(def)
	if err != nil {
		t.Fatalf("Load(default path) error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	want := Default()
	want.Render.Labels = true
	want.Cache.TTL = Duration{time.Hour}

	var buf bytes.Buffer
	if err := want.Encode(&buf); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error: %v\n%s", err, buf.String())
	}
	if !got.Render.Labels || got.Cache.TTL.Duration != time.Hour {
		t.Errorf("round trip = %+v", got)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	dir, err := Default().CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/custom-cache", AppName) {
		t.Errorf("CacheDir() = %q", dir)
	}

	cfg := Default()
	cfg.Cache.Dir = "/var/cache/lg"
	if dir, _ := cfg.CacheDir(); dir != "/var/cache/lg" {
		t.Errorf("CacheDir() with Dir = %q", dir)
	}
}

func TestCacheDirHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := Default().CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	home, _ := os.UserHomeDir()
	if dir != filepath.Join(home, ".cache", AppName) {
		t.Errorf("CacheDir() = %q", dir)
	}
}
