package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"framecache/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvMaxSizeMiB, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "framecache", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "framecache", "logs"); cfg.Paths.LogDir != want {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "framecache", "journal.db"); cfg.Paths.JournalPath != want {
		t.Fatalf("unexpected journal path: got %q want %q", cfg.Paths.JournalPath, want)
	}
	if cfg.FrameCache.DeletionStrategy != "far" {
		t.Fatalf("expected far strategy by default, got %q", cfg.FrameCache.DeletionStrategy)
	}
	if cfg.FrameCache.MaxPasses != 5 {
		t.Fatalf("expected 5 passes by default, got %d", cfg.FrameCache.MaxPasses)
	}
	if cfg.Logging.Format != "auto" {
		t.Fatalf("expected auto log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvMaxSizeMiB, "")
	path := filepath.Join(t.TempDir(), "framecache.toml")
	content := `
[frame_cache]
max_size_mib = 512
width = 1280
height = 720
scale = 0.5
color_type = "YUV"
deletion_strategy = "Backward-Block"

[playback]
fps = 24
lock_window = 4

[paths]
log_dir = "~/logs"
journal_path = ""

[logging]
format = "json"
level = "DEBUG"

[logging.component_levels]
FrameCache = "warn"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q exists=%v", path, resolved, exists)
	}
	if cfg.FrameCache.MaxSizeMiB != 512 {
		t.Fatalf("max_size_mib = %d", cfg.FrameCache.MaxSizeMiB)
	}
	if cfg.FrameCache.ColorType != "yuv" {
		t.Fatalf("color_type = %q", cfg.FrameCache.ColorType)
	}
	if cfg.FrameCache.DeletionStrategy != "backward_block" {
		t.Fatalf("deletion_strategy = %q", cfg.FrameCache.DeletionStrategy)
	}
	if cfg.Playback.FPS != 24 || cfg.Playback.LockWindow != 4 {
		t.Fatalf("unexpected playback section %+v", cfg.Playback)
	}
	if cfg.Paths.JournalPath != "" {
		t.Fatalf("expected journal disabled, got %q", cfg.Paths.JournalPath)
	}
	if !filepath.IsAbs(cfg.Paths.LogDir) || strings.HasPrefix(cfg.Paths.LogDir, "~") {
		t.Fatalf("expected expanded log dir, got %q", cfg.Paths.LogDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if cfg.Logging.ComponentLevels["framecache"] != "warn" {
		t.Fatalf("component levels = %v", cfg.Logging.ComponentLevels)
	}
}

func TestEnvOverridesMaxSize(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvMaxSizeMiB, "256")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FrameCache.MaxSizeMiB != 256 {
		t.Fatalf("max_size_mib = %d, want 256", cfg.FrameCache.MaxSizeMiB)
	}
	if got := cfg.MaxBytes(0); got != 256<<20 {
		t.Fatalf("MaxBytes = %d, want %d", got, 256<<20)
	}
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvMaxSizeMiB, "lots")

	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for non-numeric override")
	}
}

func TestMaxBytes(t *testing.T) {
	tests := []struct {
		name     string
		mib      int
		fraction float64
		total    uint64
		want     int64
	}{
		{"fixed budget ignores memory", 100, 0.5, 8 << 30, 100 << 20},
		{"auto budget uses fraction", 0, 0.25, 8 << 30, 2 << 30},
		{"unknown memory falls back", 0, 0.25, 0, 1024 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.FrameCache.MaxSizeMiB = tt.mib
			cfg.FrameCache.AutoMemoryFraction = tt.fraction
			if got := cfg.MaxBytes(tt.total); got != tt.want {
				t.Fatalf("MaxBytes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative budget", func(c *config.Config) { c.FrameCache.MaxSizeMiB = -1 }, "max_size_mib"},
		{"fraction above one", func(c *config.Config) { c.FrameCache.AutoMemoryFraction = 1.5 }, "auto_memory_fraction"},
		{"zero width", func(c *config.Config) { c.FrameCache.Width = 0 }, "width"},
		{"upscale", func(c *config.Config) { c.FrameCache.Scale = 2 }, "scale"},
		{"color type", func(c *config.Config) { c.FrameCache.ColorType = "cmyk" }, "color_type"},
		{"strategy", func(c *config.Config) { c.FrameCache.DeletionStrategy = "random" }, "deletion_strategy"},
		{"fps", func(c *config.Config) { c.Playback.FPS = -1 }, "playback.fps"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"component level", func(c *config.Config) {
			c.Logging.ComponentLevels = map[string]string{"framecache": "loud"}
		}, "component_levels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvMaxSizeMiB, "")
	path := filepath.Join(t.TempDir(), "sample", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	def := config.Default()
	if cfg.FrameCache.Width != def.FrameCache.Width || cfg.Playback.Prefetch != def.Playback.Prefetch {
		t.Fatal("sample config drifted from defaults")
	}
}

func TestReloadRequiresFile(t *testing.T) {
	if _, err := config.Reload(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected Reload to fail for a missing file")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.FrameCache.MaxSizeMiB = 64
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.FrameCache.MaxSizeMiB != 64 {
		t.Fatalf("max_size_mib = %d after round trip", decoded.FrameCache.MaxSizeMiB)
	}
}
