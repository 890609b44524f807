package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"framecache/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test and
// a small fixed budget so tests never depend on the machine's memory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.JournalPath = filepath.Join(base, "journal.db")
	cfgVal.FrameCache.MaxSizeMiB = 8
	cfgVal.FrameCache.Width = 64
	cfgVal.FrameCache.Height = 36
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return builder.cfg
}

// WithMaxSizeMiB sets a fixed cache budget.
func WithMaxSizeMiB(mib int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.FrameCache.MaxSizeMiB = mib
	}
}

// WithFrameSize overrides the scene frame size.
func WithFrameSize(width, height int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.FrameCache.Width = width
		b.cfg.FrameCache.Height = height
	}
}

// WithStrategy sets frame_cache.deletion_strategy.
func WithStrategy(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.FrameCache.DeletionStrategy = name
	}
}

// WithPlayback overrides the simulator pacing.
func WithPlayback(fps float64, lockWindow, prefetch int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Playback.FPS = fps
		b.cfg.Playback.LockWindow = lockWindow
		b.cfg.Playback.Prefetch = prefetch
	}
}

// WithoutJournal clears paths.journal_path.
func WithoutJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.JournalPath = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

// WriteConfig encodes cfg as TOML under the config's base directory and returns the path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
