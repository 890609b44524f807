package budget

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"framecache/internal/config"
)

func TestLiveSetReturnsPrevious(t *testing.T) {
	l := NewLive(100)
	if prev := l.Set(200); prev != 100 {
		t.Fatalf("Set returned %d, want 100", prev)
	}
	if l.MaxBytes() != 200 {
		t.Fatalf("MaxBytes = %d, want 200", l.MaxBytes())
	}
	var nilLive *Live
	if nilLive.MaxBytes() != 0 {
		t.Fatal("nil Live should report a zero budget")
	}
}

func TestFromConfigUsesFixedBudget(t *testing.T) {
	cfg := config.Default()
	cfg.FrameCache.MaxSizeMiB = 32
	if got := FromConfig(&cfg).MaxBytes(); got != 32<<20 {
		t.Fatalf("MaxBytes = %d, want %d", got, 32<<20)
	}
}

func writeConfig(t *testing.T, path string, mib int) {
	t.Helper()
	content := "[frame_cache]\nmax_size_mib = " + strconv.Itoa(mib) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcherReloadAppliesBudget(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvMaxSizeMiB, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, 64)

	live := NewLive(0)
	w := NewWatcher(path, live, WithMemoryProbe(func() uint64 { return 0 }))
	var got *config.Config
	w.OnReload(func(cfg *config.Config) { got = cfg })

	if err := w.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if live.MaxBytes() != 64<<20 {
		t.Fatalf("budget = %d, want %d", live.MaxBytes(), 64<<20)
	}
	if got == nil || got.FrameCache.MaxSizeMiB != 64 {
		t.Fatalf("listener received %+v", got)
	}
}

func TestWatcherReloadKeepsBudgetOnInvalidFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvMaxSizeMiB, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[frame_cache]\nmax_size_mib = -4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	live := NewLive(123)
	w := NewWatcher(path, live)
	if err := w.Reload(); err == nil {
		t.Fatal("expected invalid config to fail")
	}
	if live.MaxBytes() != 123 {
		t.Fatalf("budget changed to %d after a failed reload", live.MaxBytes())
	}
}

func TestWatcherPicksUpFileChanges(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvMaxSizeMiB, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, 16)

	live := NewLive(16 << 20)
	w := NewWatcher(path, live, WithDebounce(20*time.Millisecond), WithMemoryProbe(func() uint64 { return 0 }))

	reloaded := make(chan int, 8)
	w.OnReload(func(cfg *config.Config) {
		select {
		case reloaded <- cfg.FrameCache.MaxSizeMiB:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, 48)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case mib := <-reloaded:
			if mib == 48 {
				if live.MaxBytes() != 48<<20 {
					t.Fatalf("budget = %d, want %d", live.MaxBytes(), 48<<20)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		}
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	w := NewWatcher(path, NewLive(0))
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}
