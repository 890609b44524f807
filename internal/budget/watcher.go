package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"framecache/internal/config"
	"framecache/internal/logging"
)

const defaultDebounce = 200 * time.Millisecond

// ReloadFunc receives every successfully reloaded configuration.
type ReloadFunc func(cfg *config.Config)

// Watcher reloads a configuration file when it changes and updates a Live
// budget. Invalid files are logged and ignored; the previous budget stays.
type Watcher struct {
	path     string
	live     *Live
	memory   func() uint64
	debounce time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	listeners []ReloadFunc
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// WatcherOption customizes a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce coalesces bursts of file events (editors often write twice).
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithMemoryProbe overrides TotalMemory, mainly for tests.
func WithMemoryProbe(fn func() uint64) WatcherOption {
	return func(w *Watcher) {
		if fn != nil {
			w.memory = fn
		}
	}
}

// WithWatcherLogger routes watcher diagnostics to logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher prepares a watcher for the config file at path. Call Start to
// begin watching.
func NewWatcher(path string, live *Live, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		live:     live,
		memory:   TotalMemory,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewComponentLogger(w.logger, "budget")
	return w
}

// OnReload registers fn for every successful reload.
func (w *Watcher) OnReload(fn ReloadFunc) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Start watches the config file's directory until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	// Watch the directory so atomic renames by editors are still seen.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop(ctx, fsw)
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fsw.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				timer.Reset(w.debounce)
			}
			logging.WarnWithContext(w.logger, "config watcher error; continuing", "config_watch_error",
				logging.Error(err),
				logging.String("config_path", w.path),
				logging.String(logging.FieldImpact, "budget changes may be picked up late"),
			)
		case <-timer.C:
			w.Reload()
		}
	}
}

// Reload re-reads the config file now and applies it. It returns the error
// that left the previous budget in place, if any.
func (w *Watcher) Reload() error {
	cfg, err := config.Reload(w.path)
	if err != nil {
		logging.WarnWithContext(w.logger, "config reload failed; keeping previous budget", "config_reload_failed",
			logging.Error(err),
			logging.String("config_path", w.path),
			logging.String(logging.FieldErrorHint, "fix the config file; the next save is picked up automatically"),
			logging.String(logging.FieldImpact, "frame cache keeps its previous budget and options"),
		)
		return err
	}

	maxBytes := cfg.MaxBytes(w.memory())
	previous := w.live.Set(maxBytes)
	if previous != maxBytes {
		w.logger.Info("frame cache budget updated",
			logging.String(logging.FieldEventType, "budget_updated"),
			logging.Bytes("previous_bytes", previous),
			logging.Bytes("max_bytes", maxBytes),
		)
	}

	w.mu.Lock()
	listeners := append([]ReloadFunc(nil), w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}
