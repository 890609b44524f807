package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"framecache/internal/config"
	"framecache/internal/framecache"
	"framecache/internal/logging"
)

const progressPhase = "playback"

// Settings controls pacing and read-ahead.
type Settings struct {
	// FPS is the playhead rate. Only honoured when Realtime is set.
	FPS float64
	// LockWindow is how many frames up to and including the playhead stay locked.
	LockWindow int
	// Prefetch is how many frames ahead of the playhead the workers decode.
	Prefetch int
	// Workers is the number of prefetch goroutines.
	Workers  int
	Realtime bool
}

// SettingsFromConfig reads the [playback] table.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{Workers: 1}
	}
	return Settings{
		FPS:        cfg.Playback.FPS,
		LockWindow: cfg.Playback.LockWindow,
		Prefetch:   cfg.Playback.Prefetch,
		Workers:    cfg.Playback.DecodeWorkers,
	}
}

func (s Settings) frameInterval() time.Duration {
	if !s.Realtime || s.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / s.FPS)
}

// Result summarizes one Run.
type Result struct {
	Start      int
	Frames     int
	Hits       int
	Misses     int
	Prefetched int64
	Duration   time.Duration
	Stats      framecache.Stats
}

// HitRatio is the fraction of playhead reads served from the cache.
func (r Result) HitRatio() float64 {
	if r.Frames == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Frames)
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithLogger routes progress logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) { s.logger = logger }
}

// Simulator plays a frame range against a cache.
type Simulator struct {
	manager  *framecache.Manager
	decoder  Decoder
	settings Settings
	logger   *slog.Logger
}

// New returns a simulator feeding manager from decoder.
func New(manager *framecache.Manager, decoder Decoder, settings Settings, opts ...Option) *Simulator {
	if settings.Workers <= 0 {
		settings.Workers = 1
	}
	if settings.LockWindow < 0 {
		settings.LockWindow = 0
	}
	if settings.Prefetch < 0 {
		settings.Prefetch = 0
	}
	s := &Simulator{manager: manager, decoder: decoder, settings: settings}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "playback").With(
		logging.String(logging.FieldSessionID, manager.SessionID()),
	)
	return s
}

// Run plays count frames starting at start. It returns when the last frame has
// been shown, the context is cancelled, or a decode fails. Locks the run took
// are released before Run returns; locks held by other callers are left alone.
func (s *Simulator) Run(ctx context.Context, start, count int) (Result, error) {
	if count <= 0 {
		return Result{}, errors.New("playback: frame count must be positive")
	}
	if s.decoder == nil {
		return Result{}, errors.New("playback: decoder is required")
	}

	began := time.Now()
	end := start + count
	result := Result{Start: start}
	var prefetched atomic.Int64

	s.logger.Info("playback started",
		logging.Frames("frame_range", start, end),
		logging.Int("frames_total", count),
		logging.Int("prefetch", s.settings.Prefetch),
		logging.Int("lock_window", s.settings.LockWindow),
		logging.Bool("realtime", s.settings.Realtime),
	)

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int, max(s.settings.Prefetch, 1))

	var pendingMu sync.Mutex
	pending := make(map[int]struct{})
	done := func(frame int) {
		pendingMu.Lock()
		delete(pending, frame)
		pendingMu.Unlock()
	}

	for range s.settings.Workers {
		g.Go(func() error {
			for frame := range jobs {
				ok, err := s.prefetchFrame(gctx, frame)
				done(frame)
				if err != nil {
					return err
				}
				if ok {
					prefetched.Add(1)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		window := newLockWindow(s.manager, s.settings.LockWindow)
		defer close(jobs)
		defer window.releaseAll()

		sampler := logging.NewProgressSampler(10)
		var tick <-chan time.Time
		if interval := s.settings.frameInterval(); interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for frame := start; frame < end; frame++ {
			if tick != nil {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-tick:
				}
			} else if err := gctx.Err(); err != nil {
				return err
			}

			hit, err := s.show(gctx, frame, window)
			if err != nil {
				return err
			}
			result.Frames++
			if hit {
				result.Hits++
			} else {
				result.Misses++
			}

			for next := frame + 1; next <= frame+s.settings.Prefetch && next < end; next++ {
				if s.manager.Contains(next) {
					continue
				}
				pendingMu.Lock()
				_, queued := pending[next]
				if !queued {
					pending[next] = struct{}{}
				}
				pendingMu.Unlock()
				if queued {
					continue
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				case jobs <- next:
				}
			}

			percent := float64(result.Frames) * 100 / float64(count)
			if sampler.ShouldLog(percent, progressPhase) {
				s.logger.Debug("playback progress",
					logging.String(logging.FieldProgressPhase, progressPhase),
					logging.Float64(logging.FieldProgressPercent, percent),
					logging.Playhead(frame),
					logging.Int("frames_hit", result.Hits),
					logging.Bytes("cache_bytes", s.manager.Size()),
				)
			}
		}
		return nil
	})

	err := g.Wait()
	result.Prefetched = prefetched.Load()
	result.Duration = time.Since(began)
	result.Stats = s.manager.Stats()

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Info("playback cancelled",
				logging.Int("frames_shown", result.Frames),
				logging.Duration("duration", result.Duration),
			)
		} else {
			logging.ErrorWithContext(s.logger, "playback failed", "playback_failed",
				logging.Error(err),
				logging.Int("frames_shown", result.Frames),
				logging.Playhead(result.Stats.CurrentFrame),
				logging.String(logging.FieldErrorHint, "check the decoder and retry"),
			)
		}
		return result, err
	}

	s.logger.Info("playback finished",
		logging.Int("frames_shown", result.Frames),
		logging.Int("frames_hit", result.Hits),
		logging.Int("frames_missed", result.Misses),
		logging.Int64("frames_prefetched", result.Prefetched),
		logging.Bytes("cache_bytes", result.Stats.TrackedBytes),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

// show moves the playhead to frame, reads it from the cache or decodes it, and
// slides the lock window forward.
func (s *Simulator) show(ctx context.Context, frame int, window *lockWindow) (bool, error) {
	s.manager.SetCurrentFrame(frame)

	hit := false
	if bmp, ok := s.manager.TryGet(frame); ok {
		bmp.Release()
		hit = true
	} else {
		bmp, err := s.decoder.Decode(ctx, frame)
		if err != nil {
			return false, fmt.Errorf("decode frame %d: %w", frame, err)
		}
		s.manager.Add(frame, bmp)
	}

	window.advance(frame)
	return hit, nil
}

// lockWindow holds the frames a run locked itself. Frames that were already
// locked when the playhead reached them belong to someone else and are never
// unlocked here.
type lockWindow struct {
	manager *framecache.Manager
	size    int
	owned   map[int]struct{}
}

func newLockWindow(manager *framecache.Manager, size int) *lockWindow {
	return &lockWindow{manager: manager, size: size, owned: make(map[int]struct{})}
}

// advance locks frame and releases the frame that fell out of the window.
func (w *lockWindow) advance(frame int) {
	if w.size <= 0 {
		return
	}
	if w.manager.LockFrame(frame) {
		w.owned[frame] = struct{}{}
	}
	w.release(frame - w.size)
}

func (w *lockWindow) release(frame int) {
	if _, ok := w.owned[frame]; !ok {
		return
	}
	delete(w.owned, frame)
	w.manager.Unlock(frame, frame+1)
}

func (w *lockWindow) releaseAll() {
	for frame := range w.owned {
		w.release(frame)
	}
}

// prefetchFrame decodes frame into the cache unless it is already there.
func (s *Simulator) prefetchFrame(ctx context.Context, frame int) (bool, error) {
	if s.manager.Contains(frame) {
		return false, nil
	}
	bmp, err := s.decoder.Decode(ctx, frame)
	if err != nil {
		return false, fmt.Errorf("prefetch frame %d: %w", frame, err)
	}
	s.manager.Add(frame, bmp)
	s.logger.Debug("frame prefetched", logging.Frame(frame))
	return true, nil
}
