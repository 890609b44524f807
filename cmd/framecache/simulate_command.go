package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"framecache/internal/budget"
	"framecache/internal/config"
	"framecache/internal/framecache"
	"framecache/internal/logging"
	"framecache/internal/playback"
)

type simulateOptions struct {
	start       int
	frames      int
	realtime    bool
	strategy    string
	maxMiB      int
	decodeDelay time.Duration
	watch       bool
	asJSON      bool
}

type simulateSummary struct {
	SessionID  string           `json:"session_id"`
	RunID      string           `json:"run_id"`
	Start      int              `json:"start"`
	Frames     int              `json:"frames"`
	Hits       int              `json:"hits"`
	Misses     int              `json:"misses"`
	Prefetched int64            `json:"prefetched"`
	HitRatio   float64          `json:"hit_ratio"`
	Duration   time.Duration    `json:"duration"`
	Stats      framecache.Stats `json:"stats"`
	Journaled  bool             `json:"journaled"`
}

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a frame range through the cache and report what it holds",
		Long: "simulate builds a frame cache from the configuration, plays frames through it with\n" +
			"prefetching and a lock window, and prints the resulting blocks and statistics.\n" +
			"Eviction runs are recorded in the journal when paths.journal_path is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, ctx, opts)
		},
	}

	cmd.Flags().IntVar(&opts.start, "start", 0, "First frame to play")
	cmd.Flags().IntVarP(&opts.frames, "frames", "n", 300, "Number of frames to play")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Pace the playhead at playback.fps")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Override frame_cache.deletion_strategy (old, far, backward_block)")
	cmd.Flags().IntVar(&opts.maxMiB, "max-mib", 0, "Override the cache budget in MiB")
	cmd.Flags().DurationVar(&opts.decodeDelay, "decode-delay", 0, "Simulated decode latency per frame")
	cmd.Flags().BoolVar(&opts.watch, "watch", true, "Apply config file edits to the running cache")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Output as JSON")
	return cmd
}

func runSimulate(cmd *cobra.Command, ctx *commandContext, opts simulateOptions) error {
	if opts.frames <= 0 {
		return fmt.Errorf("--frames must be positive (got %d)", opts.frames)
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	cacheOpts, err := framecache.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	var strategyOverride *framecache.DeletionStrategy
	if strings.TrimSpace(opts.strategy) != "" {
		strategy, err := framecache.ParseDeletionStrategy(opts.strategy)
		if err != nil {
			return fmt.Errorf("--strategy: %w", err)
		}
		strategyOverride = &strategy
		cacheOpts.DeletionStrategy = strategy
	}

	live := budget.FromConfig(cfg)
	if opts.maxMiB > 0 {
		live.Set(int64(opts.maxMiB) << 20)
	}

	runCtx := cmd.Context()
	sessionID := uuid.NewString()
	runCtx = logging.ContextWithRunID(runCtx, ctx.runID)
	runCtx = logging.ContextWithSessionID(runCtx, sessionID)

	store, err := ctx.openJournal()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	managerOpts := []framecache.ManagerOption{
		framecache.WithLogger(ctx.componentLogger("framecache")),
		framecache.WithSessionID(sessionID),
	}
	if store != nil {
		managerOpts = append(managerOpts, framecache.WithEvictionHook(store.Hook(context.WithoutCancel(runCtx), logger)))
	}
	manager := framecache.NewManager(framecache.FrameSizeFromConfig(cfg), cacheOpts, live, managerOpts...)
	defer manager.Dispose()

	// A fixed --max-mib would be overwritten by the next reload.
	if opts.watch && ctx.configExists && opts.maxMiB == 0 {
		watcher := budget.NewWatcher(ctx.configPath, live, budget.WithWatcherLogger(ctx.componentLogger("budget")))
		watcher.OnReload(func(next *config.Config) {
			nextOpts, err := framecache.OptionsFromConfig(next)
			if err != nil {
				logging.WarnWithContext(logger, "reloaded cache options rejected", "options_reload_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "frame cache keeps its previous options"),
				)
				return
			}
			if strategyOverride != nil {
				nextOpts.DeletionStrategy = *strategyOverride
			}
			manager.SetOptions(nextOpts)
			manager.Prune()
		})
		if err := watcher.Start(runCtx); err != nil {
			logging.WarnWithContext(logger, "config watcher unavailable", "config_watch_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "config edits apply on the next run"),
			)
		} else {
			defer watcher.Stop()
		}
	}

	settings := playback.SettingsFromConfig(cfg)
	settings.Realtime = opts.realtime
	decoder := playback.SyntheticDecoderFor(manager, opts.decodeDelay)
	sim := playback.New(manager, decoder, settings, playback.WithLogger(ctx.componentLogger("playback")))

	result, err := sim.Run(runCtx, opts.start, opts.frames)
	if err != nil {
		return err
	}

	summary := simulateSummary{
		SessionID:  sessionID,
		RunID:      ctx.runID,
		Start:      result.Start,
		Frames:     result.Frames,
		Hits:       result.Hits,
		Misses:     result.Misses,
		Prefetched: result.Prefetched,
		HitRatio:   result.HitRatio(),
		Duration:   result.Duration,
		Stats:      result.Stats,
		Journaled:  store != nil,
	}
	return printOrEncode(cmd, opts.asJSON, summary, printSimulateSummary)
}

func printSimulateSummary(cmd *cobra.Command, s simulateSummary) {
	out := cmd.OutOrStdout()
	stats := s.Stats

	fmt.Fprintln(out, renderKeyValues([][2]string{
		{"Session", shortID(s.SessionID)},
		{"Frames shown", formatCount(s.Frames)},
		{"Hits", formatCount(s.Hits)},
		{"Misses", formatCount(s.Misses)},
		{"Hit ratio", formatPercent(s.HitRatio)},
		{"Prefetched", formatCount(s.Prefetched)},
		{"Duration", formatDuration(s.Duration)},
		{"Strategy", strategyLabel(stats.Strategy.String())},
		{"Cached frames", formatCount(stats.Entries)},
		{"Locked frames", formatCount(stats.LockedEntries)},
		{"Tracked", formatBytes(stats.TrackedBytes)},
		{"Budget", formatBytes(stats.MaxBytes)},
		{"Frame size", formatBytes(stats.FrameBytes)},
		{"Playhead", formatCount(stats.CurrentFrame)},
		{"Journaled", yesNo(s.Journaled)},
	}))

	if len(stats.Blocks) == 0 {
		fmt.Fprintln(out, "No cached blocks")
		return
	}
	rows := make([][]string, 0, len(stats.Blocks))
	for _, b := range stats.Blocks {
		rows = append(rows, []string{
			formatCount(b.Start),
			formatCount(b.End()),
			formatCount(b.Length),
			blockState(b),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Start", "End", "Frames", "State"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	))
}
