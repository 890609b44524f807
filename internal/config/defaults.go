package config

const (
	defaultLogDir             = "~/.local/share/framecache/logs"
	defaultJournalPath        = "~/.local/share/framecache/journal.db"
	defaultLogFormat          = "auto"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 14
	defaultMaxSizeMiB         = 0
	defaultAutoMemoryFraction = 0.25
	defaultFallbackMaxMiB     = 1024
	defaultFrameWidth         = 1920
	defaultFrameHeight        = 1080
	defaultScale              = 1.0
	defaultColorType          = "bgra"
	defaultDeletionStrategy   = "far"
	defaultMaxPasses          = 5
	defaultPlaybackFPS        = 30.0
	defaultLockWindow         = 8
	defaultPrefetch           = 60
	defaultDecodeWorkers      = 2

	// EnvMaxSizeMiB overrides frame_cache.max_size_mib when set.
	EnvMaxSizeMiB = "FRAMECACHE_MAX_SIZE_MIB"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		FrameCache: FrameCache{
			MaxSizeMiB:         defaultMaxSizeMiB,
			AutoMemoryFraction: defaultAutoMemoryFraction,
			Width:              defaultFrameWidth,
			Height:             defaultFrameHeight,
			Scale:              defaultScale,
			ColorType:          defaultColorType,
			DeletionStrategy:   defaultDeletionStrategy,
			MaxPasses:          defaultMaxPasses,
		},
		Playback: Playback{
			FPS:           defaultPlaybackFPS,
			LockWindow:    defaultLockWindow,
			Prefetch:      defaultPrefetch,
			DecodeWorkers: defaultDecodeWorkers,
		},
		Paths: Paths{
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
