package framecache

import (
	"fmt"

	"framecache/internal/config"
	"framecache/internal/media"
)

// OptionsFromConfig converts the [frame_cache] section into engine options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return DefaultOptions(), nil
	}
	colorType, err := ParseColorType(cfg.FrameCache.ColorType)
	if err != nil {
		return Options{}, fmt.Errorf("frame_cache.color_type: %w", err)
	}
	strategy, err := ParseDeletionStrategy(cfg.FrameCache.DeletionStrategy)
	if err != nil {
		return Options{}, fmt.Errorf("frame_cache.deletion_strategy: %w", err)
	}
	return Options{
		Scale:            cfg.FrameCache.Scale,
		ColorType:        colorType,
		DeletionStrategy: strategy,
		MaxPasses:        cfg.FrameCache.MaxPasses,
	}, nil
}

// FrameSizeFromConfig returns the scene frame size from [frame_cache].
func FrameSizeFromConfig(cfg *config.Config) media.PixelSize {
	if cfg == nil {
		return media.PixelSize{}
	}
	return media.PixelSize{Width: cfg.FrameCache.Width, Height: cfg.FrameCache.Height}
}

// NewManagerFromConfig builds a manager from cfg. budget supplies the byte
// limit, usually a budget.Live kept current by a config watcher.
func NewManagerFromConfig(cfg *config.Config, budget BudgetProvider, managerOpts ...ManagerOption) (*Manager, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewManager(FrameSizeFromConfig(cfg), opts, budget, managerOpts...), nil
}
