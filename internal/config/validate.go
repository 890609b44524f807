package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFrameCache(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFrameCache() error {
	fc := c.FrameCache
	if fc.MaxSizeMiB < 0 {
		return errors.New("frame_cache.max_size_mib must be zero (auto) or positive")
	}
	if fc.AutoMemoryFraction < 0 || fc.AutoMemoryFraction > 1 {
		return errors.New("frame_cache.auto_memory_fraction must be between 0 and 1")
	}
	if fc.Width <= 0 || fc.Height <= 0 {
		return fmt.Errorf("frame_cache.width and frame_cache.height must be positive (got %dx%d)", fc.Width, fc.Height)
	}
	if fc.Scale <= 0 || fc.Scale > 1 {
		return errors.New("frame_cache.scale must be in (0, 1]")
	}
	switch fc.ColorType {
	case "bgra", "rgba", "yuv", "i420":
	default:
		return fmt.Errorf("frame_cache.color_type: unsupported value %q (use bgra or yuv)", fc.ColorType)
	}
	switch fc.DeletionStrategy {
	case "old", "oldest", "lru", "far", "backward_block", "backwardblock", "block":
	default:
		return fmt.Errorf("frame_cache.deletion_strategy: unsupported value %q (use old, far, or backward_block)", fc.DeletionStrategy)
	}
	if fc.MaxPasses < 0 {
		return errors.New("frame_cache.max_passes must be positive")
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if c.Playback.FPS <= 0 {
		return errors.New("playback.fps must be positive")
	}
	if c.Playback.LockWindow < 0 {
		return errors.New("playback.lock_window must be >= 0")
	}
	if c.Playback.Prefetch < 0 {
		return errors.New("playback.prefetch must be >= 0")
	}
	if c.Playback.DecodeWorkers < 0 {
		return errors.New("playback.decode_workers must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use auto, console, or json)", c.Logging.Format)
	}
	if !validLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	for component, level := range c.Logging.ComponentLevels {
		if !validLevel(level) {
			return fmt.Errorf("logging.component_levels.%s: unsupported value %q", component, level)
		}
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func validLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}
