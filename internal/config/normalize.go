package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFrameCache(); err != nil {
		return err
	}
	c.normalizePlayback()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	// An empty journal path disables the eviction journal.
	if c.Paths.JournalPath, err = expandPath(strings.TrimSpace(c.Paths.JournalPath)); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFrameCache() error {
	if value, ok := os.LookupEnv(EnvMaxSizeMiB); ok && strings.TrimSpace(value) != "" {
		mib, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxSizeMiB, err)
		}
		c.FrameCache.MaxSizeMiB = mib
	}
	c.FrameCache.ColorType = strings.ToLower(strings.TrimSpace(c.FrameCache.ColorType))
	if c.FrameCache.ColorType == "" {
		c.FrameCache.ColorType = defaultColorType
	}
	strategy := strings.ToLower(strings.TrimSpace(c.FrameCache.DeletionStrategy))
	strategy = strings.NewReplacer("-", "_", " ", "_").Replace(strategy)
	if strategy == "" {
		strategy = defaultDeletionStrategy
	}
	c.FrameCache.DeletionStrategy = strategy
	if c.FrameCache.Scale == 0 {
		c.FrameCache.Scale = defaultScale
	}
	if c.FrameCache.MaxPasses == 0 {
		c.FrameCache.MaxPasses = defaultMaxPasses
	}
	return nil
}

func (c *Config) normalizePlayback() {
	if c.Playback.FPS == 0 {
		c.Playback.FPS = defaultPlaybackFPS
	}
	if c.Playback.DecodeWorkers == 0 {
		c.Playback.DecodeWorkers = defaultDecodeWorkers
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "auto":
		c.Logging.Format = "auto"
	case "text", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
	if len(c.Logging.ComponentLevels) > 0 {
		normalized := make(map[string]string, len(c.Logging.ComponentLevels))
		for component, value := range c.Logging.ComponentLevels {
			key := strings.ToLower(strings.TrimSpace(component))
			if key == "" {
				continue
			}
			normalized[key] = strings.ToLower(strings.TrimSpace(value))
		}
		c.Logging.ComponentLevels = normalized
	}
}
