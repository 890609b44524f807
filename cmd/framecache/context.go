package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"framecache/internal/config"
	"framecache/internal/journal"
	"framecache/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
	runID      string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger once, tags it with a run ID, and
// prunes log files and journal entries past the retention window.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logging: %w", err)
			return
		}
		c.runID = uuid.NewString()
		logger = logging.WithRunID(logger, c.runID)
		c.applyRetention(cfg, logger)
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) applyRetention(cfg *config.Config, logger *slog.Logger) {
	targets := []logging.RetentionTarget{{
		Name:    "logs",
		Dir:     cfg.Paths.LogDir,
		Pattern: logging.LogFilePattern,
		Exclude: []string{logging.LogFilePath(cfg.Paths.LogDir, time.Now())},
	}}
	if _, enabled := logging.RetentionCutoff(time.Now(), cfg.Logging.RetentionDays); enabled {
		store, err := c.openJournal()
		if err != nil {
			logging.WarnWithContext(logger, "journal retention skipped", "journal_retention_skipped",
				logging.Error(err),
				logging.String(logging.FieldImpact, "old eviction runs stay in the journal"),
			)
		}
		if store != nil {
			defer store.Close()
			targets = append(targets, logging.RetentionTarget{
				Name: "journal",
				Prune: func(cutoff time.Time) (int64, error) {
					return store.PruneBefore(context.Background(), cutoff)
				},
			})
		}
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, targets...)
}

// componentLogger applies logging.component_levels for component. The
// packages tag their own component attribute.
func (c *commandContext) componentLogger(component string) *slog.Logger {
	cfg, _ := c.ensureConfig()
	logger, _ := c.ensureLogger()
	if cfg == nil {
		return logger
	}
	return logging.WithComponentLevel(logger, cfg.Logging.ComponentLevels, component)
}

// openJournal returns nil without error when the journal is disabled.
func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := journal.Open(cfg)
	if errors.Is(err, journal.ErrDisabled) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return store, nil
}

func (c *commandContext) requireJournal() (*journal.Store, error) {
	store, err := c.openJournal()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("eviction journal disabled; set paths.journal_path in the config file")
	}
	return store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
