package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget is one thing that ages out under logging.retention_days:
// files matching Pattern in Dir, or, when Prune is set, records in a store
// such as the eviction journal.
type RetentionTarget struct {
	Name    string
	Dir     string
	Pattern string
	Exclude []string
	// Prune deletes records older than cutoff and returns how many went.
	Prune func(cutoff time.Time) (int64, error)
}

// RetentionCutoff returns the oldest time a window of days keeps. ok is false
// when days disables retention.
func RetentionCutoff(now time.Time, days int) (time.Time, bool) {
	if days <= 0 {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, -days), true
}

// CleanupOldLogs removes what each target holds from before the retention
// window and returns the number of files and records removed. A retentionDays
// value of 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int64 {
	cutoff, ok := RetentionCutoff(time.Now(), retentionDays)
	if !ok {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	var removed int64
	for _, target := range targets {
		if target.Prune != nil {
			removed += pruneRecords(logger, target, cutoff)
			continue
		}
		removed += pruneFiles(logger, target, cutoff)
	}
	return removed
}

func pruneRecords(logger *slog.Logger, target RetentionTarget, cutoff time.Time) int64 {
	n, err := target.Prune(cutoff)
	if err != nil {
		WarnWithContext(logger, "retention prune failed; records remain", "retention_failed",
			String("target", target.Name),
			Error(err),
			String(FieldImpact, "old records stay until the next run"),
		)
		return 0
	}
	if n > 0 {
		logger.Info("retention pruned records",
			String("target", target.Name),
			Int64("records_removed", n),
			String(FieldEventType, "records_pruned"),
		)
	}
	return n
}

func pruneFiles(logger *slog.Logger, target RetentionTarget, cutoff time.Time) int64 {
	dir := strings.TrimSpace(target.Dir)
	if dir == "" {
		return 0
	}
	pattern := strings.TrimSpace(target.Pattern)
	if pattern == "" {
		pattern = "*"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0
	}
	excluded := make(map[string]bool, len(target.Exclude))
	for _, path := range target.Exclude {
		if abs, err := filepath.Abs(strings.TrimSpace(path)); err == nil {
			excluded[abs] = true
		}
	}

	var removed, freed int64
	for _, path := range matches {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if excluded[path] {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("log_path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and paths.log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		freed += info.Size()
	}
	if removed > 0 {
		logger.Info("log files pruned",
			String("target", target.Name),
			Int64("files_removed", removed),
			Bytes("freed_bytes", freed),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}
