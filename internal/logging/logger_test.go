package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"framecache/internal/config"
	"framecache/internal/logging"
)

func TestNewFromConfigWritesDailyJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("cache ready", logging.Int64("max_bytes", 1<<20))

	path := logging.LogFilePath(cfg.Paths.LogDir, time.Now())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, data)
	}
	if record["msg"] != "cache ready" || record["level"] != "info" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
	if matched, _ := filepath.Match(logging.LogFilePattern, filepath.Base(path)); !matched {
		t.Fatalf("log file %q does not match %q", path, logging.LogFilePattern)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleOmitsSourceForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content := readFile(t, logPath)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleIncludesSourceForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")

	if content := readFile(t, logPath); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleRendersCacheFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "framecache").With(
		logging.String(logging.FieldSessionID, "0b7f1c2e-aaaa-bbbb-cccc-000000000000"),
	)
	logger.Info("frame cache eviction complete",
		logging.String(logging.FieldStrategy, "far"),
		logging.Int("frames_removed", 12),
		logging.Int64("bytes_before", 3<<20),
		logging.Duration("duration", 1500*time.Microsecond),
	)

	content := readFile(t, logPath)
	for _, want := range []string{
		"INFO [framecache] session 0b7f1c2e – frame cache eviction complete",
		"- Strategy: far",
		"- Removed: 12",
		"- Before: 3.0 MiB",
		"- Duration: 1.5ms",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in console output:\n%s", want, content)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "over budget", "framecache_over_budget",
		logging.String(logging.FieldImpact, "cache stays large"),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "framecache_over_budget" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
	if hint, _ := record[logging.FieldErrorHint].(string); !strings.Contains(hint, "debug") {
		t.Fatalf("error_hint = %v", record[logging.FieldErrorHint])
	}
	if record[logging.FieldImpact] != "cache stays large" {
		t.Fatalf("impact = %v", record[logging.FieldImpact])
	}

	logging.WarnWithContext(nil, "ignored", "noop")
}

func TestForComponentAppliesLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	quiet := logging.ForComponent(base, map[string]string{"framecache": "warn"}, "framecache")
	quiet.Info("hidden")
	quiet.Warn("shown")

	loud := logging.ForComponent(base, nil, "playback")
	loud.Debug("also shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("override did not suppress info: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, `"component":"framecache"`) {
		t.Fatalf("expected warn record with component: %s", out)
	}
	if !strings.Contains(out, "also shown") {
		t.Fatalf("component without override lost debug output: %s", out)
	}
}

func TestWithContextAddsRunAndSession(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := logging.ContextWithRunID(context.Background(), "run-1")
	ctx = logging.ContextWithSessionID(ctx, "session-1")
	logging.WithContext(ctx, base).Info("tick")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-1"`) || !strings.Contains(out, `"session_id":"session-1"`) {
		t.Fatalf("expected context fields, got %s", out)
	}
	if logging.WithContext(context.Background(), base) != base {
		t.Fatal("expected the same logger when the context carries nothing")
	}
}

func TestWithRunIDTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.WithRunID(slog.New(slog.NewJSONHandler(&buf, nil)), "abc")
	logger.With(logging.String("k", "v")).Info("first")

	if !strings.Contains(buf.String(), `"run_id":"abc"`) {
		t.Fatalf("expected run_id, got %s", buf.String())
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled")
	}
	logging.NewComponentLogger(nil, "x").Info("discarded")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestWithComponentLevelLeavesComponentToCaller(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := logging.WithComponentLevel(base, map[string]string{"playback": "error"}, "playback")
	logging.NewComponentLogger(logger, "playback").Warn("dropped")
	if buf.Len() != 0 {
		t.Fatalf("override did not apply: %s", buf.String())
	}

	if logging.WithComponentLevel(base, nil, "playback") != base {
		t.Fatal("expected the base logger when no override is configured")
	}
	if logging.WithComponentLevel(nil, map[string]string{"playback": "error"}, "playback") != nil {
		t.Fatal("expected nil for a nil logger")
	}
}
