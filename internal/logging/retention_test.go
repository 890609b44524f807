package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "framecache-20200101.log")
	recent := filepath.Join(dir, "framecache-20990101.log")
	current := filepath.Join(dir, "framecache-20200102.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, recent, current, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -30)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := CleanupOldLogs(NewNop(), 7, RetentionTarget{Name: "logs", Dir: dir, Pattern: LogFilePattern, Exclude: []string{current}})
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("expected stale log to be removed")
	}
	for _, path := range []string{recent, current, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to survive: %v", filepath.Base(path), err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framecache-20200101.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().AddDate(-1, 0, 0)
	_ = os.Chtimes(path, stale, stale)

	pruned := false
	CleanupOldLogs(nil, 0,
		RetentionTarget{Dir: dir, Pattern: LogFilePattern},
		RetentionTarget{Name: "journal", Prune: func(time.Time) (int64, error) {
			pruned = true
			return 0, nil
		}},
	)
	if _, err := os.Stat(path); err != nil {
		t.Fatal("retention of zero days must not prune")
	}
	if pruned {
		t.Fatal("retention of zero days must not prune records")
	}
}

func TestCleanupOldLogsPrunesRecordStores(t *testing.T) {
	var got time.Time
	journal := RetentionTarget{Name: "journal", Prune: func(cutoff time.Time) (int64, error) {
		got = cutoff
		return 3, nil
	}}
	broken := RetentionTarget{Name: "broken", Prune: func(time.Time) (int64, error) {
		return 5, errors.New("database is locked")
	}}

	before := time.Now()
	removed := CleanupOldLogs(NewNop(), 2, journal, broken)
	if removed != 3 {
		t.Fatalf("removed = %d, want 3 from the journal only", removed)
	}
	want, _ := RetentionCutoff(before, 2)
	if got.Before(want) || got.Sub(want) > time.Minute {
		t.Fatalf("cutoff = %v, want about %v", got, want)
	}
}

func TestRetentionCutoff(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	cutoff, ok := RetentionCutoff(now, 14)
	if !ok || !cutoff.Equal(time.Date(2024, 2, 25, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("RetentionCutoff = %v, %v", cutoff, ok)
	}
	if _, ok := RetentionCutoff(now, 0); ok {
		t.Fatal("zero days must disable retention")
	}
}
