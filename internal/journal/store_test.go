package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"framecache/internal/framecache"
	"framecache/internal/journal"
	"framecache/internal/logging"
	"framecache/internal/media"
	"framecache/internal/testsupport"
)

func mustOpen(t *testing.T) *journal.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReport(session string, started time.Time, removed int, satisfied bool) framecache.EvictionReport {
	report := framecache.EvictionReport{
		SessionID:    session,
		Strategy:     framecache.StrategyFar,
		StartedAt:    started,
		Duration:     1500 * time.Microsecond,
		Passes:       1,
		Removed:      removed,
		BytesBefore:  int64(removed+2) * 1024,
		BytesAfter:   2048,
		MaxBytes:     4096,
		CurrentFrame: 90,
	}
	if !satisfied {
		report.BytesAfter = 8192
	}
	return report
}

func TestOpenDisabledWithoutPath(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutJournal())
	if _, err := journal.Open(cfg); !errors.Is(err, journal.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 2; i++ {
		store, err := journal.OpenPath(context.Background(), path)
		if err != nil {
			t.Fatalf("OpenPath attempt %d: %v", i, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, session := range []string{"a", "b", "a"} {
		if _, err := store.Record(ctx, sampleReport(session, base.Add(time.Duration(i)*time.Second), i+1, true)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := store.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	newest := all[0]
	if newest.SessionID != "a" || newest.Removed != 3 {
		t.Fatalf("unexpected newest entry %+v", newest)
	}
	if !newest.StartedAt.Equal(base.Add(2*time.Second)) {
		t.Fatalf("StartedAt = %v", newest.StartedAt)
	}
	if newest.Strategy != "far" || newest.Duration != 1500*time.Microsecond || !newest.Satisfied {
		t.Fatalf("unexpected decoded fields %+v", newest)
	}
	if newest.FreedBytes() != 3*1024 {
		t.Fatalf("FreedBytes = %d", newest.FreedBytes())
	}

	onlyA, err := store.Recent(ctx, "a", 10)
	if err != nil {
		t.Fatalf("Recent(a): %v", err)
	}
	if len(onlyA) != 2 {
		t.Fatalf("expected 2 entries for session a, got %d", len(onlyA))
	}

	limited, err := store.Recent(ctx, "", 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("Recent with limit = %v, %v", limited, err)
	}
}

func TestSessionsSummaries(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mustRecord(t, store, sampleReport("a", base, 2, true))
	mustRecord(t, store, sampleReport("a", base.Add(time.Minute), 4, false))
	mustRecord(t, store, sampleReport("b", base.Add(2*time.Minute), 1, true))

	summaries, err := store.Sessions(ctx, 10)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(summaries) != 2 || summaries[0].SessionID != "b" {
		t.Fatalf("unexpected summaries %+v", summaries)
	}
	a := summaries[1]
	if a.Runs != 2 || a.Removed != 6 || a.Unsatisfied != 1 {
		t.Fatalf("unexpected summary for a: %+v", a)
	}
	if !a.FirstRun.Equal(base) || !a.LastRun.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected run window %v - %v", a.FirstRun, a.LastRun)
	}
}

func TestPruneBefore(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mustRecord(t, store, sampleReport("a", base, 1, true))
	mustRecord(t, store, sampleReport("a", base.Add(time.Hour), 1, true))

	removed, err := store.PruneBefore(ctx, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	remaining, _ := store.Recent(ctx, "", 10)
	if len(remaining) != 1 {
		t.Fatalf("expected one remaining entry, got %d", len(remaining))
	}
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	store := mustOpen(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := store.Record(context.Background(), sampleReport("a", time.Now(), 1, true)); !errors.Is(err, journal.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestHookRecordsManagerEvictions(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	size := media.PixelSize{Width: 8, Height: 8}
	opts := framecache.DefaultOptions()
	opts.DeletionStrategy = framecache.StrategyOld
	perFrame := opts.ByteSize(size)

	var limit atomic.Int64
	limit.Store(1 << 30)
	m := framecache.NewManager(size, opts, framecache.BudgetFunc(limit.Load),
		framecache.WithSessionID("hooked"),
		framecache.WithEvictionHook(store.Hook(ctx, logging.NewNop())),
	)
	defer m.Dispose()

	factory := testsupport.NewBitmapFactory(size, media.FormatBGRA8888)
	for i := 0; i < 4; i++ {
		m.Add(i, factory.New(byte(i)))
	}
	limit.Store(2 * perFrame)
	report := m.Prune()
	if report.Removed != 3 {
		t.Fatalf("Removed = %d, want 3", report.Removed)
	}

	entries, err := store.Recent(ctx, "hooked", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one journal row, got %d", len(entries))
	}
	if got := entries[0]; got.Removed != 3 || got.Strategy != "old" || got.MaxBytes != 2*perFrame || !got.Satisfied {
		t.Fatalf("unexpected journal row %+v", got)
	}
}

func mustRecord(t *testing.T, store *journal.Store, report framecache.EvictionReport) {
	t.Helper()
	if _, err := store.Record(context.Background(), report); err != nil {
		t.Fatalf("Record: %v", err)
	}
}
