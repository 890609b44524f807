package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"framecache/internal/framecache"
	"framecache/internal/logging"
)

// Entry is one persisted eviction report.
type Entry struct {
	ID           int64         `json:"id"`
	SessionID    string        `json:"session_id"`
	Strategy     string        `json:"strategy"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Passes       int           `json:"passes"`
	Removed      int           `json:"frames_removed"`
	BytesBefore  int64         `json:"bytes_before"`
	BytesAfter   int64         `json:"bytes_after"`
	MaxBytes     int64         `json:"max_bytes"`
	CurrentFrame int           `json:"current_frame"`
	Satisfied    bool          `json:"satisfied"`
}

// FreedBytes is the tracked size released by the run.
func (e Entry) FreedBytes() int64 {
	return e.BytesBefore - e.BytesAfter
}

// SessionSummary aggregates the reports of one manager session.
type SessionSummary struct {
	SessionID   string    `json:"session_id"`
	Runs        int       `json:"runs"`
	Removed     int       `json:"frames_removed"`
	FreedBytes  int64     `json:"freed_bytes"`
	Unsatisfied int       `json:"unsatisfied"`
	FirstRun    time.Time `json:"first_run"`
	LastRun     time.Time `json:"last_run"`
}

// Record appends report to the journal and returns its row ID.
func (s *Store) Record(ctx context.Context, report framecache.EvictionReport) (int64, error) {
	ctx = ensureContext(ctx)
	db, release, err := s.conn()
	if err != nil {
		return 0, err
	}
	defer release()

	var id int64
	err = retryOnBusy(ctx, func() error {
		res, execErr := db.ExecContext(ctx, `INSERT INTO eviction_reports
			(session_id, strategy, started_at, duration_us, passes, frames_removed,
			 bytes_before, bytes_after, max_bytes, current_frame, satisfied)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.SessionID,
			report.Strategy.String(),
			report.StartedAt.UTC().Format(timeLayout),
			report.Duration.Microseconds(),
			report.Passes,
			report.Removed,
			report.BytesBefore,
			report.BytesAfter,
			report.MaxBytes,
			report.CurrentFrame,
			boolToInt(report.Satisfied()),
		)
		if execErr != nil {
			return execErr
		}
		id, execErr = res.LastInsertId()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("record eviction report: %w", err)
	}
	return id, nil
}

// Recent returns up to limit reports, newest first. sessionID filters to one
// manager when non-empty.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	db, release, err := s.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, session_id, strategy, started_at, duration_us, passes, frames_removed,
		bytes_before, bytes_after, max_bytes, current_frame, satisfied
		FROM eviction_reports`
	args := []any{}
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query eviction reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			startedAt  string
			durationUS int64
			satisfied  int
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Strategy, &startedAt, &durationUS, &e.Passes, &e.Removed,
			&e.BytesBefore, &e.BytesAfter, &e.MaxBytes, &e.CurrentFrame, &satisfied); err != nil {
			return nil, fmt.Errorf("scan eviction report: %w", err)
		}
		e.StartedAt = parseTime(startedAt)
		e.Duration = time.Duration(durationUS) * time.Microsecond
		e.Satisfied = satisfied != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eviction reports: %w", err)
	}
	return entries, nil
}

// Sessions summarizes reports per session, most recent session first.
func (s *Store) Sessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	ctx = ensureContext(ctx)
	db, release, err := s.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT session_id, COUNT(1), SUM(frames_removed),
		SUM(bytes_before - bytes_after), SUM(CASE WHEN satisfied = 0 THEN 1 ELSE 0 END),
		MIN(started_at), MAX(started_at)
		FROM eviction_reports
		GROUP BY session_id
		ORDER BY MAX(id) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var (
			sum         SessionSummary
			first, last string
		)
		if err := rows.Scan(&sum.SessionID, &sum.Runs, &sum.Removed, &sum.FreedBytes, &sum.Unsatisfied, &first, &last); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		sum.FirstRun = parseTime(first)
		sum.LastRun = parseTime(last)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return summaries, nil
}

// PruneBefore deletes reports that started before cutoff and returns how many
// rows were removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	db, release, err := s.conn()
	if err != nil {
		return 0, err
	}
	defer release()

	var removed int64
	err = retryOnBusy(ctx, func() error {
		res, execErr := db.ExecContext(ctx, "DELETE FROM eviction_reports WHERE started_at < ?",
			cutoff.UTC().Format(timeLayout))
		if execErr != nil {
			return execErr
		}
		removed, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune eviction reports: %w", err)
	}
	return removed, nil
}

// Hook returns an eviction hook that records every report. Failures are logged
// and never reach the manager.
func (s *Store) Hook(ctx context.Context, logger *slog.Logger) func(framecache.EvictionReport) {
	logger = logging.NewComponentLogger(logger, "journal")
	return func(report framecache.EvictionReport) {
		if _, err := s.Record(ctx, report); err != nil {
			logging.WarnWithContext(logger, "eviction report not journaled", "journal_write_failed",
				logging.Error(err),
				logging.String(logging.FieldSessionID, report.SessionID),
				logging.Int("frames_removed", report.Removed),
				logging.Bytes("bytes_after", report.BytesAfter),
				logging.String("journal_path", s.Path()),
				logging.String(logging.FieldErrorHint, "check paths.journal_path permissions and free disk space"),
				logging.String(logging.FieldImpact, "framecache history will miss this run"),
			)
		}
	}
}

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
