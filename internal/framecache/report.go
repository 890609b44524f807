package framecache

import "time"

// EvictionReport summarizes one eviction run.
type EvictionReport struct {
	SessionID    string
	Strategy     DeletionStrategy
	StartedAt    time.Time
	Duration     time.Duration
	Passes       int
	Removed      int
	BytesBefore  int64
	BytesAfter   int64
	MaxBytes     int64
	CurrentFrame int
}

// FreedBytes is the tracked size released by the run.
func (r EvictionReport) FreedBytes() int64 {
	return r.BytesBefore - r.BytesAfter
}

// Satisfied reports whether the run brought the cache under budget.
func (r EvictionReport) Satisfied() bool {
	return r.BytesAfter < r.MaxBytes
}

// Stats is a point-in-time view of a manager.
type Stats struct {
	SessionID     string           `json:"session_id"`
	Entries       int              `json:"entries"`
	LockedEntries int              `json:"locked_entries"`
	TrackedBytes  int64            `json:"tracked_bytes"`
	TotalBytes    int64            `json:"total_bytes"`
	MaxBytes      int64            `json:"max_bytes"`
	FrameBytes    int64            `json:"frame_bytes"`
	CurrentFrame  int              `json:"current_frame"`
	Strategy      DeletionStrategy `json:"strategy"`
	Blocks        []Block          `json:"blocks"`
}
