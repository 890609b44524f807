// Package framecache keeps decoded video frames in memory, keyed by frame index,
// under a byte budget.
//
// The cache owns one reference to every bitmap it holds. Callers hand a fresh
// reference to Add and receive their own reference from TryGet, which they must
// release. Frames inside a locked range are excluded from the tracked size and
// are never evicted; the editor locks the visible scrub range and any range being
// exported.
//
// # Eviction
//
// When the tracked size reaches the budget, Add signals a dedicated eviction
// goroutine and returns immediately. An eviction run holds the manager mutex for
// its whole duration and makes a bounded number of passes. The deletion strategy
// decides which unlocked frames go first:
//
//   - Old: least recently accessed frames.
//   - Far: frames behind the playhead, farthest first.
//   - BackwardBlock: the largest contiguous runs behind the playhead, then Far.
//
// # Blocks
//
// Blocks are the contiguous runs of cached frames with a uniform lock state. The
// timeline draws them and the playback scheduler uses them to decide what to
// prefetch. They are recomputed after bulk removals and published to subscribers.
package framecache
