package framecache

import (
	"cmp"
	"slices"
	"time"
)

// Candidate is the per-frame information eviction strategies look at.
type Candidate struct {
	Frame      int
	Locked     bool
	LastAccess time.Time
}

// SelectCandidates returns up to targetCount frames to evict, in eviction order.
// Locked frames are never selected. BackwardBlock selects like Far; its block
// phase runs separately (see backwardBlockRanges).
func SelectCandidates(strategy DeletionStrategy, entries []Candidate, currentFrame, targetCount int) []int {
	if targetCount <= 0 || len(entries) == 0 {
		return nil
	}

	pool := make([]Candidate, 0, len(entries))
	for _, c := range entries {
		if c.Locked {
			continue
		}
		if strategy != StrategyOld && c.Frame >= currentFrame {
			continue
		}
		pool = append(pool, c)
	}

	switch strategy {
	case StrategyOld:
		slices.SortStableFunc(pool, func(a, b Candidate) int {
			return a.LastAccess.Compare(b.LastAccess)
		})
	default:
		// Farthest behind the playhead first.
		slices.SortStableFunc(pool, func(a, b Candidate) int {
			return cmp.Compare(currentFrame-b.Frame, currentFrame-a.Frame)
		})
	}

	if len(pool) > targetCount {
		pool = pool[:targetCount]
	}
	frames := make([]int, len(pool))
	for i, c := range pool {
		frames[i] = c.Frame
	}
	return frames
}

// backwardBlockRanges orders the unlocked blocks behind currentFrame for the
// BackwardBlock phase, largest first. blocks must already be clipped to frames
// before currentFrame. The run that reaches the playhead keeps its last frame so
// playback arriving there does not stall.
func backwardBlockRanges(blocks []Block, currentFrame int) []Range {
	candidates := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Locked || b.Start >= currentFrame {
			continue
		}
		candidates = append(candidates, b)
	}
	slices.SortStableFunc(candidates, func(a, b Block) int {
		return cmp.Compare(b.Length, a.Length)
	})

	ranges := make([]Range, 0, len(candidates))
	for _, b := range candidates {
		end := min(b.End(), currentFrame)
		if end == currentFrame {
			end--
		}
		if end <= b.Start {
			continue
		}
		ranges = append(ranges, Range{Start: b.Start, End: end})
	}
	return ranges
}
