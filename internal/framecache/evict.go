package framecache

import (
	"math"

	"framecache/internal/logging"
)

// requestEviction schedules a run without blocking. Signals that arrive while a
// run is pending collapse into that run.
func (m *Manager) requestEviction() {
	select {
	case m.evictCh <- struct{}{}:
	default:
	}
}

func (m *Manager) evictLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case <-m.evictCh:
			m.autoDelete(true)
		}
	}
}

// Prune runs eviction synchronously on the caller's goroutine, exactly as the
// background worker would.
func (m *Manager) Prune() EvictionReport {
	if m == nil {
		return EvictionReport{}
	}
	return m.autoDelete(false)
}

// autoDelete runs one eviction and its hook. worker is set when called from
// evictLoop so that Dispose, invoked from the hook, does not wait on itself.
func (m *Manager) autoDelete(worker bool) EvictionReport {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return EvictionReport{SessionID: m.sessionID}
	}
	report := m.autoDeleteLocked()
	var update blockUpdate
	if report.Removed > 0 {
		update = m.snapshotBlocksLocked()
	}
	m.mu.Unlock()

	if report.Removed > 0 {
		m.pub.publish(update)
	}
	m.logReport(report, update.blocks)
	if m.evictHook != nil && report.Passes > 0 {
		if worker {
			m.inWorkerHook.Store(true)
			defer m.inWorkerHook.Store(false)
		}
		m.evictHook(report)
	}
	return report
}

// autoDeleteLocked makes up to MaxPasses passes. Options are captured once;
// the budget is re-read every pass.
func (m *Manager) autoDeleteLocked() EvictionReport {
	opts := m.options
	strategy := opts.DeletionStrategy
	perFrame := opts.ByteSize(m.frameSize)
	started := m.now()

	report := EvictionReport{
		SessionID:    m.sessionID,
		Strategy:     strategy,
		StartedAt:    started,
		BytesBefore:  m.size,
		CurrentFrame: m.currentFrame,
	}

	maxSize := m.budget.MaxBytes()
	for pass := 0; pass < opts.passes(); pass++ {
		maxSize = m.budget.MaxBytes()
		if m.size < maxSize {
			break
		}
		report.Passes++

		if strategy == StrategyBackwardBlock {
			report.Removed += m.deleteBackwardBlocksLocked(maxSize)
			strategy = StrategyFar
			if m.size < maxSize {
				break
			}
		}

		targetCount := framesToFree(m.size-maxSize, perFrame)
		for _, frame := range SelectCandidates(strategy, m.candidatesLocked(), m.currentFrame, targetCount) {
			if m.size < maxSize {
				break
			}
			if m.removeFrameLocked(frame) {
				report.Removed++
			}
		}
	}

	report.MaxBytes = maxSize
	report.BytesAfter = m.size
	report.Duration = m.now().Sub(started)
	return report
}

// framesToFree is the number of frames whose removal takes size strictly below
// the budget.
func framesToFree(excess, perFrame int64) int {
	if perFrame <= 0 {
		return 1
	}
	count := excess/perFrame + 1
	if count > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(count)
}

func (m *Manager) deleteBackwardBlocksLocked(maxSize int64) int {
	blocks := m.blocksLocked(math.MinInt, m.currentFrame)
	removed := 0
	for _, r := range backwardBlockRanges(blocks, m.currentFrame) {
		removed += m.removeRangeLocked(r.Start, r.End)
		if m.size < maxSize {
			break
		}
	}
	return removed
}

// logReport logs a run that made at least one pass. blocks is the list
// published after the run, nil when nothing was removed.
func (m *Manager) logReport(report EvictionReport, blocks []Block) {
	if report.Passes == 0 {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldStrategy, report.Strategy.String()),
		logging.Int("passes", report.Passes),
		logging.Int("frames_removed", report.Removed),
		logging.Bytes("bytes_before", report.BytesBefore),
		logging.Bytes("bytes_after", report.BytesAfter),
		logging.Bytes("max_bytes", report.MaxBytes),
		logging.Playhead(report.CurrentFrame),
		logging.Duration("duration", report.Duration),
	}
	if report.Removed > 0 {
		attrs = append(attrs, logging.Spans("blocks", spansOf(blocks)))
	}
	if report.Satisfied() {
		m.logger.Debug("frame cache eviction complete", logging.Args(attrs...)...)
		return
	}
	attrs = append(attrs,
		logging.String(logging.FieldErrorHint, "unlock ranges that are no longer displayed or raise frame_cache.max_size_mib"),
		logging.String(logging.FieldImpact, "cache stays over budget until locked frames are released"),
	)
	logging.WarnWithContext(m.logger, "frame cache still over budget after eviction", "framecache_over_budget", attrs...)
}

func spansOf(blocks []Block) []logging.FrameSpan {
	spans := make([]logging.FrameSpan, len(blocks))
	for i, b := range blocks {
		spans[i] = logging.FrameSpan{Start: b.Start, End: b.End(), Locked: b.Locked}
	}
	return spans
}
