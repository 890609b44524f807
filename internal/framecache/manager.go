package framecache

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/google/uuid"

	"framecache/internal/logging"
	"framecache/internal/media"
)

// Manager is the frame cache for one track or scene. All methods are safe for
// concurrent use. A nil *Manager behaves as a disabled cache.
type Manager struct {
	mu           sync.Mutex
	entries      *treemap.Map // int -> *entry, ascending frame order
	size         int64        // bytes of unlocked entries
	frameSize    media.PixelSize
	options      Options
	currentFrame int
	budget       BudgetProvider
	disposed     bool
	blockSeq     uint64

	logger    *slog.Logger
	sessionID string
	now       func() time.Time
	evictHook func(EvictionReport)

	pub blockPublisher

	evictCh      chan struct{}
	done         chan struct{}
	wg           sync.WaitGroup
	closeOnce    sync.Once
	inWorkerHook atomic.Bool
}

// ManagerOption customizes a Manager at construction.
type ManagerOption func(*Manager)

// WithLogger routes manager diagnostics to logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithSessionID tags logs and eviction reports. A random ID is used otherwise.
func WithSessionID(id string) ManagerOption {
	return func(m *Manager) {
		if id != "" {
			m.sessionID = id
		}
	}
}

// WithEvictionHook registers fn to receive a report after every eviction run
// that made at least one pass. fn runs outside the manager lock, on the eviction
// goroutine or on the goroutine that called Prune. It may call any Manager
// method, Dispose included.
func WithEvictionHook(fn func(EvictionReport)) ManagerOption {
	return func(m *Manager) { m.evictHook = fn }
}

// WithClock overrides the time source used for access timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager builds a cache for frames of frameSize and starts its eviction
// goroutine. Call Dispose when the track closes. A nil budget means unbounded,
// so eviction never removes anything.
func NewManager(frameSize media.PixelSize, opts Options, budget BudgetProvider, managerOpts ...ManagerOption) *Manager {
	if budget == nil {
		budget = StaticBudget(math.MaxInt64)
	}
	m := &Manager{
		entries:   treemap.NewWithIntComparator(),
		frameSize: frameSize,
		options:   opts,
		budget:    budget,
		sessionID: uuid.NewString(),
		now:       time.Now,
		evictCh:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range managerOpts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "framecache").With(
		logging.String(logging.FieldSessionID, m.sessionID),
	)

	m.wg.Add(1)
	go m.evictLoop()
	return m
}

// SessionID identifies this manager in logs and eviction reports.
func (m *Manager) SessionID() string {
	if m == nil {
		return ""
	}
	return m.sessionID
}

// FrameSize returns the scene frame size the manager was built for.
func (m *Manager) FrameSize() media.PixelSize {
	if m == nil {
		return media.PixelSize{}
	}
	return m.frameSize
}

// Options returns the current options.
func (m *Manager) Options() Options {
	if m == nil {
		return Options{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.options
}

// SetOptions replaces the options. A run already in progress keeps the options
// it started with.
func (m *Manager) SetOptions(opts Options) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options = opts
}

// CurrentFrame returns the playback position used by the Far and BackwardBlock strategies.
func (m *Manager) CurrentFrame() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentFrame
}

// SetCurrentFrame records the playback position. The scheduler calls it every tick.
func (m *Manager) SetCurrentFrame(frame int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentFrame = frame
}

// Size returns the bytes held by unlocked entries.
func (m *Manager) Size() int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Len returns the number of cached frames.
func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Size()
}

// Add stores bitmap for frame and takes ownership of the passed reference.
// A locked frame keeps its current bitmap and the new one is released. When
// the cache reaches its budget an eviction run is scheduled; Add never waits
// for it.
func (m *Manager) Add(frame int, bitmap *Bitmap) {
	if bitmap == nil {
		return
	}
	if m == nil {
		bitmap.Release()
		return
	}

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		bitmap.Release()
		return
	}
	now := m.now()
	byteCount := m.options.ByteSize(m.frameSize)
	if existing, ok := m.lookupLocked(frame); ok {
		m.size += existing.setBitmap(bitmap, byteCount, now)
	} else {
		m.entries.Put(frame, newEntry(bitmap, byteCount, now))
		m.size += byteCount
	}
	over := m.size >= m.budget.MaxBytes()
	m.mu.Unlock()

	if over {
		m.requestEviction()
	}
}

// TryGet returns a new reference to the bitmap at frame. The caller must
// release it.
func (m *Manager) TryGet(frame int) (*Bitmap, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookupLocked(frame)
	if !ok {
		return nil, false
	}
	return e.getBitmap(m.now()), true
}

// Contains reports whether frame is cached without touching its access time.
func (m *Manager) Contains(frame int) bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.lookupLocked(frame)
	return ok
}

// RemoveRange drops unlocked frames in [start, end) and reports whether any
// were removed.
func (m *Manager) RemoveRange(start, end int) bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeRangeLocked(start, end) > 0
}

// Lock protects frames in [start, end) from eviction and removes their bytes
// from the tracked size. Locking a locked frame changes nothing.
func (m *Manager) Lock(start, end int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eachInRangeLocked(start, end, func(_ int, e *entry) {
		if !e.locked {
			m.size -= e.byteCount
			e.locked = true
		}
	})
}

// LockFrame locks a single cached frame and reports whether this call changed
// it from unlocked to locked. Callers that must not release other owners' locks
// unlock only the frames for which LockFrame returned true.
func (m *Manager) LockFrame(frame int) bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookupLocked(frame)
	if !ok || e.locked {
		return false
	}
	m.size -= e.byteCount
	e.locked = true
	return true
}

// Unlock reverses Lock for frames in [start, end).
func (m *Manager) Unlock(start, end int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eachInRangeLocked(start, end, func(_ int, e *entry) {
		if e.locked {
			m.size += e.byteCount
			e.locked = false
		}
	})
}

// CalculateByteCount sums the byte counts in [start, end), locked or not.
func (m *Manager) CalculateByteCount(start, end int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	m.eachInRangeLocked(start, end, func(_ int, e *entry) {
		total += e.byteCount
	})
	return total
}

// RemoveAndUpdateBlocks removes every range under one lock acquisition and
// republishes blocks if anything was removed.
func (m *Manager) RemoveAndUpdateBlocks(ranges []Range) {
	if m == nil {
		return
	}
	m.mu.Lock()
	removed := 0
	for _, r := range ranges {
		removed += m.removeRangeLocked(r.Start, r.End)
	}
	var update blockUpdate
	if removed > 0 {
		update = m.snapshotBlocksLocked()
	}
	m.mu.Unlock()

	if removed > 0 {
		m.pub.publish(update)
	}
}

// UpdateBlocks recomputes and publishes blocks.
func (m *Manager) UpdateBlocks() []Block {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	update := m.snapshotBlocksLocked()
	m.mu.Unlock()
	m.pub.publish(update)
	return update.blocks
}

// Blocks returns the most recently published blocks.
func (m *Manager) Blocks() []Block {
	if m == nil {
		return nil
	}
	return m.pub.current()
}

// SubscribeBlocks registers fn to receive published block lists. The returned
// function removes the subscription. fn may call back into the Manager; a
// list published from inside fn is delivered after fn returns.
func (m *Manager) SubscribeBlocks(fn func([]Block)) (unsubscribe func()) {
	if m == nil || fn == nil {
		return func() {}
	}
	return m.pub.subscribe(fn)
}

// Stats returns a snapshot of the cache.
func (m *Manager) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := Stats{
		SessionID:    m.sessionID,
		Entries:      m.entries.Size(),
		TrackedBytes: m.size,
		MaxBytes:     m.budget.MaxBytes(),
		FrameBytes:   m.options.ByteSize(m.frameSize),
		CurrentFrame: m.currentFrame,
		Strategy:     m.options.DeletionStrategy,
	}
	frames := make([]frameState, 0, stats.Entries)
	it := m.entries.Iterator()
	for it.Next() {
		e := it.Value().(*entry)
		stats.TotalBytes += e.byteCount
		if e.locked {
			stats.LockedEntries++
		}
		frames = append(frames, frameState{frame: it.Key().(int), locked: e.locked})
	}
	stats.Blocks = aggregateBlocks(frames)
	return stats
}

// Clear releases every entry, locked or not, and publishes an empty block list.
func (m *Manager) Clear() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.clearLocked()
	update := m.snapshotBlocksLocked()
	m.mu.Unlock()
	m.pub.publish(update)
}

// Dispose stops the eviction goroutine and releases every entry. Later calls
// to Add release the bitmap they are given. When called from an eviction hook
// running on the eviction goroutine, Dispose returns without waiting for that
// goroutine to exit; it exits as soon as the hook returns.
func (m *Manager) Dispose() {
	if m == nil {
		return
	}
	m.closeOnce.Do(func() {
		close(m.done)

		m.mu.Lock()
		m.disposed = true
		m.clearLocked()
		update := m.snapshotBlocksLocked()
		m.mu.Unlock()
		m.pub.publish(update)

		if !m.inWorkerHook.Load() {
			m.wg.Wait()
		}
		m.logger.Debug("frame cache disposed")
	})
}

func (m *Manager) clearLocked() {
	it := m.entries.Iterator()
	for it.Next() {
		it.Value().(*entry).dispose()
	}
	m.entries.Clear()
	m.size = 0
}

func (m *Manager) lookupLocked(frame int) (*entry, bool) {
	value, ok := m.entries.Get(frame)
	if !ok {
		return nil, false
	}
	return value.(*entry), true
}

// eachInRangeLocked visits entries in [start, end) in ascending order. fn must
// not add or remove entries.
func (m *Manager) eachInRangeLocked(start, end int, fn func(frame int, e *entry)) {
	for next := start; next < end; {
		key, value := m.entries.Ceiling(next)
		if key == nil {
			return
		}
		frame := key.(int)
		if frame >= end {
			return
		}
		fn(frame, value.(*entry))
		next = frame + 1
	}
}

func (m *Manager) removeRangeLocked(start, end int) int {
	var frames []int
	m.eachInRangeLocked(start, end, func(frame int, e *entry) {
		if !e.locked {
			frames = append(frames, frame)
		}
	})
	for _, frame := range frames {
		m.removeFrameLocked(frame)
	}
	return len(frames)
}

// removeFrameLocked drops an unlocked entry.
func (m *Manager) removeFrameLocked(frame int) bool {
	e, ok := m.lookupLocked(frame)
	if !ok || e.locked {
		return false
	}
	m.entries.Remove(frame)
	m.size -= e.byteCount
	e.dispose()
	return true
}

func (m *Manager) blocksLocked(start, end int) []Block {
	frames := make([]frameState, 0)
	m.eachInRangeLocked(start, end, func(frame int, e *entry) {
		frames = append(frames, frameState{frame: frame, locked: e.locked})
	})
	return aggregateBlocks(frames)
}

func (m *Manager) snapshotBlocksLocked() blockUpdate {
	m.blockSeq++
	var blocks []Block
	if m.entries.Size() > 0 {
		first, _ := m.entries.Min()
		last, _ := m.entries.Max()
		blocks = m.blocksLocked(first.(int), last.(int)+1)
	}
	return blockUpdate{seq: m.blockSeq, blocks: blocks}
}

func (m *Manager) candidatesLocked() []Candidate {
	candidates := make([]Candidate, 0, m.entries.Size())
	it := m.entries.Iterator()
	for it.Next() {
		e := it.Value().(*entry)
		candidates = append(candidates, Candidate{
			Frame:      it.Key().(int),
			Locked:     e.locked,
			LastAccess: e.lastAccess,
		})
	}
	return candidates
}
