package framecache

import (
	"time"

	"framecache/internal/media"
	"framecache/internal/refcount"
)

// Bitmap is the reference-counted frame type the cache stores.
type Bitmap = refcount.Ref[*media.Bitmap]

// entry is one cache slot. byteCount comes from the manager's options, not the
// live bitmap, so every entry of a manager is accounted at the same size.
type entry struct {
	bitmap     *Bitmap
	byteCount  int64
	locked     bool
	lastAccess time.Time
}

func newEntry(bitmap *Bitmap, byteCount int64, now time.Time) *entry {
	return &entry{
		bitmap:     bitmap,
		byteCount:  byteCount,
		lastAccess: now,
	}
}

// setBitmap swaps in a new bitmap and returns the byte delta. A locked entry
// keeps its bitmap and the incoming reference is released.
func (e *entry) setBitmap(bitmap *Bitmap, byteCount int64, now time.Time) int64 {
	if e.locked {
		bitmap.Release()
		return 0
	}
	old := e.bitmap
	delta := byteCount - e.byteCount
	e.bitmap = bitmap
	e.byteCount = byteCount
	e.lastAccess = now
	if old != nil {
		old.Release()
	}
	return delta
}

// getBitmap hands out a new reference; the entry keeps its own.
func (e *entry) getBitmap(now time.Time) *Bitmap {
	e.lastAccess = now
	return e.bitmap.AddRef()
}

func (e *entry) dispose() {
	if e.bitmap == nil {
		return
	}
	e.bitmap.Release()
	e.bitmap = nil
}
