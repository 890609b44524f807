package testsupport

import (
	"sync/atomic"

	"framecache/internal/media"
	"framecache/internal/refcount"
)

// BitmapFactory builds reference-counted bitmaps and counts how many were
// disposed, so tests can prove the cache neither leaks nor double-frees.
type BitmapFactory struct {
	Size   media.PixelSize
	Format media.PixelFormat

	created  atomic.Int64
	disposed atomic.Int64
}

// NewBitmapFactory returns a factory for bitmaps of size in format.
func NewBitmapFactory(size media.PixelSize, format media.PixelFormat) *BitmapFactory {
	return &BitmapFactory{Size: size, Format: format}
}

// New allocates a bitmap filled with fill and wraps it with one reference.
func (f *BitmapFactory) New(fill byte) *refcount.Ref[*media.Bitmap] {
	bmp := media.NewBitmap(f.Size, f.Format)
	for i := range bmp.Pix {
		bmp.Pix[i] = fill
	}
	f.created.Add(1)
	return refcount.New(bmp, func(b *media.Bitmap) {
		f.disposed.Add(1)
		b.Free()
	})
}

// Created returns the number of bitmaps built so far.
func (f *BitmapFactory) Created() int64 { return f.created.Load() }

// Disposed returns the number of bitmaps whose last reference was released.
func (f *BitmapFactory) Disposed() int64 { return f.disposed.Load() }

// Live returns the number of bitmaps still referenced somewhere.
func (f *BitmapFactory) Live() int64 { return f.created.Load() - f.disposed.Load() }
