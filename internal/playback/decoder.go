package playback

import (
	"context"
	"sync/atomic"
	"time"

	"framecache/internal/framecache"
	"framecache/internal/media"
	"framecache/internal/refcount"
)

// Decoder produces the bitmap for a frame. The returned reference is owned by
// the caller.
type Decoder interface {
	Decode(ctx context.Context, frame int) (*framecache.Bitmap, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, frame int) (*framecache.Bitmap, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, frame int) (*framecache.Bitmap, error) {
	return f(ctx, frame)
}

// SyntheticDecoder fabricates bitmaps filled with the low byte of the frame
// number. An optional delay stands in for decode latency.
type SyntheticDecoder struct {
	size   media.PixelSize
	format media.PixelFormat
	delay  time.Duration

	decoded  atomic.Int64
	disposed atomic.Int64
}

// NewSyntheticDecoder returns a decoder for bitmaps of size in format.
func NewSyntheticDecoder(size media.PixelSize, format media.PixelFormat, delay time.Duration) *SyntheticDecoder {
	return &SyntheticDecoder{size: size, format: format, delay: delay}
}

// SyntheticDecoderFor sizes bitmaps the way manager accounts for them.
func SyntheticDecoderFor(manager *framecache.Manager, delay time.Duration) *SyntheticDecoder {
	opts := manager.Options()
	return NewSyntheticDecoder(opts.FrameSize(manager.FrameSize()), opts.ColorType.PixelFormat(), delay)
}

// Decode implements Decoder.
func (d *SyntheticDecoder) Decode(ctx context.Context, frame int) (*framecache.Bitmap, error) {
	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	bmp := media.NewBitmap(d.size, d.format)
	fill := byte(frame)
	for i := range bmp.Pix {
		bmp.Pix[i] = fill
	}
	d.decoded.Add(1)
	return refcount.New(bmp, func(b *media.Bitmap) {
		d.disposed.Add(1)
		b.Free()
	}), nil
}

// Decoded returns how many bitmaps have been produced.
func (d *SyntheticDecoder) Decoded() int64 { return d.decoded.Load() }

// Live returns how many produced bitmaps are still referenced.
func (d *SyntheticDecoder) Live() int64 { return d.decoded.Load() - d.disposed.Load() }
