package media

import (
	"fmt"
	"strings"
)

// PixelSize is a width/height pair in pixels.
type PixelSize struct {
	Width  int
	Height int
}

// String renders the size as WxH.
func (s PixelSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// IsEmpty reports whether either dimension is non-positive.
func (s PixelSize) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Scale multiplies both dimensions, truncating toward zero.
func (s PixelSize) Scale(factor float64) PixelSize {
	return PixelSize{
		Width:  int(float64(s.Width) * factor),
		Height: int(float64(s.Height) * factor),
	}
}

// ParsePixelSize parses "1920x1080".
func ParsePixelSize(value string) (PixelSize, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	var size PixelSize
	if _, err := fmt.Sscanf(trimmed, "%dx%d", &size.Width, &size.Height); err != nil {
		return PixelSize{}, fmt.Errorf("parse pixel size %q: %w", value, err)
	}
	if size.IsEmpty() {
		return PixelSize{}, fmt.Errorf("parse pixel size %q: dimensions must be positive", value)
	}
	return size, nil
}

// PixelFormat identifies the memory layout of a bitmap.
type PixelFormat int

const (
	// FormatBGRA8888 is packed 8-bit BGRA, four bytes per pixel.
	FormatBGRA8888 PixelFormat = iota
	// FormatI420 is planar YUV 4:2:0: a full luma plane plus quarter-size U and V planes.
	FormatI420
)

func (f PixelFormat) String() string {
	switch f {
	case FormatBGRA8888:
		return "bgra8888"
	case FormatI420:
		return "i420"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ByteSize returns the number of bytes a frame of the given size occupies in this format.
func (f PixelFormat) ByteSize(size PixelSize) int64 {
	if size.IsEmpty() {
		return 0
	}
	if f == FormatI420 {
		return int64(size.Width) * int64(float64(size.Height)*1.5)
	}
	return int64(size.Width) * int64(size.Height) * 4
}

// Bitmap is a decoded picture. Pix is laid out according to Format.
type Bitmap struct {
	Size   PixelSize
	Format PixelFormat
	Pix    []byte
}

// NewBitmap allocates a zeroed bitmap.
func NewBitmap(size PixelSize, format PixelFormat) *Bitmap {
	return &Bitmap{
		Size:   size,
		Format: format,
		Pix:    make([]byte, format.ByteSize(size)),
	}
}

// ByteCount returns len(Pix).
func (b *Bitmap) ByteCount() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Pix))
}

// Free drops the pixel buffer so the memory can be reclaimed.
func (b *Bitmap) Free() {
	if b == nil {
		return
	}
	b.Pix = nil
}
