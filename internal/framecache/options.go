package framecache

import (
	"fmt"
	"strings"

	"framecache/internal/media"
)

// DefaultMaxPasses bounds a single eviction run.
const DefaultMaxPasses = 5

// ColorType selects the pixel layout frames are accounted in.
type ColorType int

const (
	ColorBGRA ColorType = iota
	ColorYUV
)

func (c ColorType) String() string {
	switch c {
	case ColorBGRA:
		return "bgra"
	case ColorYUV:
		return "yuv"
	default:
		return fmt.Sprintf("color(%d)", int(c))
	}
}

// PixelFormat maps the color type onto the bitmap layout it stores.
func (c ColorType) PixelFormat() media.PixelFormat {
	if c == ColorYUV {
		return media.FormatI420
	}
	return media.FormatBGRA8888
}

// MarshalText implements encoding.TextMarshaler.
func (c ColorType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ColorType) UnmarshalText(text []byte) error {
	parsed, err := ParseColorType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColorType accepts "bgra"/"rgba" and "yuv"/"i420".
func ParseColorType(value string) (ColorType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "bgra", "rgba", "":
		return ColorBGRA, nil
	case "yuv", "i420":
		return ColorYUV, nil
	default:
		return ColorBGRA, fmt.Errorf("unsupported color type %q", value)
	}
}

// DeletionStrategy selects which unlocked frames eviction removes first.
type DeletionStrategy int

const (
	StrategyOld DeletionStrategy = iota
	StrategyFar
	StrategyBackwardBlock
)

func (s DeletionStrategy) String() string {
	switch s {
	case StrategyOld:
		return "old"
	case StrategyFar:
		return "far"
	case StrategyBackwardBlock:
		return "backward_block"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s DeletionStrategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *DeletionStrategy) UnmarshalText(text []byte) error {
	parsed, err := ParseDeletionStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseDeletionStrategy accepts the snake_case names plus a few spellings used
// in older settings files.
func ParseDeletionStrategy(value string) (DeletionStrategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "old", "oldest", "lru":
		return StrategyOld, nil
	case "far", "":
		return StrategyFar, nil
	case "backward_block", "backwardblock", "block":
		return StrategyBackwardBlock, nil
	default:
		return StrategyFar, fmt.Errorf("unsupported deletion strategy %q", value)
	}
}

// Options configures how a Manager sizes frames and chooses eviction victims.
// Options are replaced wholesale; a new value takes effect on the next eviction run.
type Options struct {
	// Scale shrinks the cached frame relative to the scene frame size (1 keeps full size).
	Scale            float64
	ColorType        ColorType
	DeletionStrategy DeletionStrategy
	// MaxPasses bounds one eviction run; zero means DefaultMaxPasses.
	MaxPasses int
}

// DefaultOptions returns full-size BGRA frames evicted with the Far strategy.
func DefaultOptions() Options {
	return Options{
		Scale:            1,
		ColorType:        ColorBGRA,
		DeletionStrategy: StrategyFar,
		MaxPasses:        DefaultMaxPasses,
	}
}

// FrameSize applies Scale to the scene frame size.
func (o Options) FrameSize(scene media.PixelSize) media.PixelSize {
	if o.Scale <= 0 || o.Scale == 1 {
		return scene
	}
	return scene.Scale(o.Scale)
}

// ByteSize returns the bytes one cached frame occupies for the given scene size.
func (o Options) ByteSize(scene media.PixelSize) int64 {
	return o.ColorType.PixelFormat().ByteSize(o.FrameSize(scene))
}

func (o Options) passes() int {
	if o.MaxPasses <= 0 {
		return DefaultMaxPasses
	}
	return o.MaxPasses
}
