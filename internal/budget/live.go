package budget

import (
	"sync/atomic"

	"framecache/internal/config"
)

// Live is a byte budget that can change while managers read it.
type Live struct {
	bytes atomic.Int64
}

// NewLive returns a budget starting at maxBytes.
func NewLive(maxBytes int64) *Live {
	l := &Live{}
	l.bytes.Store(maxBytes)
	return l
}

// FromConfig sizes a Live budget from cfg and the machine's memory.
func FromConfig(cfg *config.Config) *Live {
	return NewLive(cfg.MaxBytes(TotalMemory()))
}

// MaxBytes returns the current budget.
func (l *Live) MaxBytes() int64 {
	if l == nil {
		return 0
	}
	return l.bytes.Load()
}

// Set replaces the budget and returns the previous value.
func (l *Live) Set(maxBytes int64) int64 {
	return l.bytes.Swap(maxBytes)
}
