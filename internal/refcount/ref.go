package refcount

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrDisposed marks an attempt to use a handle after its last reference was released.
var ErrDisposed = errors.New("refcount: already disposed")

// Ref is a reference-counted handle. The zero value is not usable; construct
// handles with New.
type Ref[T any] struct {
	count     atomic.Int32
	value     T
	dispose   func(T)
	onRelease func()
}

// Option customizes a handle at construction.
type Option[T any] func(*Ref[T])

// WithReleaseCallback registers fn to run once, right before the resource is
// disposed.
func WithReleaseCallback[T any](fn func()) Option[T] {
	return func(r *Ref[T]) { r.onRelease = fn }
}

// New wraps value with a reference count of one. dispose may be nil when the
// resource needs no cleanup beyond dropping the reference.
func New[T any](value T, dispose func(T), opts ...Option[T]) *Ref[T] {
	r := &Ref[T]{value: value, dispose: dispose}
	for _, opt := range opts {
		opt(r)
	}
	r.count.Store(1)
	return r
}

// AddRef takes an additional reference and returns the handle for chaining.
// It panics when the count is already zero.
func (r *Ref[T]) AddRef() *Ref[T] {
	for {
		current := r.count.Load()
		if current <= 0 {
			panic(fmt.Errorf("add reference: %w", ErrDisposed))
		}
		if r.count.CompareAndSwap(current, current+1) {
			return r
		}
	}
}

// Release drops one reference. The transition from one to zero runs the
// release callback and then disposes the resource. Releasing a handle that is
// already at zero panics.
func (r *Ref[T]) Release() {
	for {
		current := r.count.Load()
		if current <= 0 {
			panic(fmt.Errorf("release reference: %w", ErrDisposed))
		}
		if !r.count.CompareAndSwap(current, current-1) {
			continue
		}
		if current == 1 {
			r.finalize()
		}
		return
	}
}

// RefCount returns the current number of references. Use it for diagnostics
// and tests only.
func (r *Ref[T]) RefCount() int32 {
	return r.count.Load()
}

// Value returns the wrapped resource. After the final release it returns the
// zero value.
func (r *Ref[T]) Value() T {
	return r.value
}

// Disposed reports whether the last reference has been released.
func (r *Ref[T]) Disposed() bool {
	return r.count.Load() <= 0
}

// finalize only runs on the goroutine that observed the 1 -> 0 transition.
func (r *Ref[T]) finalize() {
	if r.onRelease != nil {
		r.onRelease()
	}
	value := r.value
	var zero T
	r.value = zero
	if r.dispose != nil {
		r.dispose(value)
	}
}
