// Package refcount provides a thread-safe reference-counted handle around a
// resource that must be disposed exactly once.
//
// Decoded bitmaps are shared between the frame cache (which owns one reference),
// the renderer reading a snapshot, and any prefetch task still in flight. Each
// holder releases its own reference independently; the resource is disposed when
// the last reference goes away. Adding a reference to a handle whose count has
// already reached zero is a use-after-free in the caller and panics.
package refcount
