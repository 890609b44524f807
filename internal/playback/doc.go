// Package playback drives a frame cache the way an editor timeline does.
//
// A Simulator advances the playhead at a fixed rate, asks the cache for each
// frame, decodes misses synchronously, and keeps a small pool of workers
// prefetching frames ahead of the playhead. Frames inside the visible window
// are locked so eviction never removes them while they are on screen. The
// decoder is an interface; SyntheticDecoder fills bitmaps with a pattern so the
// cache can be exercised without real media.
package playback
