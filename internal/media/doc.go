// Package media defines the decoded picture types shared by the frame cache,
// the renderer, and the playback scheduler.
//
// Bitmaps are immutable once handed to the cache. Pixel layout is described by
// PixelFormat; the cache only needs the frame dimensions and the format to
// account for memory, so decoding and conversion stay with the producer.
package media
