// Package journal persists frame cache eviction reports in SQLite.
//
// The journal is diagnostic history: every eviction run that did work is
// appended with its strategy, passes, frames removed, and byte counts, so a
// run can be inspected after the fact with `framecache history`. Cached frames
// themselves are never written to disk.
package journal
