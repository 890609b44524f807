// Package main hosts the framecache CLI.
//
// The Cobra command tree loads configuration, builds a frame cache sized from
// the configured budget, and drives it with the playback simulator so eviction
// behaviour can be observed from a terminal. Eviction runs are journaled to
// SQLite and can be listed afterwards with the history commands.
//
// Keep commands thin: behaviour belongs in the internal packages, and this
// package only wires them together and renders their results.
package main
