// Package config loads, normalizes, and validates frame cache settings.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the FRAMECACHE_MAX_SIZE_MIB environment override.
// The byte budget is either fixed (max_size_mib) or derived from a fraction of
// physical memory when max_size_mib is zero.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical names, and clear validation errors.
package config
