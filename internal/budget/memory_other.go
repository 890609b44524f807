//go:build !linux

package budget

// TotalMemory returns 0 where physical memory is not probed; the configured
// fallback budget applies.
func TotalMemory() uint64 {
	return 0
}
