//go:build windows

package fs

import "os"

// inodeOf returns 0 on Windows; change detection falls back to size and mtime.
func inodeOf(os.FileInfo) uint64 {
	return 0
}
