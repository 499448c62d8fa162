//go:build unix

package fs

import (
	"os"
	"syscall"
)

// inodeOf lets the copier notice a source replaced by rename mid-copy.
func inodeOf(info os.FileInfo) uint64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return st.Ino
	}
	return 0
}
