//go:build darwin

package catalog

import (
	"os"
	"syscall"
	"time"
)

// createdTime returns the status-change time.
func createdTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctimespec.Sec, st.Ctimespec.Nsec)
	}
	return info.ModTime()
}
