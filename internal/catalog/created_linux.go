//go:build linux

package catalog

import (
	"os"
	"syscall"
	"time"
)

// createdTime returns the inode status-change time. Linux exposes no birth
// time through stat(2), so this is the closest "created-ish" value.
func createdTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	}
	return info.ModTime()
}
