//go:build windows

package catalog

import (
	"os"
	"syscall"
	"time"
)

// createdTime returns the NTFS creation time.
func createdTime(info os.FileInfo) time.Time {
	if attr, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, attr.CreationTime.Nanoseconds())
	}
	return info.ModTime()
}
