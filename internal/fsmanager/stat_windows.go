//go:build windows

package fsmanager

import (
	"io/fs"
	"syscall"
	"time"

	"github.com/btvault/bt/internal/model"
)

// statFromInfo approximates the unix stat fields on Windows: there is no
// uid/gid concept, and birthtime comes from the CreationTime field of
// syscall.Win32FileAttributeData rather than a Stat_t.
func statFromInfo(info fs.FileInfo) model.FileStats {
	stats := model.FileStats{
		Size:       info.Size(),
		Mode:       uint32(info.Mode().Perm()),
		ModifiedAt: info.ModTime(),
		AccessedAt: info.ModTime(),
		ChangedAt:  info.ModTime(),
	}

	if sys, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		stats.AccessedAt = time.Unix(0, sys.LastAccessTime.Nanoseconds())
		born := time.Unix(0, sys.CreationTime.Nanoseconds())
		stats.BornAt = &born
	}

	return stats
}
