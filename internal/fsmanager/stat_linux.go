//go:build linux

package fsmanager

import (
	"io/fs"
	"syscall"
	"time"

	"github.com/btvault/bt/internal/model"
)

// statFromInfo extracts uid/gid/ctime from the platform-specific
// syscall.Stat_t embedded in fs.FileInfo.Sys(). Birthtime is left nil: most
// unix filesystems exposed through this syscall struct do not report file
// creation time (ext4 via statx does, but not through Stat_t).
func statFromInfo(info fs.FileInfo) model.FileStats {
	stats := model.FileStats{
		Size:       info.Size(),
		Mode:       uint32(info.Mode().Perm()),
		ModifiedAt: info.ModTime(),
	}

	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		stats.UID = sys.Uid
		stats.GID = sys.Gid
		stats.AccessedAt = time.Unix(sys.Atim.Sec, sys.Atim.Nsec)
		stats.ChangedAt = time.Unix(sys.Ctim.Sec, sys.Ctim.Nsec)
	} else {
		stats.AccessedAt = info.ModTime()
		stats.ChangedAt = info.ModTime()
	}

	return stats
}
