//go:build darwin

package fsmanager

import (
	"io/fs"
	"syscall"
	"time"

	"github.com/btvault/bt/internal/model"
)

// statFromInfo extracts uid/gid/ctime/birthtime from the BSD-flavored
// syscall.Stat_t that Darwin's runtime populates, which (unlike Linux)
// reports a true Birthtimespec.
func statFromInfo(info fs.FileInfo) model.FileStats {
	stats := model.FileStats{
		Size:       info.Size(),
		Mode:       uint32(info.Mode().Perm()),
		ModifiedAt: info.ModTime(),
	}

	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		stats.UID = sys.Uid
		stats.GID = sys.Gid
		stats.AccessedAt = time.Unix(sys.Atimespec.Sec, sys.Atimespec.Nsec)
		stats.ChangedAt = time.Unix(sys.Ctimespec.Sec, sys.Ctimespec.Nsec)
		born := time.Unix(sys.Birthtimespec.Sec, sys.Birthtimespec.Nsec)
		stats.BornAt = &born
	} else {
		stats.AccessedAt = info.ModTime()
		stats.ChangedAt = info.ModTime()
	}

	return stats
}
