//go:build windows

package backup

import (
	"os"
	"time"

	"github.com/btvault/bt/internal/model"
)

// applyMetadata restores a snapshot's recorded mode and mtime onto the
// just-downloaded file. Windows has no uid/gid concept to restore.
func applyMetadata(path string, snap *model.FileSnapshot) error {
	if err := os.Chmod(path, os.FileMode(snap.Mode)); err != nil {
		return err
	}
	return os.Chtimes(path, time.Now(), snap.ModifiedAt)
}
