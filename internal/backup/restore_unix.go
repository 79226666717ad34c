//go:build unix

package backup

import (
	"os"
	"time"

	"github.com/btvault/bt/internal/model"
)

// applyMetadata restores a snapshot's recorded mode, ownership, and mtime
// onto the just-downloaded file. Ownership failures are common for
// non-privileged restores and are surfaced to the caller as a warning, not
// a hard error.
func applyMetadata(path string, snap *model.FileSnapshot) error {
	if err := os.Chmod(path, os.FileMode(snap.Mode)); err != nil {
		return err
	}
	if err := os.Chown(path, int(snap.UID), int(snap.GID)); err != nil {
		return err
	}
	return os.Chtimes(path, time.Now(), snap.ModifiedAt)
}
