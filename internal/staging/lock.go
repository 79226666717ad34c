//go:build unix

package staging

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ProcessLock holds an advisory flock(2) on the staging root's lock file,
// the same primitive family the teacher's daemon lifecycle code uses for
// process signaling, generalized here to exclude a second service process
// from operating on the same staging root concurrently.
type ProcessLock struct {
	f *os.File
}

// ErrAlreadyLocked indicates another process already holds the staging
// root's lock.
var ErrAlreadyLocked = fmt.Errorf("staging: staging root is locked by another process")

// AcquireLock takes a non-blocking exclusive lock on <root>/bt.lock.
func AcquireLock(lockPath string) (*ProcessLock, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("staging: open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrAlreadyLocked
		}
		return nil, fmt.Errorf("staging: flock: %w", err)
	}

	return &ProcessLock{f: f}, nil
}

// Release drops the lock and closes the underlying file.
func (l *ProcessLock) Release() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return fmt.Errorf("staging: unlock: %w", err)
	}
	return l.f.Close()
}
