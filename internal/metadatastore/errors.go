package metadatastore

import (
	"errors"
	"fmt"

	"github.com/btvault/bt/internal/bterr"
)

// Sentinel errors returned by Store methods.
var (
	// ErrDirectoryNotFound indicates no tracked Directory matches the query.
	ErrDirectoryNotFound = errors.New("metadatastore: directory not found")

	// ErrDirectoryExists indicates a Directory already exists at the path.
	ErrDirectoryExists = errors.New("metadatastore: directory already exists")

	// ErrNotTracked indicates the path has no tracked ancestor directory.
	ErrNotTracked = errors.New("metadatastore: path is not under a tracked directory")

	// ErrFileNotFound indicates no File row matches the query.
	ErrFileNotFound = errors.New("metadatastore: file not found")

	// ErrSnapshotNotFound indicates no FileSnapshot matches the query.
	ErrSnapshotNotFound = errors.New("metadatastore: snapshot not found")
)

// Error wraps a metadata store sentinel with operational context, in the
// shape of vault.Error and the teacher's payload.PayloadError.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("metadatastore %s: %s (path=%s)", e.Op, e.Err, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind maps the wrapped sentinel to the shared error taxonomy.
func (e *Error) Kind() bterr.Kind {
	switch {
	case errors.Is(e.Err, ErrNotTracked):
		return bterr.KindNotTracked
	case errors.Is(e.Err, ErrDirectoryNotFound), errors.Is(e.Err, ErrFileNotFound), errors.Is(e.Err, ErrSnapshotNotFound):
		return bterr.KindNotFound
	default:
		return bterr.KindFatal
	}
}

// NewError wraps a sentinel error with operational context.
func NewError(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Err: err}
}
