// Package backup is the orchestrator: the Service type exposes the
// directory-tracking, staging, commit, status, history, and restore verbs
// that cmd/bt/commands wires into the CLI.
package backup

import (
	"errors"
	"fmt"

	"github.com/btvault/bt/internal/bterr"
)

// ErrNotTracked indicates the path has no tracked ancestor directory.
var ErrNotTracked = errors.New("backup: path is not under a tracked directory")

// ErrAlreadyTracked indicates a directory is already tracked. AddDirectory
// does not return it: tracking an already-tracked path succeeds.
var ErrAlreadyTracked = errors.New("backup: directory is already tracked")

// ErrSnapshotNotFound indicates RestoreFile was asked for a digest with no
// matching snapshot.
var ErrSnapshotNotFound = errors.New("backup: no snapshot matches the requested digest")

// ErrNoVaultSucceeded indicates every configured vault failed to serve a
// restore request.
var ErrNoVaultSucceeded = errors.New("backup: no configured vault returned the requested content")

// Error wraps a backup sentinel or downstream failure with operational
// context, in the shape of vault.Error and metadatastore.Error.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backup %s: %s (path=%s)", e.Op, e.Err, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind maps the wrapped error to the shared taxonomy, deferring to the
// wrapped error's own Kind() when it implements bterr.Classified (errors
// bubbled up from vault/metadatastore/staging already know their kind).
func (e *Error) Kind() bterr.Kind {
	if k := bterr.KindOf(e.Err); k != bterr.KindUnknown {
		return k
	}
	switch {
	case errors.Is(e.Err, ErrNotTracked):
		return bterr.KindNotTracked
	case errors.Is(e.Err, ErrSnapshotNotFound):
		return bterr.KindNotFound
	default:
		return bterr.KindFatal
	}
}

// NewError wraps err with operational context.
func NewError(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Err: err}
}
