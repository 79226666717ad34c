package staging

import (
	"errors"
	"fmt"

	"github.com/btvault/bt/internal/bterr"
)

// ErrFileMutatedDuringStage indicates the source file changed between the
// two stat calls bracketing the staging copy, making the staged bytes
// unreliable; the caller should retry staging from scratch.
var ErrFileMutatedDuringStage = errors.New("staging: file mutated during staging copy")

// ErrQueueEmpty indicates there is no pending operation to process.
var ErrQueueEmpty = errors.New("staging: queue is empty")

// Error wraps a staging sentinel with operational context.
type Error struct {
	Op     string
	OpUUID string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("staging %s: %s (op=%s)", e.Op, e.Err, e.OpUUID)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind maps the wrapped sentinel to the shared error taxonomy.
func (e *Error) Kind() bterr.Kind {
	switch {
	case errors.Is(e.Err, ErrFileMutatedDuringStage):
		return bterr.KindFileMutatedDuringStage
	case errors.Is(e.Err, ErrQueueEmpty):
		return bterr.KindNotFound
	default:
		return bterr.KindFatal
	}
}

// NewError wraps a sentinel error with operational context.
func NewError(op, opUUID string, err error) *Error {
	return &Error{Op: op, OpUUID: opUUID, Err: err}
}
