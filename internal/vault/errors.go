package vault

import (
	"errors"
	"fmt"

	"github.com/btvault/bt/internal/bterr"
)

// Sentinel errors returned by Vault implementations. Callers should match
// them with errors.Is, which works through the Error wrapper below.
var (
	// ErrNotFound indicates the requested digest or host metadata blob
	// does not exist in this vault.
	ErrNotFound = errors.New("vault: object not found")

	// ErrCorrupt indicates the bytes read from (or about to be written
	// to) the vault do not hash to the expected digest.
	ErrCorrupt = errors.New("vault: digest mismatch")

	// ErrUnreachable indicates a transient network or backend failure.
	ErrUnreachable = errors.New("vault: backend unreachable")

	// ErrAuthDenied indicates the backend rejected the operation for
	// lack of permission or invalid credentials.
	ErrAuthDenied = errors.New("vault: access denied")
)

// Error wraps a vault sentinel error with operational context, in the shape
// of the teacher's payload.PayloadError: enough fields to diagnose a failed
// upload or download without losing errors.Is compatibility with the
// sentinel.
type Error struct {
	// Op describes the operation that failed: "put_content",
	// "get_content", "put_metadata", "get_metadata", or "validate_setup".
	Op string

	// Vault is the configured vault name this error came from.
	Vault string

	// Key is the vault-relative key involved (content/<digest> or
	// metadata/<host_id>).
	Key string

	// Retries is the number of retry attempts made before this error was
	// surfaced.
	Retries int

	// Err is the wrapped sentinel error.
	Err error
}

// Error returns a human-readable description of the vault error.
func (e *Error) Error() string {
	return fmt.Sprintf("vault %s: %s (vault=%s, key=%s, retries=%d)",
		e.Op, e.Err, e.Vault, e.Key, e.Retries)
}

// Unwrap returns the underlying sentinel error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Kind maps the wrapped sentinel to the shared error taxonomy.
func (e *Error) Kind() bterr.Kind {
	switch {
	case errors.Is(e.Err, ErrNotFound):
		return bterr.KindNotFound
	case errors.Is(e.Err, ErrCorrupt):
		return bterr.KindCorrupt
	case errors.Is(e.Err, ErrAuthDenied):
		return bterr.KindAuthDenied
	case errors.Is(e.Err, ErrUnreachable):
		return bterr.KindTransient
	default:
		return bterr.KindUnknown
	}
}

// NewError wraps a sentinel error with operational context.
func NewError(op, vaultName, key string, retries int, err error) *Error {
	return &Error{Op: op, Vault: vaultName, Key: key, Retries: retries, Err: err}
}
