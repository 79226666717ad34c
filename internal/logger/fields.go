package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements so logs aggregate and query cleanly regardless
// of which subsystem emitted them.
const (
	// ========================================================================
	// Run identification
	// ========================================================================
	KeyHostID    = "host_id"    // this host's configured UUID
	KeyOperation = "operation"  // sub-operation type: stage, commit, restore...
	KeyOpUUID    = "op_uuid"    // staging operation UUID

	// ========================================================================
	// Filesystem
	// ========================================================================
	KeyPath       = "path"        // full file/directory path
	KeyDirectory  = "directory"   // tracked directory path
	KeyFilename   = "filename"    // file or directory name (basename)
	KeySize       = "size"        // file size in bytes
	KeyMode       = "mode"        // file mode/permissions
	KeyUID        = "uid"
	KeyGID        = "gid"

	// ========================================================================
	// Content addressing
	// ========================================================================
	KeyDigest = "digest" // hex SHA-256 content digest

	// ========================================================================
	// Vault / storage backend
	// ========================================================================
	KeyStoreName  = "store_name"  // configured vault label
	KeyStoreType  = "store_type"  // vault kind: fs, s3
	KeyBucket     = "bucket"      // S3 bucket name
	KeyRegion     = "region"      // S3 region
	KeyKey        = "key"         // object key in vault storage
	KeyAttempt    = "attempt"     // retry attempt number
	KeyMaxRetries = "max_retries" // maximum retry attempts

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyCount      = "count"       // generic item count (files staged, ops drained...)
)

// ----------------------------------------------------------------------------
// Run identification
// ----------------------------------------------------------------------------

// HostID returns a slog.Attr for this host's configured UUID.
func HostID(id string) slog.Attr {
	return slog.String(KeyHostID, id)
}

// Operation returns a slog.Attr for sub-operation type.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// OpUUID returns a slog.Attr for a staging operation UUID.
func OpUUID(id string) slog.Attr {
	return slog.String(KeyOpUUID, id)
}

// ----------------------------------------------------------------------------
// Filesystem
// ----------------------------------------------------------------------------

// Path returns a slog.Attr for a file/directory path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Directory returns a slog.Attr for a tracked directory path.
func Directory(p string) slog.Attr {
	return slog.String(KeyDirectory, p)
}

// Filename returns a slog.Attr for a file or directory name (basename).
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Size returns a slog.Attr for file size in bytes.
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// Mode returns a slog.Attr for file mode/permissions.
func Mode(m uint32) slog.Attr {
	return slog.Any(KeyMode, m)
}

// UID returns a slog.Attr for a user ID.
func UID(uid uint32) slog.Attr {
	return slog.Any(KeyUID, uid)
}

// GID returns a slog.Attr for a group ID.
func GID(gid uint32) slog.Attr {
	return slog.Any(KeyGID, gid)
}

// ----------------------------------------------------------------------------
// Content addressing
// ----------------------------------------------------------------------------

// Digest returns a slog.Attr for a hex SHA-256 content digest.
func Digest(d string) slog.Attr {
	return slog.String(KeyDigest, d)
}

// ----------------------------------------------------------------------------
// Vault / storage backend
// ----------------------------------------------------------------------------

// StoreName returns a slog.Attr for a configured vault label.
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// StoreType returns a slog.Attr for a vault kind (fs, s3).
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for an S3 bucket name.
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Region returns a slog.Attr for an S3 region.
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// Key returns a slog.Attr for an object key in vault storage.
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry attempts.
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// ----------------------------------------------------------------------------
// Operation metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Count returns a slog.Attr for a generic item count.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}
