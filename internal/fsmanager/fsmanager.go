// Package fsmanager is the pure-ish facade over the local filesystem: path
// resolution, directory walking, stat collection, and digest computation.
package fsmanager

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/btvault/bt/internal/bytesize"
	"github.com/btvault/bt/internal/model"
)

// DefaultBufferSize is the streaming buffer used for hashing and copying,
// matching the 8 MiB the teacher's payload store uses for block I/O.
var DefaultBufferSize = int(8 * bytesize.MiB)

// ErrNotRegularFile is returned when a caller requires a regular file but
// the resolved path names something else (directory, device, socket...).
var ErrNotRegularFile = errors.New("fsmanager: not a regular file")

// ResolveAndValidate canonicalizes p to an absolute, symlink-resolved path
// and confirms it exists.
func ResolveAndValidate(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("fsmanager: resolve %q: %w", p, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("fsmanager: resolve %q: %w", p, err)
	}
	return resolved, nil
}

// ResolveRegularFile resolves p and confirms the result is a regular file.
func ResolveRegularFile(p string) (string, error) {
	resolved, err := ResolveAndValidate(p)
	if err != nil {
		return "", err
	}
	info, err := os.Lstat(resolved)
	if err != nil {
		return "", fmt.Errorf("fsmanager: stat %q: %w", resolved, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotRegularFile, resolved)
	}
	return resolved, nil
}

// Buffer returns a fresh byte slice of the configured streaming buffer size.
func Buffer() []byte {
	return make([]byte, DefaultBufferSize)
}

// DigestOf streams path through SHA-256 and returns its hex digest without
// ever holding the whole file in memory.
func DigestOf(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fsmanager: open %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, Buffer()); err != nil {
		return "", fmt.Errorf("fsmanager: hash %q: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CopyToStaging copies the content of src into dst, truncating dst first,
// and syncs dst before returning. dst is written in place, not through a
// temporary file and rename, so a crash mid-copy can leave a partial dst.
func CopyToStaging(src, dst string) (digest string, size int64, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", 0, fmt.Errorf("fsmanager: open source %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", 0, fmt.Errorf("fsmanager: create staging file %q: %w", dst, err)
	}
	defer out.Close()

	h := sha256.New()
	n, err := io.CopyBuffer(out, io.TeeReader(in, h), Buffer())
	if err != nil {
		return "", 0, fmt.Errorf("fsmanager: copy %q to %q: %w", src, dst, err)
	}
	if err := out.Sync(); err != nil {
		return "", 0, fmt.Errorf("fsmanager: sync %q: %w", dst, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Stat returns the filesystem metadata fields used for change detection and
// snapshot recording. UID/GID/Ctime/Birthtime are platform-specific; see
// stat_linux.go, stat_darwin.go and stat_windows.go.
func Stat(path string) (model.FileStats, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return model.FileStats{}, fmt.Errorf("fsmanager: stat %q: %w", path, err)
	}
	return statFromInfo(info), nil
}

// IsRegular reports whether d names a regular file, never following symlinks.
func IsRegular(d fs.DirEntry) bool {
	return d.Type().IsRegular()
}
