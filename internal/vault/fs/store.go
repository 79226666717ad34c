// Package fs provides a filesystem-backed Vault implementation.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/btvault/bt/internal/vault"
)

// Config holds configuration for the filesystem vault backend.
type Config struct {
	// Name is the vault's configured label.
	Name string

	// BasePath is the root directory for content and metadata objects.
	// Keys are stored as paths relative to this directory.
	BasePath string

	// DirMode is the permission mode for created directories. Default: 0755.
	DirMode os.FileMode
}

// Store is a filesystem-backed implementation of vault.Vault. Objects are
// stored as files with the vault key (content/<digest> or
// metadata/<host_id>) as the relative path.
type Store struct {
	mu       sync.RWMutex
	name     string
	basePath string
	dirMode  os.FileMode
}

// New creates a new filesystem vault, creating the base directory if
// necessary.
func New(cfg Config) (*Store, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("fs vault: base path is required")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
		return nil, fmt.Errorf("fs vault: create base path: %w", err)
	}
	return &Store{name: cfg.Name, basePath: cfg.BasePath, dirMode: cfg.DirMode}, nil
}

// Name returns the vault's configured label.
func (s *Store) Name() string {
	return s.name
}

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// PutContent uploads sourcePath under content/<digest>, verifying the bytes
// hash to digest before committing via an atomic rename. A pre-existing
// object with the same digest short-circuits the write.
func (s *Store) PutContent(ctx context.Context, digest, sourcePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := vault.ContentKey(digest)
	dst := s.keyPath(key)
	if _, err := os.Stat(dst); err == nil {
		return nil // idempotent: already present
	}

	sum, err := hashFile(sourcePath)
	if err != nil {
		return vault.NewError("put_content", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	if sum != digest {
		return vault.NewError("put_content", s.name, key, 0, vault.ErrCorrupt)
	}

	if err := copyAtomic(sourcePath, dst, s.dirMode); err != nil {
		return vault.NewError("put_content", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	return nil
}

// GetContent streams content/<digest> to outputPath, verifying the hash of
// the downloaded bytes. On mismatch the partial file is deleted.
func (s *Store) GetContent(ctx context.Context, digest, outputPath string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vault.ContentKey(digest)
	src := s.keyPath(key)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return vault.NewError("get_content", s.name, key, 0, vault.ErrNotFound)
		}
		return vault.NewError("get_content", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}

	if err := copyAtomic(src, outputPath, 0755); err != nil {
		return vault.NewError("get_content", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}

	sum, err := hashFile(outputPath)
	if err != nil || sum != digest {
		_ = os.Remove(outputPath)
		return vault.NewError("get_content", s.name, key, 0, vault.ErrCorrupt)
	}
	return nil
}

// PutMetadata uploads sourcePath under metadata/<hostID>, overwriting any
// prior value.
func (s *Store) PutMetadata(ctx context.Context, hostID, sourcePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := vault.MetadataKey(hostID)
	dst := s.keyPath(key)
	if err := copyAtomic(sourcePath, dst, s.dirMode); err != nil {
		return vault.NewError("put_metadata", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	return nil
}

// GetMetadata downloads the metadata blob for hostID to outputPath.
func (s *Store) GetMetadata(ctx context.Context, hostID, outputPath string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vault.MetadataKey(hostID)
	src := s.keyPath(key)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return vault.NewError("get_metadata", s.name, key, 0, vault.ErrNotFound)
		}
		return vault.NewError("get_metadata", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	if err := copyAtomic(src, outputPath, 0755); err != nil {
		return vault.NewError("get_metadata", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	return nil
}

// ValidateSetup ensures the base directory exists and is writable by
// round-tripping a probe object.
func (s *Store) ValidateSetup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.basePath, s.dirMode); err != nil {
		return vault.NewError("validate_setup", s.name, s.basePath, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}

	probe := filepath.Join(s.basePath, fmt.Sprintf(".bt-probe-%d", rand.Int63()))
	if err := os.WriteFile(probe, []byte("bt"), 0644); err != nil {
		return vault.NewError("validate_setup", s.name, probe, 0, fmt.Errorf("%w: %v", vault.ErrAuthDenied, err))
	}
	defer os.Remove(probe)

	if _, err := os.ReadFile(probe); err != nil {
		return vault.NewError("validate_setup", s.name, probe, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	return nil
}

// hashFile streams a file through SHA-256 in 8 MiB chunks and returns the
// hex digest, never loading the whole file into memory.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 8*1024*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyAtomic copies src to dst via a temporary file in dst's parent
// directory followed by an atomic rename, so a reader never observes a
// partial object.
func copyAtomic(src, dst string, dirMode os.FileMode) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := fmt.Sprintf("%s.tmp-%d", dst, rand.Int63())
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	buf := make([]byte, 8*1024*1024)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

var _ vault.Vault = (*Store)(nil)
