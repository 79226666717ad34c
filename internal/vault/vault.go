// Package vault defines the content-addressed blob and per-host metadata
// store contract that filesystem and S3 backends implement.
package vault

import "context"

// Vault is the uniform contract every backend (filesystem, S3) implements.
// All payload methods stream through file paths, never whole-file buffers,
// so multi-gigabyte files never hit memory.
type Vault interface {
	// PutContent uploads the bytes at sourcePath under the key
	// content/<digest>. Idempotent: if an object with that digest
	// already exists, it succeeds without re-uploading.
	PutContent(ctx context.Context, digest, sourcePath string) error

	// GetContent streams the object named by digest to outputPath,
	// verifying the downloaded bytes hash to digest. On hash mismatch it
	// deletes the partial file and returns an error wrapping ErrCorrupt.
	GetContent(ctx context.Context, digest, outputPath string) error

	// PutMetadata uploads the metadata database at sourcePath under the
	// key metadata/<hostID>, overwriting any prior value.
	PutMetadata(ctx context.Context, hostID, sourcePath string) error

	// GetMetadata downloads the most recent metadata blob for hostID to
	// outputPath. Returns an error wrapping ErrNotFound if none exists.
	GetMetadata(ctx context.Context, hostID, outputPath string) error

	// ValidateSetup performs an idempotent backend-specific
	// initialization and permission probe: create the configured prefix,
	// round-trip a probe object, then delete it.
	ValidateSetup(ctx context.Context) error

	// Name returns the vault's configured label, used in logging and
	// `bt vault init` output.
	Name() string
}

// ContentKey returns the vault-relative key for a content digest.
func ContentKey(digest string) string {
	return "content/" + digest
}

// MetadataKey returns the vault-relative key for a host's metadata blob.
func MetadataKey(hostID string) string {
	return "metadata/" + hostID
}
