// Package s3 provides an S3-backed Vault implementation.
package s3

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/btvault/bt/internal/vault"
)

// Config holds configuration for the S3 vault backend.
type Config struct {
	// Name is the vault's configured label.
	Name string

	// Bucket is the S3 bucket name.
	Bucket string

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible
	// services such as MinIO).
	Endpoint string

	// KeyPrefix is prepended to every vault key. Should end with "/" if
	// non-empty.
	KeyPrefix string

	// ForcePathStyle forces path-style addressing (required for
	// MinIO/Localstack).
	ForcePathStyle bool
}

// Store is an S3-backed implementation of vault.Vault.
type Store struct {
	client    *s3.Client
	name      string
	bucket    string
	keyPrefix string
}

// New creates a new S3 vault with an existing client.
func New(client *s3.Client, cfg Config) *Store {
	return &Store{client: client, name: cfg.Name, bucket: cfg.Bucket, keyPrefix: cfg.KeyPrefix}
}

// NewFromConfig creates a new S3 vault, building an S3 client from the AWS
// SDK's default credential chain plus the options in cfg.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 vault: load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return New(client, cfg), nil
}

// Name returns the vault's configured label.
func (s *Store) Name() string {
	return s.name
}

func (s *Store) fullKey(key string) string {
	return s.keyPrefix + key
}

// PutContent uploads sourcePath under content/<digest>, skipping the upload
// if an object with that digest already exists (idempotent by digest).
func (s *Store) PutContent(ctx context.Context, digest, sourcePath string) error {
	key := vault.ContentKey(digest)
	fullKey := s.fullKey(key)

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(fullKey)})
	if err == nil {
		return nil // idempotent: already present
	}
	if !isNotFoundError(err) {
		return vault.NewError("put_content", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}

	sum, err := hashFile(sourcePath)
	if err != nil {
		return vault.NewError("put_content", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	if sum != digest {
		return vault.NewError("put_content", s.name, key, 0, vault.ErrCorrupt)
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return vault.NewError("put_content", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
		Body:   f,
	})
	if err != nil {
		return vault.NewError("put_content", s.name, key, 0, classify(err))
	}
	return nil
}

// GetContent streams content/<digest> to outputPath, verifying the hash of
// the downloaded bytes.
func (s *Store) GetContent(ctx context.Context, digest, outputPath string) error {
	key := vault.ContentKey(digest)
	fullKey := s.fullKey(key)

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(fullKey)})
	if err != nil {
		if isNotFoundError(err) {
			return vault.NewError("get_content", s.name, key, 0, vault.ErrNotFound)
		}
		return vault.NewError("get_content", s.name, key, 0, classify(err))
	}
	defer resp.Body.Close()

	if err := writeVerified(resp.Body, outputPath, digest); err != nil {
		return vault.NewError("get_content", s.name, key, 0, err)
	}
	return nil
}

// PutMetadata uploads sourcePath under metadata/<hostID>, overwriting any
// prior value.
func (s *Store) PutMetadata(ctx context.Context, hostID, sourcePath string) error {
	key := vault.MetadataKey(hostID)
	f, err := os.Open(sourcePath)
	if err != nil {
		return vault.NewError("put_metadata", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Body:   f,
	})
	if err != nil {
		return vault.NewError("put_metadata", s.name, key, 0, classify(err))
	}
	return nil
}

// GetMetadata downloads the metadata blob for hostID to outputPath.
func (s *Store) GetMetadata(ctx context.Context, hostID, outputPath string) error {
	key := vault.MetadataKey(hostID)
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.fullKey(key))})
	if err != nil {
		if isNotFoundError(err) {
			return vault.NewError("get_metadata", s.name, key, 0, vault.ErrNotFound)
		}
		return vault.NewError("get_metadata", s.name, key, 0, classify(err))
	}
	defer resp.Body.Close()

	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return vault.NewError("get_metadata", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return vault.NewError("get_metadata", s.name, key, 0, fmt.Errorf("%w: %v", vault.ErrUnreachable, err))
	}
	return nil
}

// ValidateSetup round-trips a probe object under the configured prefix to
// confirm bucket access and permissions.
func (s *Store) ValidateSetup(ctx context.Context) error {
	probeKey := s.fullKey(".bt-probe")

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return vault.NewError("validate_setup", s.name, s.bucket, 0, classify(err))
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(probeKey),
		Body:   strings.NewReader("bt"),
	})
	if err != nil {
		return vault.NewError("validate_setup", s.name, probeKey, 0, classify(err))
	}

	_, _ = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(probeKey)})
	return nil
}

// writeVerified copies r to outputPath while hashing it, verifying the
// result matches digest. On mismatch the partial file is removed.
func writeVerified(r io.Reader, outputPath, digest string) error {
	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", vault.ErrUnreachable, err)
	}

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), r); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("%w: %v", vault.ErrUnreachable, err)
	}
	out.Close()

	if hex.EncodeToString(h.Sum(nil)) != digest {
		os.Remove(outputPath)
		return vault.ErrCorrupt
	}
	return nil
}

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

// isNotFoundError string-matches the common S3 not-found error shapes, the
// same heuristic the teacher's block store uses since the SDK does not
// expose a single typed error across all operations.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "NoSuchKey") || strings.Contains(s, "NotFound") || strings.Contains(s, "404")
}

// classify maps an S3 SDK error to the vault transient/auth sentinel most
// likely to apply, defaulting to transient since most S3 failures are
// network or throttling related.
func classify(err error) error {
	s := err.Error()
	if strings.Contains(s, "AccessDenied") || strings.Contains(s, "Forbidden") {
		return fmt.Errorf("%w: %v", vault.ErrAuthDenied, err)
	}
	return fmt.Errorf("%w: %v", vault.ErrUnreachable, err)
}

var _ vault.Vault = (*Store)(nil)
