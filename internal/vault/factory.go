package vault

import (
	"context"
	"fmt"

	"github.com/btvault/bt/internal/vault/fs"
	"github.com/btvault/bt/internal/vault/s3"
)

// FSConfig configures a filesystem-backed vault.
type FSConfig struct {
	BasePath string
}

// S3Config configures an S3-backed vault.
type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	KeyPrefix      string
	ForcePathStyle bool
}

// Spec is the discriminated-union configuration for one configured vault,
// mirroring the `[[vault]]` TOML blocks (kind = "fs" | "s3").
type Spec struct {
	Name string
	Kind string
	FS   *FSConfig
	S3   *S3Config
}

// New builds a Vault from a Spec.
func New(ctx context.Context, spec Spec) (Vault, error) {
	switch spec.Kind {
	case "fs":
		if spec.FS == nil {
			return nil, fmt.Errorf("vault %q: kind=fs requires [vault.fs] config", spec.Name)
		}
		return fs.New(fs.Config{Name: spec.Name, BasePath: spec.FS.BasePath})
	case "s3":
		if spec.S3 == nil {
			return nil, fmt.Errorf("vault %q: kind=s3 requires [vault.s3] config", spec.Name)
		}
		return s3.NewFromConfig(ctx, s3.Config{
			Name:           spec.Name,
			Bucket:         spec.S3.Bucket,
			Region:         spec.S3.Region,
			Endpoint:       spec.S3.Endpoint,
			KeyPrefix:      spec.S3.KeyPrefix,
			ForcePathStyle: spec.S3.ForcePathStyle,
		})
	default:
		return nil, fmt.Errorf("vault %q: unknown kind %q (must be fs or s3)", spec.Name, spec.Kind)
	}
}

// NewAll builds every configured vault, stopping at the first error.
func NewAll(ctx context.Context, specs []Spec) ([]Vault, error) {
	vaults := make([]Vault, 0, len(specs))
	for _, spec := range specs {
		v, err := New(ctx, spec)
		if err != nil {
			return nil, err
		}
		vaults = append(vaults, v)
	}
	return vaults, nil
}
