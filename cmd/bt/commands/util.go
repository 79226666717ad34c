package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btvault/bt/internal/backup"
	"github.com/btvault/bt/internal/logger"
	"github.com/btvault/bt/internal/metadatastore"
	"github.com/btvault/bt/internal/staging"
	"github.com/btvault/bt/internal/vault"
	"github.com/btvault/bt/pkg/config"
)

// loadConfig loads the bt configuration from the --config flag or the
// default location, failing with setup instructions if neither exists.
func loadConfig() (*config.Config, error) {
	return config.MustLoad(GetConfigFile())
}

// initLogger points the structured logger at <log_dir>/bt.log in JSON
// format; level is overridable via BT_LOG_LEVEL for debugging a single run.
func initLogger(cfg *config.Config) error {
	level := os.Getenv("BT_LOG_LEVEL")
	if level == "" {
		level = "INFO"
	}
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return logger.Init(logger.Config{
		Level:  level,
		Format: "json",
		Output: filepath.Join(cfg.LogDir, "bt.log"),
	})
}

// engine bundles the opened metadata store, staging area, and backup
// service, plus a cleanup func that releases the process lock and closes
// the database.
type engine struct {
	Store   *metadatastore.Store
	Area    *staging.Area
	Service *backup.Service
	close   func() error
}

// openEngine wires the metadata store, staging area, configured vaults, and
// backup service from cfg. Callers must defer e.Close().
func openEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	store, err := metadatastore.Open(filepath.Join(cfg.BaseDir, "data", "metadata.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	area, err := staging.Open(cfg.BaseDir)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open staging area: %w", err)
	}

	specs := make([]vault.Spec, 0, len(cfg.Vaults))
	for _, vc := range cfg.Vaults {
		spec := vault.Spec{Name: vc.Name, Kind: vc.Kind}
		if vc.FS != nil {
			spec.FS = &vault.FSConfig{BasePath: vc.FS.BasePath}
		}
		if vc.S3 != nil {
			spec.S3 = &vault.S3Config{
				Bucket:         vc.S3.Bucket,
				Region:         vc.S3.Region,
				Endpoint:       vc.S3.Endpoint,
				KeyPrefix:      vc.S3.KeyPrefix,
				ForcePathStyle: vc.S3.ForcePathStyle,
			}
		}
		specs = append(specs, spec)
	}
	vaults, err := vault.NewAll(ctx, specs)
	if err != nil {
		_ = area.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize vaults: %w", err)
	}

	svc := backup.New(store, area, vaults, backup.Config{
		HostID:      cfg.HostID,
		IgnoreList:  cfg.IgnoreList,
		Concurrency: cfg.Concurrency,
	})

	return &engine{
		Store:   store,
		Area:    area,
		Service: svc,
		close: func() error {
			areaErr := area.Close()
			storeErr := store.Close()
			if areaErr != nil {
				return areaErr
			}
			return storeErr
		},
	}, nil
}

// Close releases the engine's process lock and database handle.
func (e *engine) Close() error {
	return e.close()
}

// targetPath returns args[0] unchanged if present, otherwise the current
// working directory (an absolute path).
func targetPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return os.Getwd()
}
