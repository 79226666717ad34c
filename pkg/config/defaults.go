package config

import (
	"os"
	"path/filepath"

	"github.com/btvault/bt/internal/bytesize"
	"github.com/google/uuid"
)

// GetDefaultConfig returns a fresh Config with every field set to its
// default value and a newly generated HostID. Used by `bt config init` and
// by Load when no config file exists.
func GetDefaultConfig() *Config {
	cfg := &Config{
		HostID: uuid.NewString(),
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields with sensible defaults. Called
// after unmarshaling a config file so that a partially-specified file still
// produces a usable Config.
func ApplyDefaults(cfg *Config) {
	if cfg.BaseDir == "" {
		cfg.BaseDir = defaultBaseDir()
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.BaseDir, "log")
	}
	if cfg.ChecksumBufferSize == 0 {
		cfg.ChecksumBufferSize = 8 * bytesize.MiB
	}
	// Concurrency's zero value already means "use runtime.NumCPU()" to the
	// backup service; no substitution needed here.
}

// defaultBaseDir returns ~/data/bt, falling back to ./data/bt if the home
// directory cannot be determined.
func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("data", "bt")
	}
	return filepath.Join(home, "data", "bt")
}
