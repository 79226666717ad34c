// Package config loads and validates the bt configuration file: host
// identity, the base data directory, ignore patterns, and the set of
// configured vaults.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (BT_*)
//  2. Configuration file (TOML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/btvault/bt/internal/bytesize"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the top-level bt configuration.
type Config struct {
	// HostID uniquely identifies this host's backups within a vault's shared
	// metadata namespace. Generated once by `bt config init`.
	HostID string `mapstructure:"host_id" yaml:"host_id" toml:"host_id" validate:"required,uuid"`

	// BaseDir is the root of this host's local state: metadata.db, the
	// staging area, the WAL queue, and logs.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir" toml:"base_dir" validate:"required"`

	// LogDir overrides where log files are written. Defaults to
	// <base_dir>/log if empty.
	LogDir string `mapstructure:"log_dir" yaml:"log_dir" toml:"log_dir"`

	// IgnoreList holds gitignore-style glob patterns applied globally, in
	// addition to any per-directory .btignore files.
	IgnoreList []string `mapstructure:"ignore_list" yaml:"ignore_list" toml:"ignore_list"`

	// Concurrency bounds the staging worker pool. Zero means
	// runtime.NumCPU().
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency" toml:"concurrency" validate:"gte=0"`

	// ChecksumBufferSize is the buffer used to stream a file through the
	// digest and staging copy.
	ChecksumBufferSize bytesize.ByteSize `mapstructure:"checksum_buffer_size" yaml:"checksum_buffer_size" toml:"checksum_buffer_size" validate:"required"`

	// Vaults lists the storage backends content and metadata are uploaded
	// to. At least one is required to run `bt backup`.
	Vaults []VaultConfig `mapstructure:"vault" yaml:"vault" toml:"vault" validate:"dive"`
}

// VaultConfig is one `[[vault]]` TOML block.
type VaultConfig struct {
	Name string `mapstructure:"name" yaml:"name" toml:"name" validate:"required"`
	Kind string `mapstructure:"kind" yaml:"kind" toml:"kind" validate:"required,oneof=fs s3"`

	FS *VaultFSConfig `mapstructure:"fs" yaml:"fs,omitempty" toml:"fs,omitempty"`
	S3 *VaultS3Config `mapstructure:"s3" yaml:"s3,omitempty" toml:"s3,omitempty"`
}

// VaultFSConfig configures a filesystem-backed vault.
type VaultFSConfig struct {
	BasePath string `mapstructure:"base_path" yaml:"base_path" toml:"base_path" validate:"required"`
}

// VaultS3Config configures an S3-backed vault.
type VaultS3Config struct {
	Bucket         string `mapstructure:"bucket" yaml:"bucket" toml:"bucket" validate:"required"`
	Region         string `mapstructure:"region" yaml:"region" toml:"region" validate:"required"`
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"`
	KeyPrefix      string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty" toml:"key_prefix,omitempty"`
	ForcePathStyle bool   `mapstructure:"force_path_style" yaml:"force_path_style,omitempty" toml:"force_path_style,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// configPath is the path to a config file; an empty string uses the default
// location ($XDG_CONFIG_HOME/bt.toml, falling back to ~/.config/bt.toml).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := GetDefaultConfig()
		ApplyDefaults(cfg)
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, returning a friendly error with setup
// instructions if no config file exists at the resolved path.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize one first:\n"+
				"  bt config init\n\n"+
				"Or point at an existing config:\n"+
				"  bt <command> --config /path/to/bt.toml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create it:\n"+
			"  bt config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in TOML format, creating parent directories
// as needed. The file is written with 0600 permissions since vault
// credentials may live alongside it via environment-derived fields.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := marshalTOML(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// RenderYAML renders cfg as YAML, used by `bt config list -o yaml`.
func RenderYAML(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// setupViper wires environment-variable overrides and config-file search
// paths.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("BT")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(getConfigDir())
	v.SetConfigName("bt")
	v.SetConfigType("toml")
}

// readConfigFile reads the configuration file if present. The bool return
// reports whether a file was found; a missing file is not an error.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks composes the custom mapstructure decode hooks used when
// unmarshaling into Config.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(byteSizeDecodeHook())
}

// byteSizeDecodeHook converts strings and numbers into bytesize.ByteSize so
// config files can write human-readable sizes like "8MiB".
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// Validate checks cfg against its struct tags and a handful of
// cross-field rules the tags can't express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	for _, vc := range cfg.Vaults {
		switch vc.Kind {
		case "fs":
			if vc.FS == nil {
				return fmt.Errorf("vault %q: kind=fs requires a [vault.fs] block", vc.Name)
			}
		case "s3":
			if vc.S3 == nil {
				return fmt.Errorf("vault %q: kind=s3 requires a [vault.s3] block", vc.Name)
			}
		}
	}
	return nil
}

// getConfigDir returns the directory bt's config file lives in, honoring
// XDG_CONFIG_HOME and falling back to the current directory if the home
// directory cannot be determined.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "bt.toml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
