package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFileExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.NotEmpty(t, cfg.HostID)
	require.NotEmpty(t, cfg.BaseDir)
	require.Equal(t, 8*1024*1024, int(cfg.ChecksumBufferSize))
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bt.toml")

	content := `
host_id = "11111111-1111-1111-1111-111111111111"
base_dir = "` + filepath.ToSlash(tmpDir) + `/data"
concurrency = 4
checksum_buffer_size = "4MiB"

[[vault]]
name = "local"
kind = "fs"

[vault.fs]
base_path = "` + filepath.ToSlash(tmpDir) + `/vault"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.Equal(t, "11111111-1111-1111-1111-111111111111", cfg.HostID)
	require.Equal(t, 4, cfg.Concurrency)
	require.Equal(t, 4*1024*1024, int(cfg.ChecksumBufferSize))
	require.Len(t, cfg.Vaults, 1)
	require.Equal(t, "fs", cfg.Vaults[0].Kind)
	require.NotNil(t, cfg.Vaults[0].FS)
}

func TestValidateRejectsMismatchedVaultKind(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Vaults = []VaultConfig{{Name: "bad", Kind: "s3"}}
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateRejectsMissingHostID(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.HostID = ""
	err := Validate(cfg)
	require.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "bt.toml")

	cfg := GetDefaultConfig()
	cfg.Vaults = []VaultConfig{{
		Name: "local",
		Kind: "fs",
		FS:   &VaultFSConfig{BasePath: filepath.Join(tmpDir, "vault")},
	}}

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.HostID, loaded.HostID)
	require.Len(t, loaded.Vaults, 1)
	require.Equal(t, "local", loaded.Vaults[0].Name)
}

func TestRenderYAML(t *testing.T) {
	cfg := GetDefaultConfig()
	out, err := RenderYAML(cfg)
	require.NoError(t, err)
	require.Contains(t, string(out), "host_id:")
}
