package config

import (
	"bytes"

	"github.com/pelletier/go-toml/v2"
)

// marshalTOML renders cfg in the `[[vault]]`-block TOML shape SaveConfig
// writes to disk.
func marshalTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
