package graphcfg

import (
	"fmt"

	"github.com/BurntSushi/toml"

	comal "github.com/stanford-ppl/comal-go"
)

// LoadGraphFile decodes a TOML graph description from path (spec §6.1).
// The on-disk format the reference loader historically spoke is a binary
// schema; TOML is the text-based front end this implementation exposes,
// following the ambient config format the rest of the runtime uses.
func LoadGraphFile(path string) (*Graph, error) {
	var g Graph
	if _, err := toml.DecodeFile(path, &g); err != nil {
		return nil, fmt.Errorf("graphcfg: decode %s: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// LoadRuntimeConfigFile decodes a TOML runtime configuration file (spec
// §6.3) into a comal.RuntimeConfig, applying the same defaults
// comal.NewRuntimeConfig does for any field the file omits.
func LoadRuntimeConfigFile(path string) (*comal.RuntimeConfig, error) {
	cfg := comal.DefaultRuntimeConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("graphcfg: decode %s: %w", path, err)
	}
	if err := comal.ValidateRuntimeConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
