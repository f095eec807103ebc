package graphcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadGraphFileDecodesAndValidates(t *testing.T) {
	path := writeFile(t, "graph.toml", `
[[operator]]
name = "root"
kind = "Root"
[[operator.outputs]]
kind = "coord"
id = 1

[[operator]]
name = "writer"
kind = "FiberWrite"
[[operator.inputs]]
kind = "coord"
id = 1
`)

	g, err := LoadGraphFile(path)
	require.NoError(t, err)
	require.Len(t, g.Operators, 2)
	require.Equal(t, "root", g.Operators[0].Name)
	require.Equal(t, KindRoot, g.Operators[0].Kind)
	require.Equal(t, StreamCoord, g.Operators[0].Outputs[0].Kind)
	require.Equal(t, uint32(1), g.Operators[0].Outputs[0].ID)
}

func TestLoadGraphFileRejectsStructurallyInvalidGraph(t *testing.T) {
	path := writeFile(t, "graph.toml", `
[[operator]]
name = "orphan"
kind = "FiberWrite"
[[operator.inputs]]
kind = "coord"
id = 9
`)

	_, err := LoadGraphFile(path)
	require.Error(t, err)
}

func TestLoadGraphFileRejectsMissingFile(t *testing.T) {
	_, err := LoadGraphFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoadRuntimeConfigFileAppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeFile(t, "runtime.toml", `
run_flavor_inference = true
workers = 3
`)

	cfg, err := LoadRuntimeConfigFile(path)
	require.NoError(t, err)
	require.True(t, cfg.RunFlavorInference)
	require.Equal(t, uint(3), cfg.Workers)
	require.Equal(t, uint64(50_000_000), cfg.MaxElapsedCycles)
	require.Equal(t, uint64(1), cfg.DefaultScanner.OutputLatency)
}

func TestLoadRuntimeConfigFileDecodesNestedTimingTables(t *testing.T) {
	path := writeFile(t, "runtime.toml", `
[scanner]
startup_delay = 10
output_latency = 2

[joiner]
stop_latency = 4
`)

	cfg, err := LoadRuntimeConfigFile(path)
	require.NoError(t, err)
	require.Equal(t, uint64(10), cfg.DefaultScanner.StartupDelay)
	require.Equal(t, uint64(2), cfg.DefaultScanner.OutputLatency)
	require.Equal(t, uint64(4), cfg.DefaultJoiner.StopLatency)
}
