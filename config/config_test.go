package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"qdeck/ops"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "qdeck.yaml", `
log:
  level: debug
optimizer:
  cache_size: 4
rules: [diag2ucr, swap2cnot]
filter:
  gates: [H, X, rz]
  max_controls: 1
mapper:
  topology: grid
  rows: 2
  cols: 3
backend:
  kind: qasm
  seed: 7
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	cfg = cfg.WithDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Optimizer.CacheSize)
	assert.Equal(t, []string{"diag2ucr", "swap2cnot"}, cfg.Rules)
	require.NotNil(t, cfg.Filter.MaxControls)
	assert.Equal(t, 1, *cfg.Filter.MaxControls)
	kinds, err := cfg.Filter.Kinds()
	require.NoError(t, err)
	assert.Equal(t, []ops.Kind{ops.KindH, ops.KindX, ops.KindRz}, kinds)
	assert.Equal(t, &MapperConfig{Topology: TopologyGrid, Rows: 2, Cols: 3}, cfg.Mapper)
	assert.Equal(t, BackendQASM, cfg.Backend.Kind)
	require.NotNil(t, cfg.Backend.Seed)
	assert.EqualValues(t, 7, *cfg.Backend.Seed)
	assert.Equal(t, 64, *cfg.Backend.MatrixCache)
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "qdeck.yml", "backend:\n  knd: json\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadHCL(t *testing.T) {
	path := writeFile(t, "qdeck.hcl", `
rules = ["ucr2cnot"]

log {
  level       = "warn"
  development = true
}

mapper {
  qubits = 5
  cyclic = true
}

backend {
  kind            = "printer"
  default_measure = true
  matrix_cache    = 0
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	cfg = cfg.WithDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, 10, cfg.Optimizer.CacheSize)
	assert.Nil(t, cfg.Filter)
	assert.Equal(t, &MapperConfig{Topology: TopologyLinear, Qubits: 5, Cyclic: true}, cfg.Mapper)
	assert.Equal(t, BackendPrinter, cfg.Backend.Kind)
	assert.True(t, cfg.Backend.DefaultMeasure)
	assert.Equal(t, 0, *cfg.Backend.MatrixCache)
	assert.Nil(t, cfg.Backend.Seed)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "qdeck.json", `{"backend": {"kind": "json"}, "optimizer": {"cache_size": 3}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	cfg = cfg.WithDefaults()
	assert.Equal(t, BackendJSON, cfg.Backend.Kind)
	assert.Equal(t, 3, cfg.Optimizer.CacheSize)
}

func TestLoadHCLErrors(t *testing.T) {
	_, err := Load(writeFile(t, "bad.hcl", "backend {"))
	assert.ErrorContains(t, err, "parse")

	_, err = Load(writeFile(t, "bad.hcl", "nope = 1"))
	assert.ErrorContains(t, err, "decode")

	_, err = Load(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.ErrorContains(t, err, "read config")
}

func TestWithDefaults(t *testing.T) {
	cfg := (&Config{}).WithDefaults()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Optimizer.CacheSize)
	assert.Equal(t, BackendSimulator, cfg.Backend.Kind)
	assert.Equal(t, 64, *cfg.Backend.MatrixCache)
	assert.Nil(t, cfg.Mapper)
	assert.Nil(t, cfg.Filter)
	assert.NoError(t, cfg.Validate())

	orig := &Config{Rules: []string{"a"}, Filter: &FilterConfig{Gates: []string{"H"}}}
	out := orig.WithDefaults()
	out.Rules[0] = "b"
	out.Filter.Gates[0] = "X"
	assert.Equal(t, "a", orig.Rules[0])
	assert.Equal(t, "H", orig.Filter.Gates[0])
}

func TestValidate(t *testing.T) {
	cases := map[string]*Config{
		"backend":  {Backend: &BackendConfig{Kind: "quantum-cloud"}},
		"gate":     {Filter: &FilterConfig{Gates: []string{"Fredkin"}}},
		"topology": {Mapper: &MapperConfig{Topology: "ring"}},
		"linear":   {Mapper: &MapperConfig{Topology: TopologyLinear}},
		"grid":     {Mapper: &MapperConfig{Topology: TopologyGrid, Rows: 2}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, cfg.WithDefaults().Validate(), ErrInvalid)
		})
	}
}

func TestCreateLogger(t *testing.T) {
	logger, err := (&LogConfig{Level: "debug"}).CreateLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = (&LogConfig{Level: "error", Development: true}).CreateLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = (&LogConfig{Level: "loud"}).CreateLogger()
	assert.ErrorIs(t, err, ErrInvalid)
}
