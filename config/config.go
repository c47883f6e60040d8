// Package config loads the pipeline configuration from YAML or HCL.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"qdeck/ops"
)

const (
	BackendSimulator = "simulator"
	BackendJSON      = "json"
	BackendQASM      = "qasm"
	BackendPrinter   = "printer"
	BackendResources = "resources"

	TopologyLinear = "linear"
	TopologyGrid   = "grid"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Log       *LogConfig       `yaml:"log" hcl:"log,block"`
	Optimizer *OptimizerConfig `yaml:"optimizer" hcl:"optimizer,block"`
	Rules     []string         `yaml:"rules" hcl:"rules,optional"`
	Filter    *FilterConfig    `yaml:"filter" hcl:"filter,block"`
	Mapper    *MapperConfig    `yaml:"mapper" hcl:"mapper,block"`
	Backend   *BackendConfig   `yaml:"backend" hcl:"backend,block"`
}

type LogConfig struct {
	Level       string `yaml:"level" hcl:"level,optional"`
	Development bool   `yaml:"development" hcl:"development,optional"`
}

type OptimizerConfig struct {
	CacheSize int `yaml:"cache_size" hcl:"cache_size,optional"`
}

// FilterConfig restricts the gates that reach the backend. A nil
// MaxControls allows any number of controls.
type FilterConfig struct {
	Gates       []string `yaml:"gates" hcl:"gates,optional"`
	MaxControls *int     `yaml:"max_controls" hcl:"max_controls,optional"`
}

type MapperConfig struct {
	Topology string `yaml:"topology" hcl:"topology,optional"`
	Qubits   int    `yaml:"qubits" hcl:"qubits,optional"`
	Rows     int    `yaml:"rows" hcl:"rows,optional"`
	Cols     int    `yaml:"cols" hcl:"cols,optional"`
	Cyclic   bool   `yaml:"cyclic" hcl:"cyclic,optional"`
}

type BackendConfig struct {
	Kind           string `yaml:"kind" hcl:"kind,optional"`
	Seed           *int64 `yaml:"seed" hcl:"seed,optional"`
	MatrixCache    *int   `yaml:"matrix_cache" hcl:"matrix_cache,optional"`
	DefaultMeasure bool   `yaml:"default_measure" hcl:"default_measure,optional"`
}

// Load reads a .yaml/.yml file with yaml.v2 and anything else as HCL
// (native or JSON syntax).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return parseHCL(data, path, true)
	default:
		return parseHCL(data, path, false)
	}
}

func ParseYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode yaml config")
	}
	return cfg, nil
}

func ParseHCL(data []byte, filename string) (*Config, error) {
	return parseHCL(data, filename, false)
}

func parseHCL(data []byte, filename string, json bool) (*Config, error) {
	parser := hclparse.NewParser()
	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if json {
		file, diags = parser.ParseJSON(data, filename)
	} else {
		file, diags = parser.ParseHCL(data, filename)
	}
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "parse %s", filename)
	}
	cfg := &Config{}
	if diags := gohcl.DecodeBody(file.Body, nil, cfg); diags.HasErrors() {
		return nil, errors.Wrapf(diags, "decode %s", filename)
	}
	return cfg, nil
}

// WithDefaults returns a copy with every unset block and field filled in.
// The mapper and filter stay disabled unless configured.
func (c *Config) WithDefaults() *Config {
	out := &Config{Rules: slices.Clone(c.Rules)}

	out.Log = &LogConfig{Level: "info"}
	if c.Log != nil {
		*out.Log = *c.Log
		if out.Log.Level == "" {
			out.Log.Level = "info"
		}
	}

	out.Optimizer = &OptimizerConfig{CacheSize: 10}
	if c.Optimizer != nil && c.Optimizer.CacheSize > 0 {
		out.Optimizer.CacheSize = c.Optimizer.CacheSize
	}

	if c.Filter != nil {
		f := *c.Filter
		f.Gates = slices.Clone(f.Gates)
		out.Filter = &f
	}

	if c.Mapper != nil {
		m := *c.Mapper
		if m.Topology == "" {
			m.Topology = TopologyLinear
		}
		out.Mapper = &m
	}

	out.Backend = &BackendConfig{Kind: BackendSimulator}
	if c.Backend != nil {
		*out.Backend = *c.Backend
		if out.Backend.Kind == "" {
			out.Backend.Kind = BackendSimulator
		}
	}
	if out.Backend.MatrixCache == nil {
		size := 64
		out.Backend.MatrixCache = &size
	}
	return out
}

// Validate checks names and sizes. It expects a config with defaults.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendSimulator, BackendJSON, BackendQASM, BackendPrinter, BackendResources:
	default:
		return errors.Wrapf(ErrInvalid, "unknown backend %q", c.Backend.Kind)
	}
	if c.Filter != nil {
		if _, err := c.Filter.Kinds(); err != nil {
			return err
		}
	}
	if m := c.Mapper; m != nil {
		switch m.Topology {
		case TopologyLinear:
			if m.Qubits < 1 {
				return errors.Wrap(ErrInvalid, "linear mapper needs qubits >= 1")
			}
		case TopologyGrid:
			if m.Rows < 1 || m.Cols < 1 {
				return errors.Wrap(ErrInvalid, "grid mapper needs rows and cols >= 1")
			}
		default:
			return errors.Wrapf(ErrInvalid, "unknown topology %q", m.Topology)
		}
	}
	return nil
}

// Kinds resolves the configured gate names.
func (f *FilterConfig) Kinds() ([]ops.Kind, error) {
	kinds := make([]ops.Kind, 0, len(f.Gates))
	for _, name := range f.Gates {
		k, ok := ops.KindByName(name)
		if !ok {
			return nil, errors.Wrapf(ErrInvalid, "unknown gate %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
