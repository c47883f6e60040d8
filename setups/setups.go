// Package setups assembles engine chains from configuration.
package setups

import (
	"io"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"qdeck/backends"
	"qdeck/config"
	"qdeck/decompositions"
	"qdeck/engine"
	"qdeck/sim"
)

// Setup is a linked chain ready to accept qubits.
type Setup struct {
	Main    *engine.MainEngine
	Backend engine.Engine
	// Mapper is nil unless a topology is configured.
	Mapper *engine.Mapper
}

type options struct {
	out    io.Writer
	logger *zap.Logger
	reg    prometheus.Registerer
}

type Option func(*options)

// WithOutput sets the writer of the printer backend.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegisterer registers the resource counter metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.reg = reg }
}

// Build links TagRemover, LocalOptimizer, AutoReplacer, an optional
// InstructionFilter, a second LocalOptimizer, an optional Mapper and the
// configured backend.
func Build(cfg *config.Config, opts ...Option) (*Setup, error) {
	o := &options{out: io.Discard, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rules, err := decompositions.Standard().RuleSet(cfg.Rules...)
	if err != nil {
		return nil, errors.Wrap(err, "build rule set")
	}
	backend, err := newBackend(cfg.Backend, o)
	if err != nil {
		return nil, err
	}

	chain := []engine.Engine{
		engine.NewTagRemover(),
		engine.NewLocalOptimizer(cfg.Optimizer.CacheSize),
		engine.NewAutoReplacer(rules),
	}
	if cfg.Filter != nil && len(cfg.Filter.Gates) > 0 {
		kinds, err := cfg.Filter.Kinds()
		if err != nil {
			return nil, err
		}
		maxControls := -1
		if cfg.Filter.MaxControls != nil {
			maxControls = *cfg.Filter.MaxControls
		}
		chain = append(chain, engine.NewInstructionFilter(engine.GateFilter(kinds, maxControls)))
	}
	chain = append(chain, engine.NewLocalOptimizer(cfg.Optimizer.CacheSize))

	s := &Setup{Backend: backend}
	if cfg.Mapper != nil {
		s.Mapper = engine.NewMapper(topology(cfg.Mapper))
		chain = append(chain, s.Mapper)
	}

	s.Main, err = engine.NewMainEngine(backend, chain, engine.WithLogger(o.logger))
	if err != nil {
		return nil, errors.Wrap(err, "link engines")
	}
	o.logger.Debug("built setup",
		zap.String("backend", cfg.Backend.Kind),
		zap.Int("engines", len(chain)+1),
		zap.Int("rules", rules.Len()),
	)
	return s, nil
}

// Default builds the standard chain over a simulator with every built-in
// rule enabled.
func Default(opts ...Option) (*Setup, error) {
	return Build(&config.Config{}, opts...)
}

func newBackend(cfg *config.BackendConfig, o *options) (engine.Engine, error) {
	switch cfg.Kind {
	case config.BackendSimulator:
		simOpts := []sim.Option{sim.WithMatrixCache(*cfg.MatrixCache), sim.WithLogger(o.logger)}
		if cfg.Seed != nil {
			simOpts = append(simOpts, sim.WithSeed(*cfg.Seed))
		}
		return sim.New(simOpts...), nil
	case config.BackendJSON:
		return backends.NewJSONBackend(), nil
	case config.BackendQASM:
		return backends.NewQASMBackend(), nil
	case config.BackendPrinter:
		p := backends.NewCommandPrinter(o.out)
		p.DefaultMeasure = cfg.DefaultMeasure
		return p, nil
	case config.BackendResources:
		r := backends.NewResourceCounter()
		if o.reg != nil {
			if err := r.Register(o.reg); err != nil {
				return nil, errors.Wrap(err, "register resource metrics")
			}
		}
		return r, nil
	}
	return nil, errors.Wrapf(config.ErrInvalid, "unknown backend %q", cfg.Kind)
}

func topology(cfg *config.MapperConfig) engine.Topology {
	if cfg.Topology == config.TopologyGrid {
		return engine.Grid{Rows: cfg.Rows, Cols: cfg.Cols}
	}
	return engine.LinearChain{N: cfg.Qubits, Cyclic: cfg.Cyclic}
}
