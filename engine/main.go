package engine

import (
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qdeck/ops"
)

// Modifier rewrites a command emitted from inside a scope. Returning false
// swallows the command.
type Modifier func(cmd ops.Command) (ops.Command, bool, error)

// mappingProvider is implemented by engines that remap qubit ids.
type mappingProvider interface {
	CurrentMapping() map[ops.QubitID]ops.QubitID
}

// MainEngine is the dispatch core. It owns the engine chain, hands out qubit
// ids and records measurement results reported by the backend.
type MainEngine struct {
	engines []Engine
	backend Engine
	mapper  mappingProvider
	logger  *zap.Logger
	id      string

	nextID  ops.QubitID
	active  map[ops.QubitID]*Qubit
	results map[ops.QubitID]bool
	mods    []Modifier
}

// Option configures a MainEngine.
type Option func(*MainEngine)

// WithLogger sets the logger shared by every engine of the chain.
func WithLogger(logger *zap.Logger) Option {
	return func(m *MainEngine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMainEngine links engines followed by backend into a chain.
func NewMainEngine(backend Engine, engines []Engine, opts ...Option) (*MainEngine, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}
	m := &MainEngine{
		backend: backend,
		logger:  zap.NewNop(),
		id:      uuid.NewString(),
		active:  make(map[ops.QubitID]*Qubit),
		results: make(map[ops.QubitID]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("run", m.id))

	chain := append(slices.Clone(engines), backend)
	seen := make(map[Engine]bool, len(chain))
	for i, e := range chain {
		if e == nil {
			return nil, errors.Errorf("engine %d is nil", i)
		}
		if seen[e] || e.base().main != nil {
			return nil, errors.Wrapf(ErrEngineReused, "engine %d", i)
		}
		seen[e] = true
	}
	for i, e := range chain {
		b := e.base()
		b.main = m
		if i+1 < len(chain) {
			b.next = chain[i+1]
		}
		if mp, ok := e.(mappingProvider); ok && m.mapper == nil {
			m.mapper = mp
		}
	}
	m.engines = chain
	m.logger.Debug("engine chain linked", zap.Int("engines", len(chain)))
	return m, nil
}

// ID returns the run id attached to every log line of this engine.
func (m *MainEngine) ID() string { return m.id }

// Logger returns the chain logger.
func (m *MainEngine) Logger() *zap.Logger { return m.logger }

// Backend returns the terminal engine.
func (m *MainEngine) Backend() Engine { return m.backend }

// Mapping returns the logical to physical mapping of the first mapper in the
// chain.
func (m *MainEngine) Mapping() (map[ops.QubitID]ops.QubitID, bool) {
	if m.mapper == nil {
		return nil, false
	}
	return m.mapper.CurrentMapping(), true
}

// AllocateQubit allocates one qubit in |0>.
func (m *MainEngine) AllocateQubit() (*Qubit, error) {
	id := m.nextID
	m.nextID++
	q := &Qubit{id: id, eng: m}
	m.active[id] = q
	if err := m.Emit(ops.MustCommand(ops.Allocate, [][]ops.QubitID{{id}})); err != nil {
		delete(m.active, id)
		return nil, errors.Wrapf(err, "allocate qubit %d", id)
	}
	return q, nil
}

// AllocateQureg allocates n qubits.
func (m *MainEngine) AllocateQureg(n int) (Qureg, error) {
	reg := make(Qureg, 0, n)
	for range n {
		q, err := m.AllocateQubit()
		if err != nil {
			return reg, err
		}
		reg = append(reg, q)
	}
	return reg, nil
}

// WithQureg allocates n qubits, runs fn, and releases the register on every
// exit path.
func (m *MainEngine) WithQureg(n int, fn func(Qureg) error) (err error) {
	reg, err := m.AllocateQureg(n)
	defer func() {
		if rerr := reg.Release(); err == nil {
			err = rerr
		}
	}()
	if err != nil {
		return err
	}
	return fn(reg)
}

// Apply sends gate acting on one target group per register.
func (m *MainEngine) Apply(gate ops.Gate, regs ...Register) error {
	return m.ApplyControlled(gate, nil, regs...)
}

// ApplyControlled sends gate conditioned on every qubit of controls.
func (m *MainEngine) ApplyControlled(gate ops.Gate, controls Register, regs ...Register) error {
	groups := make([][]ops.QubitID, len(regs))
	for i, r := range regs {
		ids, err := m.ids(r)
		if err != nil {
			return err
		}
		groups[i] = ids
	}
	var ctrls []ops.QubitID
	if controls != nil {
		ids, err := m.ids(controls)
		if err != nil {
			return err
		}
		ctrls = ids
	}
	cmd, err := ops.NewCommand(gate, groups, ctrls...)
	if err != nil {
		return errors.Wrapf(err, "apply %s", gate)
	}
	return m.Emit(cmd)
}

// ApplyAll sends gate once per qubit of reg.
func (m *MainEngine) ApplyAll(gate ops.Gate, reg Register) error {
	for _, q := range reg.Qubits() {
		if err := m.Apply(gate, q); err != nil {
			return err
		}
	}
	return nil
}

// Measure sends a measurement for every qubit of the registers.
func (m *MainEngine) Measure(regs ...Register) error {
	for _, r := range regs {
		if err := m.ApplyAll(ops.Measure, r); err != nil {
			return err
		}
	}
	return nil
}

// Result flushes the pipeline and returns the last measurement of q.
func (m *MainEngine) Result(q *Qubit) (bool, error) {
	if q.eng != m {
		return false, ErrForeignQubit
	}
	if err := m.Flush(false); err != nil {
		return false, err
	}
	v, ok := m.results[q.id]
	if !ok {
		return false, errors.Wrapf(ErrNotMeasured, "qubit %d", q.id)
	}
	return v, nil
}

// SetMeasurementResult records an outcome reported by a backend.
func (m *MainEngine) SetMeasurementResult(id ops.QubitID, value bool) {
	m.results[id] = value
}

// ActiveQubits returns the ids of all unreleased qubits in ascending order.
func (m *MainEngine) ActiveQubits() []ops.QubitID {
	return slices.Sorted(maps.Keys(m.active))
}

// Flush optionally releases every live qubit and then sends the flush
// sentinel through the chain.
func (m *MainEngine) Flush(deallocate bool) error {
	if deallocate {
		for _, id := range m.ActiveQubits() {
			if err := m.active[id].Release(); err != nil {
				return err
			}
		}
	}
	return m.send(ops.MustCommand(ops.Flush, [][]ops.QubitID{{ops.FlushID}}))
}

// PushModifier opens a scope whose modifier sees every command emitted until
// the matching PopModifier.
func (m *MainEngine) PushModifier(mod Modifier) {
	m.mods = append(m.mods, mod)
}

// PopModifier closes the innermost scope.
func (m *MainEngine) PopModifier() {
	if len(m.mods) > 0 {
		m.mods = m.mods[:len(m.mods)-1]
	}
}

// Emit passes cmds through the open scopes, innermost first, and sends what
// survives into the chain.
func (m *MainEngine) Emit(cmds ...ops.Command) error {
	for _, cmd := range cmds {
		keep := true
		for i := len(m.mods) - 1; i >= 0 && keep; i-- {
			var err error
			cmd, keep, err = m.mods[i](cmd)
			if err != nil {
				return err
			}
		}
		if !keep {
			continue
		}
		if err := m.send(cmd); err != nil {
			return err
		}
	}
	return nil
}

// send dispatches cmd. A deallocated qubit is retired only once the chain
// has accepted its Deallocate, so a rejected release leaves the handle live.
func (m *MainEngine) send(cmd ops.Command) error {
	m.logger.Debug("dispatch", zap.Stringer("cmd", cmd))
	if err := m.engines[0].Receive([]ops.Command{cmd}); err != nil {
		return err
	}
	if cmd.Gate.Kind() == ops.KindDeallocate {
		for _, id := range cmd.Targets() {
			if q, ok := m.active[id]; ok {
				q.released = true
				delete(m.active, id)
			}
		}
	}
	return nil
}

func (m *MainEngine) ids(r Register) ([]ops.QubitID, error) {
	qs := r.Qubits()
	ids := make([]ops.QubitID, len(qs))
	for i, q := range qs {
		if q.eng != m {
			return nil, errors.Wrapf(ErrForeignQubit, "qubit %d", q.id)
		}
		if q.released {
			return nil, errors.Wrapf(ErrQubitReleased, "qubit %d", q.id)
		}
		ids[i] = q.id
	}
	return ids, nil
}
