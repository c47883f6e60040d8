// Package sim is a dense state-vector simulator. It is a terminal engine: it
// executes every command it receives and reports measurement outcomes back
// to the main engine.
package sim

import (
	"math"
	"math/rand"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qdeck/engine"
	"qdeck/ops"
)

var (
	ErrWavefunctionSize = errors.New("wavefunction length must be 2^len(ids)")
	ErrWavefunctionNorm = errors.New("wavefunction is not normalized")
	ErrNotClassical     = errors.New("qubit is not in a classical state")
	ErrUnknownQubit     = errors.New("qubit is not allocated")
	ErrQuregMismatch    = errors.New("qubits do not match the simulator state")
	ErrImpossible       = errors.New("outcome has zero probability")
)

const (
	// DefaultMatrixCache is the number of gate matrices kept by default.
	DefaultMatrixCache = 64

	classicalTolerance = 1e-12
	normTolerance      = 1e-10
)

// Simulator executes commands on a state vector.
type Simulator struct {
	engine.Base

	state  *StateVector
	pos    map[ops.QubitID]int
	rng    *rand.Rand
	cache  *lru.Cache[string, ops.Matrix]
	logger *zap.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRand sets the random source used for measurement.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithSeed seeds a private random source.
func WithSeed(seed int64) Option {
	return func(s *Simulator) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithMatrixCache sets the size of the gate matrix cache. Zero disables it.
func WithMatrixCache(size int) Option {
	return func(s *Simulator) {
		s.cache = nil
		if size > 0 {
			s.cache, _ = lru.New[string, ops.Matrix](size)
		}
	}
}

// WithLogger overrides the logger inherited from the main engine.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) { s.logger = logger }
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		state: newStateVector(),
		pos:   make(map[ops.QubitID]int),
	}
	s.cache, _ = lru.New[string, ops.Matrix](DefaultMatrixCache)
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

func (s *Simulator) log() *zap.Logger {
	if s.logger != nil {
		return s.logger
	}
	return s.Logger()
}

// IsAvailable reports true for every command: unitaries without a kernel
// fall back to their dense matrix.
func (s *Simulator) IsAvailable(cmd ops.Command) bool {
	if ops.IsStructural(cmd.Gate) {
		return true
	}
	_, err := ops.MatrixOf(cmd.Gate)
	return err == nil
}

func (s *Simulator) Receive(cmds []ops.Command) error {
	for _, cmd := range cmds {
		if err := s.handle(cmd); err != nil {
			return errors.Wrapf(err, "simulate %s", cmd)
		}
	}
	return nil
}

func (s *Simulator) handle(cmd ops.Command) error {
	switch cmd.Gate.Kind() {
	case ops.KindFlush, ops.KindBarrier:
		return nil
	case ops.KindAllocate:
		for _, id := range cmd.Targets() {
			if err := s.allocate(id); err != nil {
				return err
			}
		}
		return nil
	case ops.KindDeallocate:
		for _, id := range cmd.Targets() {
			if err := s.deallocate(id); err != nil {
				return err
			}
		}
		return nil
	case ops.KindMeasure:
		targets := cmd.Targets()
		values, err := s.measure(targets)
		if err != nil {
			return err
		}
		logical, tagged := cmd.LogicalID()
		for i, id := range targets {
			if tagged && len(targets) == 1 {
				id = logical
			}
			s.report(id, values[i])
		}
		return nil
	}
	return s.apply(cmd)
}

func (s *Simulator) allocate(id ops.QubitID) error {
	if _, ok := s.pos[id]; ok {
		return errors.Errorf("qubit %d already allocated", id)
	}
	s.pos[id] = len(s.pos)
	s.state.grow()
	return nil
}

func (s *Simulator) deallocate(id ops.QubitID) error {
	p, ok := s.pos[id]
	if !ok {
		return errors.Wrapf(ErrUnknownQubit, "qubit %d", id)
	}
	one := s.state.probabilityOne(1 << p)
	var value bool
	switch {
	case math.Abs(one) < classicalTolerance:
	case math.Abs(one-1) < classicalTolerance:
		value = true
	default:
		return errors.Wrapf(ErrNotClassical, "qubit %d has P(1)=%g", id, one)
	}
	s.state.shrink(p, value)
	delete(s.pos, id)
	for q, qp := range s.pos {
		if qp > p {
			s.pos[q] = qp - 1
		}
	}
	return nil
}

// measure draws one basis state for the joint distribution of ids and
// collapses onto it.
func (s *Simulator) measure(ids []ops.QubitID) ([]bool, error) {
	positions, err := s.positions(ids)
	if err != nil {
		return nil, err
	}
	total := 0.0
	picked := -1
	for i, amp := range s.state.Amplitudes {
		if p := norm(amp); p > 0 {
			total += p
			picked = i
		}
	}
	if picked < 0 {
		return nil, errors.Wrap(ErrImpossible, "state has zero norm")
	}
	// r is drawn against the actual norm, which may drift from 1.
	r := s.rng.Float64() * total
	acc := 0.0
	for i, amp := range s.state.Amplitudes {
		acc += norm(amp)
		if r < acc {
			picked = i
			break
		}
	}
	mask, value := 0, 0
	values := make([]bool, len(ids))
	for i, p := range positions {
		mask |= 1 << p
		if picked>>p&1 == 1 {
			value |= 1 << p
			values[i] = true
		}
	}
	if s.state.project(mask, value) == 0 {
		return nil, errors.Wrapf(ErrImpossible, "outcome %v", values)
	}
	return values, nil
}

func (s *Simulator) report(id ops.QubitID, value bool) {
	s.log().Debug("measured", zap.Int("qubit", int(id)), zap.Bool("value", value))
	if m := s.Main(); m != nil {
		m.SetMeasurementResult(id, value)
	}
}

// positions translates physical ids to state bit positions.
func (s *Simulator) positions(ids []ops.QubitID) ([]int, error) {
	out := make([]int, len(ids))
	for i, id := range ids {
		p, ok := s.pos[id]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownQubit, "qubit %d", id)
		}
		out[i] = p
	}
	return out, nil
}

func (s *Simulator) controlMask(ids []ops.QubitID) (int, error) {
	positions, err := s.positions(ids)
	if err != nil {
		return 0, err
	}
	mask := 0
	for _, p := range positions {
		mask |= 1 << p
	}
	return mask, nil
}

// apply dispatches a unitary to its kernel. Single qubit gates given several
// targets act on each of them.
func (s *Simulator) apply(cmd ops.Command) error {
	ctrl, err := s.controlMask(cmd.Controls)
	if err != nil {
		return err
	}
	targets, err := s.positions(cmd.Targets())
	if err != nil {
		return err
	}

	switch g := cmd.Gate.(type) {
	case ops.FixedGate:
		if g.Kind() == ops.KindSwap {
			if len(targets) != 2 {
				return errors.Wrapf(ErrQuregMismatch, "swap needs 2 targets, got %d", len(targets))
			}
			s.state.applySwap(1<<targets[0], 1<<targets[1], ctrl)
			return nil
		}
		for _, t := range targets {
			if err := s.applyFixed(g, 1<<t, ctrl); err != nil {
				return err
			}
		}
		return nil
	case ops.Rotation:
		if g.Kind() == ops.KindPh {
			s.state.applyPhase(ctrl, phase(g.Angle))
			return nil
		}
		for _, t := range targets {
			s.applyRotation(g, 1<<t, ctrl)
		}
		return nil
	case ops.DiagonalGate:
		if len(g.Phases) != 1<<len(targets) {
			return errors.Wrapf(ErrQuregMismatch, "%d phases on %d qubits", len(g.Phases), len(targets))
		}
		s.state.applyDiagonal(targets, ctrl, g.Phases)
		return nil
	case ops.UniformlyControlledRotation:
		if len(targets) == 0 {
			return errors.Wrap(ErrQuregMismatch, "uniformly controlled rotation without target")
		}
		uniform := targets[:len(targets)-1]
		if len(g.Angles) != 1<<len(uniform) {
			return errors.Wrapf(ErrQuregMismatch, "%d angles for %d uniform controls", len(g.Angles), len(uniform))
		}
		rots := make([][2][2]complex128, len(g.Angles))
		for k, a := range g.Angles {
			r, _ := ops.NewRotation(g.Axis(), a)
			m, _ := ops.MatrixOf(r)
			rots[k] = rotation2(m)
		}
		s.state.applyUniform(uniform, 1<<targets[len(targets)-1], ctrl, rots)
		return nil
	}

	m, err := s.matrix(cmd.Gate)
	if err != nil {
		return err
	}
	if m.Dim() == 2 {
		for _, t := range targets {
			s.state.apply2(1<<t, ctrl, rotation2(m))
		}
		return nil
	}
	if m.Dim() != 1<<len(targets) {
		return errors.Wrapf(ErrQuregMismatch, "%dx%d matrix on %d qubits", m.Dim(), m.Dim(), len(targets))
	}
	s.state.applyMatrix(targets, ctrl, m)
	return nil
}

func (s *Simulator) applyFixed(g ops.FixedGate, bit, ctrl int) error {
	switch g.Kind() {
	case ops.KindH:
		s.state.applyH(bit, ctrl)
	case ops.KindX:
		s.state.applyX(bit, ctrl)
	case ops.KindY:
		s.state.applyY(bit, ctrl)
	case ops.KindZ:
		s.state.applyDiag(bit, ctrl, 1, -1)
	case ops.KindS:
		s.state.applyDiag(bit, ctrl, 1, 1i)
	case ops.KindSdg:
		s.state.applyDiag(bit, ctrl, 1, -1i)
	case ops.KindT:
		s.state.applyDiag(bit, ctrl, 1, phase(math.Pi/4))
	case ops.KindTdg:
		s.state.applyDiag(bit, ctrl, 1, phase(-math.Pi/4))
	default:
		m, err := s.matrix(g)
		if err != nil {
			return err
		}
		s.state.apply2(bit, ctrl, rotation2(m))
	}
	return nil
}

func (s *Simulator) applyRotation(g ops.Rotation, bit, ctrl int) {
	c, sn := math.Cos(g.Angle/2), math.Sin(g.Angle/2)
	switch g.Kind() {
	case ops.KindRx:
		s.state.apply2(bit, ctrl, [2][2]complex128{
			{complex(c, 0), complex(0, -sn)},
			{complex(0, -sn), complex(c, 0)},
		})
	case ops.KindRy:
		s.state.apply2(bit, ctrl, [2][2]complex128{
			{complex(c, 0), complex(-sn, 0)},
			{complex(sn, 0), complex(c, 0)},
		})
	case ops.KindRz:
		s.state.applyDiag(bit, ctrl, phase(-g.Angle/2), phase(g.Angle/2))
	case ops.KindR:
		s.state.applyDiag(bit, ctrl, 1, phase(g.Angle))
	}
}

// matrix returns the dense matrix of g, cached by its text. Matrix gates are
// used as is since different matrices share the same text.
func (s *Simulator) matrix(g ops.Gate) (ops.Matrix, error) {
	if mg, ok := g.(ops.MatrixGate); ok {
		return mg.M, nil
	}
	key := g.String()
	if s.cache != nil {
		if m, ok := s.cache.Get(key); ok {
			return m, nil
		}
	}
	m, err := ops.MatrixOf(g)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(key, m)
	}
	return m, nil
}

func phase(theta float64) complex128 {
	return complex(math.Cos(theta), math.Sin(theta))
}

// CachedMatrices returns the number of matrices held by the cache.
func (s *Simulator) CachedMatrices() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// Qubits returns the allocated physical ids in ascending order.
func (s *Simulator) Qubits() []ops.QubitID {
	ids := make([]ops.QubitID, 0, len(s.pos))
	for id := range s.pos {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
