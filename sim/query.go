package sim

import (
	"maps"
	"math"
	"math/cmplx"

	"github.com/pkg/errors"

	"qdeck/ops"
)

// physical translates logical ids through the main engine's mapper, if any.
func (s *Simulator) physical(ids []ops.QubitID) []ops.QubitID {
	m := s.Main()
	if m == nil {
		return ids
	}
	mapping, ok := m.Mapping()
	if !ok {
		return ids
	}
	out := make([]ops.QubitID, len(ids))
	for i, id := range ids {
		if p, ok := mapping[id]; ok {
			out[i] = p
		} else {
			out[i] = id
		}
	}
	return out
}

func (s *Simulator) logicalPositions(ids []ops.QubitID) ([]int, error) {
	return s.positions(s.physical(ids))
}

// coversAll reports whether positions name every allocated qubit once.
func (s *Simulator) coversAll(positions []int) bool {
	if len(positions) != len(s.pos) {
		return false
	}
	seen := make(map[int]bool, len(positions))
	for _, p := range positions {
		if seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

func pack(bits []bool, positions []int) (mask, value int) {
	for i, p := range positions {
		mask |= 1 << p
		if bits[i] {
			value |= 1 << p
		}
	}
	return mask, value
}

// GetAmplitude returns the amplitude of the basis state where ids[i] reads
// bits[i]. ids must name every allocated qubit.
func (s *Simulator) GetAmplitude(bits []bool, ids []ops.QubitID) (complex128, error) {
	positions, err := s.logicalPositions(ids)
	if err != nil {
		return 0, err
	}
	if len(bits) != len(ids) || !s.coversAll(positions) {
		return 0, errors.Wrap(ErrQuregMismatch, "amplitude query must name every allocated qubit")
	}
	_, value := pack(bits, positions)
	return s.state.Amplitudes[value], nil
}

// GetProbability returns the probability that ids[i] reads bits[i] for all i.
func (s *Simulator) GetProbability(bits []bool, ids []ops.QubitID) (float64, error) {
	positions, err := s.logicalPositions(ids)
	if err != nil {
		return 0, err
	}
	if len(bits) != len(ids) {
		return 0, errors.Wrapf(ErrQuregMismatch, "%d bits for %d qubits", len(bits), len(ids))
	}
	mask, value := pack(bits, positions)
	p := 0.0
	for i, amp := range s.state.Amplitudes {
		if i&mask == value {
			p += norm(amp)
		}
	}
	return p, nil
}

// Cheat returns copies of the id to bit position mapping and of the state.
func (s *Simulator) Cheat() (map[ops.QubitID]int, []complex128) {
	return maps.Clone(s.pos), s.state.Clone().Amplitudes
}

// SetWavefunction replaces the state. Bit i of an index into amps is the
// value of ids[i], which must name every allocated qubit.
func (s *Simulator) SetWavefunction(amps []complex128, ids []ops.QubitID) error {
	positions, err := s.logicalPositions(ids)
	if err != nil {
		return err
	}
	if !s.coversAll(positions) {
		return errors.Wrap(ErrQuregMismatch, "wavefunction must cover every allocated qubit")
	}
	if len(amps) != 1<<len(ids) {
		return errors.Wrapf(ErrWavefunctionSize, "got %d amplitudes for %d qubits", len(amps), len(ids))
	}
	total := 0.0
	for _, a := range amps {
		total += norm(a)
	}
	if math.Abs(total-1) > normTolerance {
		return errors.Wrapf(ErrWavefunctionNorm, "norm %g", total)
	}
	out := make([]complex128, len(amps))
	for k, a := range amps {
		out[scatter(k, positions)] = a
	}
	s.state.Amplitudes = out
	return nil
}

// CollapseWavefunction projects ids onto values and renormalizes.
func (s *Simulator) CollapseWavefunction(ids []ops.QubitID, values []bool) error {
	positions, err := s.logicalPositions(ids)
	if err != nil {
		return err
	}
	if len(values) != len(ids) {
		return errors.Wrapf(ErrQuregMismatch, "%d values for %d qubits", len(values), len(ids))
	}
	mask, value := pack(values, positions)
	probe := s.state.Clone()
	if p := probe.project(mask, value); p < classicalTolerance {
		return errors.Wrapf(ErrImpossible, "probability %g", p)
	}
	s.state = probe
	return nil
}

// MeasureQubits measures ids jointly with a single random draw and reports
// the outcomes to the main engine.
func (s *Simulator) MeasureQubits(ids []ops.QubitID) ([]bool, error) {
	values, err := s.measure(s.physical(ids))
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		s.report(id, values[i])
	}
	return values, nil
}

// PauliTerm is Coeff times a tensor product of Paulis. Ops[i] is one of
// 'I', 'X', 'Y', 'Z' and acts on the i-th qubit passed to ExpectationValue.
type PauliTerm struct {
	Coeff float64
	Ops   string
}

// PauliSum is a Hermitian operator written as a sum of Pauli strings.
type PauliSum []PauliTerm

// ExpectationValue returns <psi|H|psi>.
func (s *Simulator) ExpectationValue(h PauliSum, ids []ops.QubitID) (float64, error) {
	positions, err := s.logicalPositions(ids)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, term := range h {
		if len(term.Ops) > len(positions) {
			return 0, errors.Wrapf(ErrQuregMismatch, "term %q acts on %d qubits, got %d", term.Ops, len(term.Ops), len(positions))
		}
		probe := s.state.Clone()
		for i, op := range []byte(term.Ops) {
			bit := 1 << positions[i]
			switch op {
			case 'I':
			case 'X':
				probe.applyX(bit, 0)
			case 'Y':
				probe.applyY(bit, 0)
			case 'Z':
				probe.applyDiag(bit, 0, 1, -1)
			default:
				return 0, errors.Errorf("unknown Pauli operator %q", op)
			}
		}
		var overlap complex128
		for i, amp := range s.state.Amplitudes {
			overlap += cmplx.Conj(amp) * probe.Amplitudes[i]
		}
		total += term.Coeff * real(overlap)
	}
	return total, nil
}

// Probabilities returns the marginal distribution of every allocated qubit,
// keyed by physical id.
func (s *Simulator) Probabilities() map[ops.QubitID]QubitProbability {
	probs := s.state.qubitProbabilities(len(s.pos))
	out := make(map[ops.QubitID]QubitProbability, len(s.pos))
	for id, p := range s.pos {
		out[id] = probs[p]
	}
	return out
}
