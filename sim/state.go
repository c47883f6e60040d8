package sim

import (
	"math"
	"math/cmplx"
)

// StateVector holds 2^n amplitudes. Bit position p of a basis index is the
// value of the qubit stored at position p.
type StateVector struct {
	Amplitudes []complex128
}

func newStateVector() *StateVector {
	return &StateVector{Amplitudes: []complex128{1}}
}

func (s *StateVector) NumQubits() int {
	n := 0
	for 1<<n < len(s.Amplitudes) {
		n++
	}
	return n
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps}
}

// pairs calls fn for every index pair (i, i|bit) whose control bits are set.
func (s *StateVector) pairs(bit, ctrl int, fn func(i, j int)) {
	for i := range s.Amplitudes {
		if i&bit == 0 && i&ctrl == ctrl {
			fn(i, i|bit)
		}
	}
}

func (s *StateVector) applyH(bit, ctrl int) {
	h := complex(1.0/math.Sqrt2, 0)
	a := s.Amplitudes
	s.pairs(bit, ctrl, func(i, j int) {
		a[i], a[j] = h*(a[i]+a[j]), h*(a[i]-a[j])
	})
}

func (s *StateVector) applyX(bit, ctrl int) {
	a := s.Amplitudes
	s.pairs(bit, ctrl, func(i, j int) {
		a[i], a[j] = a[j], a[i]
	})
}

func (s *StateVector) applyY(bit, ctrl int) {
	a := s.Amplitudes
	s.pairs(bit, ctrl, func(i, j int) {
		a[i], a[j] = -1i*a[j], 1i*a[i]
	})
}

// applyDiag multiplies the |0> and |1> amplitudes of the target by d0 and d1.
func (s *StateVector) applyDiag(bit, ctrl int, d0, d1 complex128) {
	a := s.Amplitudes
	s.pairs(bit, ctrl, func(i, j int) {
		a[i] *= d0
		a[j] *= d1
	})
}

// applyPhase multiplies every amplitude whose control bits are set.
func (s *StateVector) applyPhase(ctrl int, factor complex128) {
	for i := range s.Amplitudes {
		if i&ctrl == ctrl {
			s.Amplitudes[i] *= factor
		}
	}
}

// apply2 applies a 2x2 matrix to the target.
func (s *StateVector) apply2(bit, ctrl int, m [2][2]complex128) {
	a := s.Amplitudes
	s.pairs(bit, ctrl, func(i, j int) {
		x, y := a[i], a[j]
		a[i] = m[0][0]*x + m[0][1]*y
		a[j] = m[1][0]*x + m[1][1]*y
	})
}

func (s *StateVector) applySwap(b1, b2, ctrl int) {
	a := s.Amplitudes
	for i := range a {
		if i&b1 != 0 && i&b2 == 0 && i&ctrl == ctrl {
			j := (i &^ b1) | b2
			a[i], a[j] = a[j], a[i]
		}
	}
}

// applyDiagonal multiplies each amplitude by the phase selected by the
// target bits, where target j is bit j of the phase index.
func (s *StateVector) applyDiagonal(positions []int, ctrl int, phases []float64) {
	factors := make([]complex128, len(phases))
	for k, p := range phases {
		factors[k] = cmplx.Rect(1, p)
	}
	for i := range s.Amplitudes {
		if i&ctrl == ctrl {
			s.Amplitudes[i] *= factors[gather(i, positions)]
		}
	}
}

// applyUniform applies rotation k to the target when the uniform control
// bits read k.
func (s *StateVector) applyUniform(uniform []int, bit, ctrl int, rots [][2][2]complex128) {
	a := s.Amplitudes
	s.pairs(bit, ctrl, func(i, j int) {
		m := rots[gather(i, uniform)]
		x, y := a[i], a[j]
		a[i] = m[0][0]*x + m[0][1]*y
		a[j] = m[1][0]*x + m[1][1]*y
	})
}

// applyMatrix applies a dense 2^k x 2^k matrix. Bit j of the matrix index is
// the qubit at positions[j].
func (s *StateVector) applyMatrix(positions []int, ctrl int, m [][]complex128) {
	dim := len(m)
	offsets := make([]int, dim)
	mask := 0
	for k := range dim {
		offsets[k] = scatter(k, positions)
	}
	for _, p := range positions {
		mask |= 1 << p
	}
	in := make([]complex128, dim)
	a := s.Amplitudes
	for i := range a {
		if i&mask != 0 || i&ctrl != ctrl {
			continue
		}
		for k, off := range offsets {
			in[k] = a[i|off]
		}
		for r, off := range offsets {
			var v complex128
			for c, x := range in {
				v += m[r][c] * x
			}
			a[i|off] = v
		}
	}
}

// probabilityOne returns the probability that the qubit at bit reads 1.
func (s *StateVector) probabilityOne(bit int) float64 {
	p := 0.0
	for i, amp := range s.Amplitudes {
		if i&bit != 0 {
			p += norm(amp)
		}
	}
	return p
}

// project keeps the amplitudes whose masked bits equal value and
// renormalizes. It returns the probability of the kept subspace.
func (s *StateVector) project(mask, value int) float64 {
	p := 0.0
	for i, amp := range s.Amplitudes {
		if i&mask == value {
			p += norm(amp)
		}
	}
	if p == 0 {
		return 0
	}
	scale := complex(1/math.Sqrt(p), 0)
	for i := range s.Amplitudes {
		if i&mask == value {
			s.Amplitudes[i] *= scale
		} else {
			s.Amplitudes[i] = 0
		}
	}
	return p
}

// grow appends a qubit in |0> as the new highest bit.
func (s *StateVector) grow() {
	s.Amplitudes = append(s.Amplitudes, make([]complex128, len(s.Amplitudes))...)
}

// shrink removes the bit at pos, keeping the half where it reads value.
func (s *StateVector) shrink(pos int, value bool) {
	low := 1<<pos - 1
	set := 0
	if value {
		set = 1 << pos
	}
	out := make([]complex128, len(s.Amplitudes)/2)
	for j := range out {
		i := (j&^low)<<1 | set | j&low
		out[j] = s.Amplitudes[i]
	}
	s.Amplitudes = out
}

// QubitProbability is the marginal distribution of one qubit.
type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

func (s *StateVector) qubitProbabilities(n int) []QubitProbability {
	probs := make([]QubitProbability, n)
	for i, amp := range s.Amplitudes {
		p := norm(amp)
		for q := range n {
			if i&(1<<q) != 0 {
				probs[q].Prob1 += p
			} else {
				probs[q].Prob0 += p
			}
		}
	}
	return probs
}

func norm(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}

func gather(i int, positions []int) int {
	k := 0
	for j, p := range positions {
		k |= (i >> p & 1) << j
	}
	return k
}

func scatter(k int, positions []int) int {
	i := 0
	for j, p := range positions {
		i |= (k >> j & 1) << p
	}
	return i
}

func rotation2(m [][]complex128) [2][2]complex128 {
	return [2][2]complex128{{m[0][0], m[0][1]}, {m[1][0], m[1][1]}}
}
