package ops

import (
	"fmt"
	"math"
)

// Rotation is a single-parameter gate. Rx, Ry and Rz angles live in [0, 4π);
// the phase gates R and Ph live in [0, 2π).
type Rotation struct {
	kind  Kind
	Angle float64
}

func Rx(angle float64) Rotation { return Rotation{KindRx, NormalizeRotation(angle)} }
func Ry(angle float64) Rotation { return Rotation{KindRy, NormalizeRotation(angle)} }
func Rz(angle float64) Rotation { return Rotation{KindRz, NormalizeRotation(angle)} }

// R is the phase shift diag(1, e^{iθ}).
func R(angle float64) Rotation { return Rotation{KindR, NormalizePhase(angle)} }

// Ph is the global phase e^{iθ}·I.
func Ph(angle float64) Rotation { return Rotation{KindPh, NormalizePhase(angle)} }

// NewRotation builds a rotation of the given kind.
func NewRotation(kind Kind, angle float64) (Rotation, error) {
	switch kind {
	case KindRx:
		return Rx(angle), nil
	case KindRy:
		return Ry(angle), nil
	case KindRz:
		return Rz(angle), nil
	case KindR:
		return R(angle), nil
	case KindPh:
		return Ph(angle), nil
	}
	return Rotation{}, fmt.Errorf("%s is not a rotation kind", kind)
}

func (g Rotation) Kind() Kind { return g.kind }

func (g Rotation) String() string {
	return g.kind.String() + "(" + formatAngle(g.Angle) + ")"
}

func (g Rotation) period() float64 {
	if g.kind == KindR || g.kind == KindPh {
		return 2 * math.Pi
	}
	return 4 * math.Pi
}

func (g Rotation) Inverse() (Gate, error) {
	r, _ := NewRotation(g.kind, -g.Angle)
	return r, nil
}

func (g Rotation) Merge(other Gate) (Gate, error) {
	o, ok := other.(Rotation)
	if !ok || o.kind != g.kind {
		return nil, ErrNotMergeable
	}
	r, _ := NewRotation(g.kind, g.Angle+o.Angle)
	return r, nil
}

func (g Rotation) Equal(other Gate) bool {
	o, ok := other.(Rotation)
	return ok && o.kind == g.kind && anglesEqual(g.Angle, o.Angle, g.period())
}

func (g Rotation) matrix() Matrix {
	switch g.kind {
	case KindRx:
		return rx(g.Angle)
	case KindRy:
		return ry(g.Angle)
	case KindRz:
		return rz(g.Angle)
	case KindR:
		return diag2(1, phase(g.Angle))
	}
	p := phase(g.Angle)
	return diag2(p, p)
}

// UGate is the general single-qubit unitary e^{iα}·Rz(β)·Ry(γ)·Rz(δ).
type UGate struct {
	Alpha, Beta, Gamma, Delta float64
}

// U builds a UGate with normalized parameters.
func U(alpha, beta, gamma, delta float64) UGate {
	return UGate{
		Alpha: NormalizePhase(alpha),
		Beta:  NormalizeRotation(beta),
		Gamma: NormalizeRotation(gamma),
		Delta: NormalizeRotation(delta),
	}
}

func (g UGate) Kind() Kind { return KindU }

func (g UGate) String() string {
	return fmt.Sprintf("U(%s, %s, %s, %s)", formatAngle(g.Alpha), formatAngle(g.Beta), formatAngle(g.Gamma), formatAngle(g.Delta))
}

func (g UGate) Inverse() (Gate, error) {
	return U(-g.Alpha, -g.Delta, -g.Gamma, -g.Beta), nil
}

func (g UGate) Merge(other Gate) (Gate, error) { return nil, ErrNotMergeable }

func (g UGate) Equal(other Gate) bool {
	o, ok := other.(UGate)
	return ok &&
		anglesEqual(g.Alpha, o.Alpha, 2*math.Pi) &&
		anglesEqual(g.Beta, o.Beta, 4*math.Pi) &&
		anglesEqual(g.Gamma, o.Gamma, 4*math.Pi) &&
		anglesEqual(g.Delta, o.Delta, 4*math.Pi)
}

func (g UGate) matrix() Matrix {
	m := rz(g.Beta).Mul(ry(g.Gamma)).Mul(rz(g.Delta))
	p := phase(g.Alpha)
	for i := range m {
		for j := range m[i] {
			m[i][j] *= p
		}
	}
	return m
}

// U3Gate is the OpenQASM u3(θ, φ, λ) gate.
type U3Gate struct {
	Theta, Phi, Lambda float64
}

func U3(theta, phi, lambda float64) U3Gate {
	return U3Gate{
		Theta:  NormalizeRotation(theta),
		Phi:    NormalizeRotation(phi),
		Lambda: NormalizeRotation(lambda),
	}
}

// NewU2 returns u2(φ, λ) = u3(π/2, φ, λ).
func NewU2(phi, lambda float64) U3Gate { return U3(math.Pi/2, phi, lambda) }

// NewU1 returns u1(λ), which equals the phase shift R(λ).
func NewU1(lambda float64) Rotation { return R(lambda) }

func (g U3Gate) Kind() Kind { return KindU3 }

func (g U3Gate) String() string {
	return fmt.Sprintf("U3(%s, %s, %s)", formatAngle(g.Theta), formatAngle(g.Phi), formatAngle(g.Lambda))
}

func (g U3Gate) Inverse() (Gate, error) {
	return U3(-g.Theta, -g.Lambda, -g.Phi), nil
}

func (g U3Gate) Merge(other Gate) (Gate, error) { return nil, ErrNotMergeable }

func (g U3Gate) Equal(other Gate) bool {
	o, ok := other.(U3Gate)
	return ok &&
		anglesEqual(g.Theta, o.Theta, 4*math.Pi) &&
		anglesEqual(g.Phi, o.Phi, 4*math.Pi) &&
		anglesEqual(g.Lambda, o.Lambda, 4*math.Pi)
}

func (g U3Gate) matrix() Matrix {
	c := complex(math.Cos(g.Theta/2), 0)
	s := complex(math.Sin(g.Theta/2), 0)
	return Matrix{
		{c, -phase(g.Lambda) * s},
		{phase(g.Phi) * s, phase(g.Phi+g.Lambda) * c},
	}
}

// AsU rewrites u3 as e^{i(φ+λ)/2}·Rz(φ)·Ry(θ)·Rz(λ).
func (g U3Gate) AsU() UGate {
	return U((g.Phi+g.Lambda)/2, g.Phi, g.Theta, g.Lambda)
}
