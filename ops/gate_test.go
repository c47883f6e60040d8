package ops

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotationNormalization(t *testing.T) {
	for _, theta := range []float64{0.1, 1.234, 3.5, -2.2, 7.9} {
		assert.Equal(t, Rx(theta), Rx(theta+4*math.Pi), "theta %g", theta)
		assert.Equal(t, Rz(theta), Rz(theta-4*math.Pi), "theta %g", theta)
		assert.Equal(t, R(theta), R(theta+2*math.Pi), "theta %g", theta)
	}
	assert.Equal(t, 0.0, Ry(4*math.Pi-1e-13).Angle)
	assert.True(t, Rx(0.5).Equal(Rx(0.5+1e-14)))
	assert.False(t, Rx(0.5).Equal(Ry(0.5)))
	assert.Equal(t, "Rx(0.5)", Rx(0.5).String())
}

func TestRotationInverseAndMerge(t *testing.T) {
	inv, err := Rz(1.5).Inverse()
	require.NoError(t, err)
	assert.True(t, inv.Equal(Rz(-1.5)))

	merged, err := Rz(1.5).Merge(Rz(0.5))
	require.NoError(t, err)
	assert.True(t, merged.Equal(Rz(2)))

	merged, err = Rz(1.5).Merge(inv)
	require.NoError(t, err)
	assert.True(t, IsIdentity(merged))

	_, err = Rz(1).Merge(Rx(1))
	assert.ErrorIs(t, err, ErrNotMergeable)
	_, err = H.Merge(H)
	assert.ErrorIs(t, err, ErrNotMergeable)
}

func TestFixedGateInverse(t *testing.T) {
	cases := map[FixedGate]FixedGate{H: H, X: X, S: Sdg, Tdg: T, SqrtX: SqrtXdg, Swap: Swap}
	for g, want := range cases {
		inv, err := g.Inverse()
		require.NoError(t, err)
		assert.Equal(t, want, inv, g.String())

		m, err := MatrixOf(g)
		require.NoError(t, err)
		mi, err := MatrixOf(inv)
		require.NoError(t, err)
		assert.True(t, m.Mul(mi).ApproxEqual(Identity(m.Dim()), RTol, ATol), g.String())
	}
}

func TestStructuralGates(t *testing.T) {
	inv, err := Allocate.Inverse()
	require.NoError(t, err)
	assert.Equal(t, Deallocate, inv)

	_, err = Measure.Inverse()
	assert.ErrorIs(t, err, ErrNotInvertible)
	_, err = MatrixOf(Flush)
	assert.ErrorIs(t, err, ErrNoMatrix)
	assert.Equal(t, "FlushGate", Flush.String())
	assert.True(t, IsFastForwarding(Measure))
	assert.False(t, IsFastForwarding(Allocate))
}

func TestUMatrix(t *testing.T) {
	a, b, c, d := 1.0, 2.0, 3.0, 4.0
	e := func(x float64) complex128 { return cmplx.Exp(complex(0, x)) }
	cos, sin := complex(math.Cos(c/2), 0), complex(math.Sin(c/2), 0)
	want := Matrix{
		{e(a - (b+d)/2) * cos, -e(a-(b-d)/2) * sin},
		{e(a+(b-d)/2) * sin, e(a+(b+d)/2) * cos},
	}
	got, err := MatrixOf(U(a, b, c, d))
	require.NoError(t, err)
	assert.True(t, got.ApproxEqual(want, RTol, ATol))

	inv, err := U(a, b, c, d).Inverse()
	require.NoError(t, err)
	mi, err := MatrixOf(inv)
	require.NoError(t, err)
	assert.True(t, got.Mul(mi).ApproxEqual(Identity(2), RTol, ATol))
	assert.Equal(t, "U(1, 2, 3, 4)", U(a, b, c, d).String())
}

func TestU3Family(t *testing.T) {
	theta, phi, lambda := 1.0, 2.0, 3.0
	e := func(x float64) complex128 { return cmplx.Exp(complex(0, x)) }
	cos, sin := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	want := Matrix{
		{cos, -e(lambda) * sin},
		{e(phi) * sin, e(phi+lambda) * cos},
	}
	got, err := MatrixOf(U3(theta, phi, lambda))
	require.NoError(t, err)
	assert.True(t, got.ApproxEqual(want, RTol, ATol))

	asU, err := MatrixOf(U3(theta, phi, lambda).AsU())
	require.NoError(t, err)
	assert.True(t, asU.ApproxEqual(want, RTol, ATol))

	u2, err := MatrixOf(NewU2(phi, lambda))
	require.NoError(t, err)
	u3, err := MatrixOf(U3(math.Pi/2, phi, lambda))
	require.NoError(t, err)
	assert.True(t, u2.ApproxEqual(u3, RTol, ATol))

	u1, err := MatrixOf(NewU1(lambda))
	require.NoError(t, err)
	r, err := MatrixOf(R(lambda))
	require.NoError(t, err)
	assert.True(t, u1.ApproxEqual(r, RTol, ATol))
}

func TestUniformlyControlledRotation(t *testing.T) {
	g := UniformlyControlledRy([]float64{0.1, 0.2})
	assert.True(t, g.Equal(UniformlyControlledRy([]float64{0.1, 0.2 + 1e-14})))
	assert.False(t, g.Equal(UniformlyControlledRz([]float64{0.1, 0.2})))
	assert.False(t, g.Equal(UniformlyControlledRy([]float64{0.1, 0.3})))
	assert.Equal(t, "UniformlyControlledRy([0.1, 0.2])", g.String())

	merged, err := g.Merge(UniformlyControlledRy([]float64{0.5, 0.6}))
	require.NoError(t, err)
	assert.True(t, merged.Equal(UniformlyControlledRy([]float64{0.6, 0.8})))

	_, err = g.Merge(UniformlyControlledRy([]float64{0.5}))
	assert.ErrorIs(t, err, ErrNotMergeable)

	inv, err := g.Inverse()
	require.NoError(t, err)
	merged, err = g.Merge(inv)
	require.NoError(t, err)
	assert.True(t, IsIdentity(merged))

	// Control value 1 selects the second angle.
	m, err := MatrixOf(UniformlyControlledRz([]float64{0, 1.2}))
	require.NoError(t, err)
	rz12, err := MatrixOf(Rz(1.2))
	require.NoError(t, err)
	assert.InDelta(t, 1, real(m[0][0]), 1e-12)
	assert.InDelta(t, 0, cmplx.Abs(m[1][1]-rz12[0][0]), 1e-12)
	assert.InDelta(t, 0, cmplx.Abs(m[3][3]-rz12[1][1]), 1e-12)
}

func TestDiagonalGate(t *testing.T) {
	_, err := NewDiagonalGate([]complex128{1, 1, 1})
	assert.ErrorIs(t, errors.Cause(err), ErrDiagonalLength)
	_, err = NewDiagonalGate([]complex128{1})
	assert.ErrorIs(t, err, ErrDiagonalLength)
	_, err = NewDiagonalGate([]complex128{1, 2})
	assert.ErrorIs(t, err, ErrDiagonalMagnitude)

	g, err := NewDiagonalGate([]complex128{1, 1 - 1e-14})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, g.Phases)
	assert.True(t, IsIdentity(g))

	g, err = NewDiagonalGate([]complex128{1, 1i, -1, -1i})
	require.NoError(t, err)
	assert.Equal(t, 2, g.NumQubits())
	assert.InDeltaSlice(t, []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2}, g.Phases, 1e-12)

	inv, err := g.Inverse()
	require.NoError(t, err)
	merged, err := g.Merge(inv)
	require.NoError(t, err)
	assert.True(t, IsIdentity(merged))
}

func TestMatrixGate(t *testing.T) {
	_, err := NewMatrixGate(Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	assert.ErrorIs(t, err, ErrMatrixShape)

	hm, err := MatrixOf(H)
	require.NoError(t, err)
	g, err := NewMatrixGate(hm)
	require.NoError(t, err)

	merged, err := g.Merge(g)
	require.NoError(t, err)
	assert.True(t, merged.Equal(MatrixGate{M: Identity(2)}))
}

func TestCommand(t *testing.T) {
	_, err := NewCommand(X, [][]QubitID{{1}}, 1)
	assert.ErrorIs(t, err, ErrControlOverlap)

	cmd, err := NewCommand(X, [][]QubitID{{2}}, 1, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []QubitID{0, 1}, cmd.Controls)
	assert.Equal(t, []QubitID{0, 1, 2}, cmd.AllQubits())
	assert.Equal(t, "CCX | ( Qureg[0-1], Qureg[2] )", cmd.String())

	h := MustCommand(H, [][]QubitID{{0}})
	assert.Equal(t, "H | Qureg[0]", h.String())
	assert.True(t, h.Cancels(h))
	assert.False(t, h.Cancels(h.WithTags(ComputeTag{})))

	rz := MustCommand(Rz(0.5), [][]QubitID{{0}})
	merged, err := rz.Merge(rz)
	require.NoError(t, err)
	assert.True(t, merged.Gate.Equal(Rz(1)))

	_, err = rz.Merge(MustCommand(Rz(0.5), [][]QubitID{{1}}))
	assert.ErrorIs(t, err, ErrNotMergeable)

	tagged := rz.WithTags(LogicalQubitIDTag{ID: 7})
	id, ok := tagged.LogicalID()
	assert.True(t, ok)
	assert.Equal(t, QubitID(7), id)
	assert.Empty(t, rz.Tags, "WithTags must not alias the receiver")

	remapped := cmd.Remap(func(q QubitID) QubitID { return q + 10 })
	assert.Equal(t, []QubitID{12}, remapped.Targets())
	assert.Equal(t, []QubitID{2}, cmd.Targets())
}

func TestFormatQureg(t *testing.T) {
	assert.Equal(t, "Qureg[0-2, 5]", FormatQureg([]QubitID{0, 1, 2, 5}))
	assert.Equal(t, "Qureg[]", FormatQureg(nil))
}
