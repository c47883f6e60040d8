package backends

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdeck/decompositions"
	"qdeck/engine"
	"qdeck/ops"
	"qdeck/qasm"
)

func qasmBody(b *QASMBackend) []string {
	text := b.QASM()
	_, body, _ := strings.Cut(text, "\n\n")
	_, body, _ = strings.Cut(body, "\n\n")
	return strings.Split(strings.TrimSpace(body), "\n")
}

func TestQASMBackendWritesGates(t *testing.T) {
	b := NewQASMBackend()
	eng := newMain(t, b)
	q, err := eng.AllocateQureg(3)
	require.NoError(t, err)

	require.NoError(t, eng.Apply(ops.H, q[0]))
	require.NoError(t, eng.ApplyControlled(ops.X, q[0], q[1]))
	require.NoError(t, eng.Apply(ops.Rz(-math.Pi/2), q[2]))
	require.NoError(t, eng.ApplyControlled(ops.R(math.Pi/4), q[1], q[2]))
	require.NoError(t, eng.ApplyControlled(ops.X, engine.Qureg{q[0], q[1]}, q[2]))
	require.NoError(t, eng.Apply(ops.U3(0.5, 0, math.Pi), q[1]))
	require.NoError(t, eng.Apply(ops.Barrier, q))
	require.NoError(t, eng.Measure(q[0]))
	require.NoError(t, eng.Flush(false))

	assert.True(t, strings.HasPrefix(b.QASM(), "OPENQASM 2.0;\ninclude \"qelib1.inc\";\n\nqreg q[3];\ncreg c[3];\n\n"))
	assert.Equal(t, []string{
		"h q[0];",
		"cx q[0], q[1];",
		"rz(-pi/2) q[2];",
		"cu1(pi/4) q[1], q[2];",
		"ccx q[0], q[1], q[2];",
		"u3(0.5, 0, pi) q[1];",
		"barrier q[0], q[1], q[2];",
		"measure q[0] -> c[0];",
	}, qasmBody(b))
}

func TestQASMAvailability(t *testing.T) {
	b := NewQASMBackend()
	cases := []struct {
		cmd  ops.Command
		want bool
	}{
		{ops.MustCommand(ops.H, [][]ops.QubitID{{0}}), true},
		{ops.MustCommand(ops.H, [][]ops.QubitID{{0}}, 1, 2), false},
		{ops.MustCommand(ops.X, [][]ops.QubitID{{0}}, 1, 2), true},
		{ops.MustCommand(ops.X, [][]ops.QubitID{{0}}, 1, 2, 3), false},
		{ops.MustCommand(ops.Ph(1), [][]ops.QubitID{{0}}), false},
		{ops.MustCommand(ops.U(1, 2, 3, 4), [][]ops.QubitID{{0}}), false},
		{ops.MustCommand(ops.Allocate, [][]ops.QubitID{{0}}), true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, b.IsAvailable(tc.cmd), tc.cmd.String())
	}
}

func TestQASMBackendDrivesDecomposition(t *testing.T) {
	rules, err := decompositions.Standard().RuleSet()
	require.NoError(t, err)
	b := NewQASMBackend()
	eng := newMain(t, b, engine.NewAutoReplacer(rules))
	q, err := eng.AllocateQureg(2)
	require.NoError(t, err)

	require.NoError(t, eng.Apply(ops.U(0.25, 0, math.Pi/2, 0), q[0]))
	require.NoError(t, eng.ApplyControlled(ops.Ph(math.Pi/2), q[0], q[1]))
	require.NoError(t, eng.Flush(false))

	assert.Equal(t, []string{
		"rz(0) q[0];",
		"ry(pi/2) q[0];",
		"rz(0) q[0];",
		"u1(pi/2) q[0];",
	}, qasmBody(b))
}

func TestQASMRoundTrip(t *testing.T) {
	src := `OPENQASM 2.0;
include "qelib1.inc";

qreg q[3];
creg c[3];

h q[0];
cx q[0], q[1];
ry(3*pi/4) q[2];
cu1(-pi/2) q[1], q[2];
ccx q[0], q[2], q[1];
swap q[0], q[2];
measure q[1] -> c[1];
`
	p, err := qasm.Parse(src)
	require.NoError(t, err)
	b := NewQASMBackend()
	eng := newMain(t, b)
	_, _, err = p.Run(eng)
	require.NoError(t, err)
	assert.Equal(t, src, b.QASM())
}
