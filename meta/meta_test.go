package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdeck/engine"
	"qdeck/ops"
)

func setup(t *testing.T) (*engine.MainEngine, *engine.Recorder, engine.Qureg) {
	t.Helper()
	rec := engine.NewRecorder()
	eng, err := engine.NewMainEngine(rec, nil)
	require.NoError(t, err)
	reg, err := eng.AllocateQureg(3)
	require.NoError(t, err)
	rec.Reset()
	return eng, rec, reg
}

func texts(cmds []ops.Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.String()
	}
	return out
}

func TestControl(t *testing.T) {
	eng, rec, reg := setup(t)
	err := Control(eng, reg[0], func() error {
		if err := eng.Apply(ops.H, reg[1]); err != nil {
			return err
		}
		return Control(eng, reg[1], func() error {
			return eng.Apply(ops.X, reg[2])
		})
	})
	require.NoError(t, err)
	require.NoError(t, eng.Apply(ops.Z, reg[0]))

	assert.Equal(t, []string{
		"CH | ( Qureg[0], Qureg[1] )",
		"CCX | ( Qureg[0-1], Qureg[2] )",
		"Z | Qureg[0]",
	}, texts(rec.Commands()))

	err = Control(eng, reg[0], func() error { return eng.Apply(ops.X, reg[0]) })
	assert.ErrorIs(t, err, ops.ErrControlOverlap)
}

func TestComputeUncompute(t *testing.T) {
	eng, rec, reg := setup(t)
	var anc *engine.Qubit
	comp, err := Compute(eng, func() error {
		var err error
		if anc, err = eng.AllocateQubit(); err != nil {
			return err
		}
		if err := eng.Apply(ops.Rz(0.5), reg[0]); err != nil {
			return err
		}
		return eng.ApplyControlled(ops.X, reg[0], anc)
	})
	require.NoError(t, err)
	require.NoError(t, Control(eng, reg[1], func() error {
		return eng.Apply(ops.Z, anc)
	}))
	require.NoError(t, comp.Uncompute())
	require.NoError(t, comp.Uncompute())

	cmds := rec.Commands()
	assert.Equal(t, []string{
		"Allocate | Qureg[3]",
		"Rz(0.5) | Qureg[0]",
		"CX | ( Qureg[0], Qureg[3] )",
		"CZ | ( Qureg[1], Qureg[3] )",
		"CX | ( Qureg[0], Qureg[3] )",
		"Rz(12.066370614359) | Qureg[0]",
		"Deallocate | Qureg[3]",
	}, texts(cmds))
	assert.True(t, cmds[0].HasTag(ops.ComputeTag{}))
	assert.True(t, cmds[6].HasTag(ops.UncomputeTag{}))
	assert.True(t, anc.Released())
}

func TestDagger(t *testing.T) {
	eng, rec, reg := setup(t)
	err := Dagger(eng, func() error {
		if err := eng.Apply(ops.S, reg[0]); err != nil {
			return err
		}
		return eng.Apply(ops.T, reg[0])
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tdag | Qureg[0]", "Sdag | Qureg[0]"}, texts(rec.Commands()))

	err = Dagger(eng, func() error {
		_, err := eng.AllocateQubit()
		return err
	})
	assert.ErrorIs(t, err, ErrStructuralInDagger)
}
