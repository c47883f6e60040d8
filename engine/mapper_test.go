package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdeck/ops"
)

func TestReturnSwapDepth(t *testing.T) {
	cases := []struct {
		name  string
		swaps [][2]ops.QubitID
		want  int
	}{
		{"empty", nil, 0},
		{"parallel", [][2]ops.QubitID{{0, 1}, {2, 3}}, 1},
		{"chain", [][2]ops.QubitID{{0, 1}, {1, 2}, {2, 3}}, 3},
		{"merged", [][2]ops.QubitID{{0, 1}, {2, 3}, {1, 2}}, 2},
		{"repeated", [][2]ops.QubitID{{0, 1}, {0, 1}, {4, 5}}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReturnSwapDepth(tc.swaps))
		})
	}
}

func TestTopologies(t *testing.T) {
	line := LinearChain{N: 4}
	assert.Equal(t, []ops.QubitID{1}, line.Neighbors(0))
	assert.ElementsMatch(t, []ops.QubitID{2, 0}, LinearChain{N: 4, Cyclic: true}.Neighbors(3))
	assert.Equal(t, []ops.QubitID{0, 1, 2, 3}, ShortestPath(line, 0, 3))
	assert.Equal(t, []ops.QubitID{0, 3}, ShortestPath(LinearChain{N: 4, Cyclic: true}, 0, 3))

	grid := Grid{Rows: 2, Cols: 3}
	assert.ElementsMatch(t, []ops.QubitID{1, 3}, grid.Neighbors(0))
	assert.ElementsMatch(t, []ops.QubitID{1, 3, 5}, grid.Neighbors(4))
	assert.Len(t, ShortestPath(grid, 0, 5), 4)
	assert.True(t, Adjacent(grid, 2, 5))
}

func TestMapperInsertsSwaps(t *testing.T) {
	mapper := NewMapper(LinearChain{N: 4})
	eng, rec := newRecorded(t, mapper)
	reg, err := eng.AllocateQureg(4)
	require.NoError(t, err)

	require.NoError(t, eng.ApplyControlled(ops.X, reg[0], reg[3]))
	cmds := rec.Commands()
	assert.Equal(t, []string{
		"Swap | ( Qureg[0], Qureg[1] )",
		"Swap | ( Qureg[1], Qureg[2] )",
		"CX | ( Qureg[2], Qureg[3] )",
	}, gates(cmds[4:]))

	id, ok := cmds[0].LogicalID()
	require.True(t, ok)
	assert.Equal(t, ops.QubitID(0), id)

	mapping, ok := eng.Mapping()
	require.True(t, ok)
	assert.Equal(t, map[ops.QubitID]ops.QubitID{0: 2, 1: 0, 2: 1, 3: 3}, mapping)
	assert.Equal(t, 2, mapper.SwapDepth())
	assert.Len(t, mapper.Swaps(), 2)
}

func TestMapperMovesIntoFreeSlot(t *testing.T) {
	mapper := NewMapper(LinearChain{N: 3})
	eng, rec := newRecorded(t, mapper)
	reg, err := eng.AllocateQureg(3)
	require.NoError(t, err)
	require.NoError(t, reg[1].Release())
	rec.Reset()

	require.NoError(t, eng.ApplyControlled(ops.X, reg[0], reg[2]))
	assert.Equal(t, []string{
		"Allocate | Qureg[1]",
		"Swap | ( Qureg[0], Qureg[1] )",
		"Deallocate | Qureg[0]",
		"CX | ( Qureg[1], Qureg[2] )",
	}, gates(rec.Commands()))
	assert.Equal(t, map[ops.QubitID]ops.QubitID{0: 1, 2: 2}, mapper.CurrentMapping())

	q, err := eng.AllocateQubit()
	require.NoError(t, err)
	assert.Equal(t, ops.QubitID(0), mapper.CurrentMapping()[q.ID()])
}

func TestMapperRejectsWideCommands(t *testing.T) {
	eng, _ := newRecorded(t, NewMapper(LinearChain{N: 3}))
	reg, err := eng.AllocateQureg(3)
	require.NoError(t, err)
	err = eng.ApplyControlled(ops.X, Qureg{reg[0], reg[1]}, reg[2])
	assert.ErrorIs(t, err, ErrTooManyQubits)

	_, err = eng.AllocateQubit()
	assert.ErrorIs(t, err, ErrNoPhysicalQubit)
}

func TestMapperPassesBarriers(t *testing.T) {
	mapper := NewMapper(LinearChain{N: 4})
	eng, rec := newRecorded(t, mapper)
	reg, err := eng.AllocateQureg(4)
	require.NoError(t, err)
	require.NoError(t, eng.ApplyControlled(ops.X, reg[0], reg[3]))
	rec.Reset()

	require.NoError(t, eng.Apply(ops.Barrier, Qureg{reg[0], reg[2], reg[3]}))
	assert.Equal(t, []string{"Barrier | Qureg[2, 1-3]"}, gates(rec.Commands()))
	assert.Len(t, mapper.Swaps(), 2)
}

func TestMapperAvailability(t *testing.T) {
	mapper := NewMapper(LinearChain{N: 3})
	_, _ = newRecorded(t, mapper)
	ccx := ops.MustCommand(ops.X, [][]ops.QubitID{{2}}, 0, 1)
	cx := ops.MustCommand(ops.X, [][]ops.QubitID{{2}}, 0)
	barrier := ops.MustCommand(ops.Barrier, [][]ops.QubitID{{0, 1, 2}})
	assert.False(t, mapper.IsAvailable(ccx))
	assert.True(t, mapper.IsAvailable(cx))
	assert.True(t, mapper.IsAvailable(barrier))
}
