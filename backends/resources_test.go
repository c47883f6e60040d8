package backends

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdeck/engine"
	"qdeck/ops"
)

func TestResourceCounter(t *testing.T) {
	rc := NewResourceCounter()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, rc.Register(reg))
	eng := newMain(t, rc)

	q, err := eng.AllocateQureg(3)
	require.NoError(t, err)
	require.NoError(t, eng.ApplyAll(ops.H, q))
	require.NoError(t, eng.ApplyControlled(ops.X, q[0], q[1]))
	require.NoError(t, eng.ApplyControlled(ops.X, q[1], q[2]))
	require.NoError(t, eng.Apply(ops.Rx(0.5), q[2]))
	require.NoError(t, eng.Apply(ops.Rx(0.25), q[2]))
	require.NoError(t, q[0].Release())
	extra, err := eng.AllocateQubit()
	require.NoError(t, err)
	require.NoError(t, eng.Measure(extra))
	require.NoError(t, eng.Flush(false))

	assert.Equal(t, 3, rc.MaxWidth())
	assert.Equal(t, 5, rc.Depth())
	assert.Equal(t, map[GateCount]int{
		{"H", 0}:        3,
		{"X", 1}:        2,
		{"Rx(0.5)", 0}:  1,
		{"Rx(0.25)", 0}: 1,
		{"Measure", 0}:  1,
	}, rc.GateCounts())
	assert.Equal(t, 2, rc.ClassCounts()[GateCount{"Rx", 0}])

	assert.InDelta(t, 3, testutil.ToFloat64(rc.gatesTotal.WithLabelValues("H", "0")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(rc.gatesTotal.WithLabelValues("X", "1")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(rc.widthGauge), 0)

	text := rc.String()
	assert.Contains(t, text, "Gate class counts:")
	assert.Contains(t, text, "Rx(0.25)")
	assert.Contains(t, text, "Max. width (number of qubits) : 3.")
	assert.Contains(t, text, "Depth : 5.")

	assert.Error(t, rc.Register(reg))
}

func TestResourceCounterMidChain(t *testing.T) {
	rc := NewResourceCounter()
	rec := engine.NewRecorder()
	eng := newMain(t, rec, rc)
	q, err := eng.AllocateQubit()
	require.NoError(t, err)
	require.NoError(t, eng.Apply(ops.Y, q))
	assert.Len(t, rec.Commands(), 2)
	assert.Equal(t, 1, rc.Depth())
}
