package backends

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdeck/engine"
	"qdeck/ops"
)

func TestCommandPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewCommandPrinter(&buf)
	p.DefaultMeasure = true
	eng := newMain(t, p)

	q, err := eng.AllocateQureg(2)
	require.NoError(t, err)
	require.NoError(t, eng.ApplyControlled(ops.X, q[0], q[1]))
	require.NoError(t, eng.Measure(q[1]))
	v, err := eng.Result(q[1])
	require.NoError(t, err)
	assert.True(t, v)

	assert.Equal(t, []string{
		"Allocate | Qureg[0]",
		"Allocate | Qureg[1]",
		"CX | ( Qureg[0], Qureg[1] )",
		"Measure | Qureg[1]",
		"FlushGate | Qureg[-1]",
	}, strings.Split(strings.TrimSpace(buf.String()), "\n"))
}

func TestCommandPrinterForwards(t *testing.T) {
	var buf bytes.Buffer
	p := NewCommandPrinter(&buf)
	rec := engine.NewRecorder()
	eng := newMain(t, rec, p)

	q, err := eng.AllocateQubit()
	require.NoError(t, err)
	require.NoError(t, eng.Apply(ops.T, q))
	assert.Len(t, rec.Commands(), 2)
	assert.Contains(t, buf.String(), "T | Qureg[0]")
}
