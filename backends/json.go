// Package backends holds terminal engines that export or summarize the
// command stream instead of executing it.
package backends

import (
	"io"
	"slices"

	"github.com/go-faster/jx"
	"github.com/pkg/errors"

	"qdeck/engine"
	"qdeck/ops"
)

// JSONBackend records the command stream and exports it as JSON.
type JSONBackend struct {
	engine.Base
	cmds []ops.Command
}

func NewJSONBackend() *JSONBackend { return &JSONBackend{} }

func (b *JSONBackend) IsAvailable(ops.Command) bool { return true }

func (b *JSONBackend) Receive(cmds []ops.Command) error {
	b.cmds = append(b.cmds, cmds...)
	reportMeasurements(b.Main(), cmds, false)
	return nil
}

// Commands returns everything received so far.
func (b *JSONBackend) Commands() []ops.Command { return slices.Clone(b.cmds) }

// JSON encodes the circuit, its depth and the allocation counts.
func (b *JSONBackend) JSON() []byte {
	var e jx.Encoder
	allocs, deallocs := 0, 0
	e.ObjStart()
	e.FieldStart("circuit")
	e.ArrStart()
	for _, cmd := range b.cmds {
		switch cmd.Gate.Kind() {
		case ops.KindAllocate:
			allocs++
		case ops.KindDeallocate:
			deallocs++
		}
		encodeCommand(&e, cmd)
	}
	e.ArrEnd()
	e.FieldStart("depth")
	e.Int(CircuitDepth(b.cmds))
	e.FieldStart("n_allocate")
	e.Int(allocs)
	e.FieldStart("n_deallocate")
	e.Int(deallocs)
	e.ObjEnd()
	return e.Bytes()
}

// WriteJSON writes JSON() to w.
func (b *JSONBackend) WriteJSON(w io.Writer) error {
	_, err := w.Write(b.JSON())
	return errors.Wrap(err, "write circuit json")
}

func encodeCommand(e *jx.Encoder, cmd ops.Command) {
	e.ObjStart()
	e.FieldStart("gate")
	e.Str(cmd.Gate.String())
	if cmd.Gate.Kind() != ops.KindFlush {
		e.FieldStart("targets")
		encodeIDs(e, cmd.Targets())
		if cmd.Gate.Kind() != ops.KindAllocate {
			e.FieldStart("controls")
			encodeIDs(e, cmd.Controls)
		}
	}
	e.ObjEnd()
}

func encodeIDs(e *jx.Encoder, ids []ops.QubitID) {
	e.ArrStart()
	for _, id := range ids {
		e.Int(int(id))
	}
	e.ArrEnd()
}

// CircuitDepth returns the longest chain of gates on any qubit. A gate
// extends the chain of every qubit it touches; allocation, deallocation and
// flushes do not count.
func CircuitDepth(cmds []ops.Command) int {
	depth := make(map[ops.QubitID]int)
	longest := 0
	for _, cmd := range cmds {
		switch cmd.Gate.Kind() {
		case ops.KindAllocate, ops.KindDeallocate, ops.KindFlush:
			continue
		}
		d := 0
		qubits := cmd.AllQubits()
		for _, q := range qubits {
			d = max(d, depth[q])
		}
		d++
		for _, q := range qubits {
			depth[q] = d
		}
		longest = max(longest, d)
	}
	return longest
}

// reportMeasurements answers every measurement in cmds with value when the
// backend has a main engine.
func reportMeasurements(m *engine.MainEngine, cmds []ops.Command, value bool) {
	if m == nil {
		return
	}
	for _, cmd := range cmds {
		if cmd.Gate.Kind() != ops.KindMeasure {
			continue
		}
		logical, tagged := cmd.LogicalID()
		for _, id := range cmd.Targets() {
			if tagged {
				id = logical
			}
			m.SetMeasurementResult(id, value)
		}
	}
}
