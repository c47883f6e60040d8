package engine

import "qdeck/ops"

// Register is anything that names an ordered list of qubits.
type Register interface {
	Qubits() []*Qubit
}

// Qubit is an owning handle. Release emits the deallocation exactly once.
type Qubit struct {
	id       ops.QubitID
	eng      *MainEngine
	released bool
}

// ID returns the weak reference carried by commands.
func (q *Qubit) ID() ops.QubitID { return q.id }

// Engine returns the owning main engine.
func (q *Qubit) Engine() *MainEngine { return q.eng }

// Released reports whether the deallocation has been sent.
func (q *Qubit) Released() bool { return q.released }

func (q *Qubit) Qubits() []*Qubit { return []*Qubit{q} }

// Release deallocates the qubit. Later calls do nothing.
func (q *Qubit) Release() error {
	if q == nil || q.released {
		return nil
	}
	return q.eng.Emit(ops.MustCommand(ops.Deallocate, [][]ops.QubitID{{q.id}}))
}

// Qureg is an ordered register of qubits.
type Qureg []*Qubit

func (r Qureg) Qubits() []*Qubit { return r }

// IDs returns the ids in register order.
func (r Qureg) IDs() []ops.QubitID {
	ids := make([]ops.QubitID, len(r))
	for i, q := range r {
		ids[i] = q.id
	}
	return ids
}

// Release deallocates every qubit and returns the first error.
func (r Qureg) Release() error {
	var first error
	for _, q := range r {
		if err := q.Release(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
