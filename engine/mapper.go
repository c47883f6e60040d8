package engine

import (
	"maps"
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qdeck/ops"
)

// Mapper places logical qubits on a physical topology. Two-qubit commands on
// non-adjacent qubits are preceded by swaps that move the first qubit next to
// the second. The swap sequence is correct but not optimal.
type Mapper struct {
	Base
	topo  Topology
	l2p   map[ops.QubitID]ops.QubitID
	p2l   map[ops.QubitID]ops.QubitID
	swaps [][2]ops.QubitID
}

func NewMapper(topo Topology) *Mapper {
	return &Mapper{
		topo: topo,
		l2p:  make(map[ops.QubitID]ops.QubitID),
		p2l:  make(map[ops.QubitID]ops.QubitID),
	}
}

// CurrentMapping returns a copy of the logical to physical mapping.
func (m *Mapper) CurrentMapping() map[ops.QubitID]ops.QubitID {
	return maps.Clone(m.l2p)
}

// Swaps returns every swap inserted so far as physical id pairs.
func (m *Mapper) Swaps() [][2]ops.QubitID {
	return slices.Clone(m.swaps)
}

// SwapDepth returns the depth of the inserted swaps.
func (m *Mapper) SwapDepth() int {
	return ReturnSwapDepth(m.swaps)
}

// IsAvailable rejects gates on more than two qubits so that upstream
// replacers decompose them before routing.
func (m *Mapper) IsAvailable(cmd ops.Command) bool {
	if !ops.IsStructural(cmd.Gate) {
		qubits := cmd.AllQubits()
		slices.Sort(qubits)
		if len(slices.Compact(qubits)) > 2 {
			return false
		}
	}
	return m.Base.IsAvailable(cmd)
}

func (m *Mapper) Receive(cmds []ops.Command) error {
	for _, cmd := range cmds {
		if err := m.handle(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mapper) handle(cmd ops.Command) error {
	switch cmd.Gate.Kind() {
	case ops.KindFlush:
		return m.Send([]ops.Command{cmd})
	case ops.KindAllocate:
		l := cmd.Targets()[0]
		p, ok := m.freeSlot()
		if !ok {
			return errors.Wrapf(ErrNoPhysicalQubit, "allocate logical %d", l)
		}
		m.l2p[l], m.p2l[p] = p, l
		m.Logger().Debug("placed qubit", zap.Int("qubit", int(l)), zap.Int("physical", int(p)))
		return m.forward(cmd, l)
	case ops.KindDeallocate:
		l := cmd.Targets()[0]
		out, err := m.translate(cmd)
		if err != nil {
			return err
		}
		if err := m.Send([]ops.Command{out.WithTags(ops.LogicalQubitIDTag{ID: l})}); err != nil {
			return err
		}
		delete(m.p2l, m.l2p[l])
		delete(m.l2p, l)
		return nil
	case ops.KindMeasure:
		return m.forward(cmd, cmd.Targets()[0])
	case ops.KindBarrier:
		out, err := m.translate(cmd)
		if err != nil {
			return err
		}
		return m.Send([]ops.Command{out})
	}

	qubits := cmd.AllQubits()
	slices.Sort(qubits)
	qubits = slices.Compact(qubits)
	switch {
	case len(qubits) > 2:
		return errors.Wrapf(ErrTooManyQubits, "%s", cmd)
	case len(qubits) == 2:
		if err := m.route(cmd.AllQubits()[0], otherOf(qubits, cmd.AllQubits()[0])); err != nil {
			return err
		}
	}
	out, err := m.translate(cmd)
	if err != nil {
		return err
	}
	return m.Send([]ops.Command{out})
}

func (m *Mapper) forward(cmd ops.Command, logical ops.QubitID) error {
	out, err := m.translate(cmd)
	if err != nil {
		return err
	}
	return m.Send([]ops.Command{out.WithTags(ops.LogicalQubitIDTag{ID: logical})})
}

func (m *Mapper) translate(cmd ops.Command) (ops.Command, error) {
	for _, l := range cmd.AllQubits() {
		if _, ok := m.l2p[l]; !ok {
			return ops.Command{}, errors.Errorf("logical qubit %d is not mapped", l)
		}
	}
	return cmd.Remap(func(l ops.QubitID) ops.QubitID { return m.l2p[l] }), nil
}

func (m *Mapper) freeSlot() (ops.QubitID, bool) {
	for p := ops.QubitID(0); int(p) < m.topo.Size(); p++ {
		if _, used := m.p2l[p]; !used {
			return p, true
		}
	}
	return 0, false
}

// route moves logical a along a shortest path until it neighbors logical b.
func (m *Mapper) route(a, b ops.QubitID) error {
	pa, ok := m.l2p[a]
	if !ok {
		return errors.Errorf("logical qubit %d is not mapped", a)
	}
	pb, ok := m.l2p[b]
	if !ok {
		return errors.Errorf("logical qubit %d is not mapped", b)
	}
	if Adjacent(m.topo, pa, pb) {
		return nil
	}
	path := ShortestPath(m.topo, pa, pb)
	if path == nil {
		return errors.Errorf("physical qubits %d and %d are not connected", pa, pb)
	}
	for k := 0; k+2 < len(path); k++ {
		if err := m.swap(path[k], path[k+1]); err != nil {
			return err
		}
	}
	return nil
}

// swap exchanges the contents of physical qubits from and to. from must be
// occupied. An empty target slot is allocated for the swap and the vacated
// slot is released afterwards.
func (m *Mapper) swap(from, to ops.QubitID) error {
	swap := ops.MustCommand(ops.Swap, [][]ops.QubitID{{from}, {to}})
	lf := m.p2l[from]
	lt, occupied := m.p2l[to]

	var cmds []ops.Command
	if occupied {
		cmds = []ops.Command{swap}
		m.l2p[lf], m.l2p[lt] = to, from
		m.p2l[from], m.p2l[to] = lt, lf
	} else {
		cmds = []ops.Command{
			ops.MustCommand(ops.Allocate, [][]ops.QubitID{{to}}),
			swap,
			ops.MustCommand(ops.Deallocate, [][]ops.QubitID{{from}}),
		}
		m.l2p[lf] = to
		m.p2l[to] = lf
		delete(m.p2l, from)
	}
	m.swaps = append(m.swaps, [2]ops.QubitID{from, to})
	m.Logger().Debug("inserted swap", zap.Int("from", int(from)), zap.Int("to", int(to)))
	return m.Send(cmds)
}

func otherOf(pair []ops.QubitID, id ops.QubitID) ops.QubitID {
	if pair[0] == id {
		return pair[1]
	}
	return pair[0]
}

// ReturnSwapDepth returns the depth of a swap sequence: each swap starts
// after the latest swap touching either of its qubits.
func ReturnSwapDepth(swaps [][2]ops.QubitID) int {
	depth := make(map[ops.QubitID]int)
	best := 0
	for _, s := range swaps {
		d := max(depth[s[0]], depth[s[1]]) + 1
		depth[s[0]], depth[s[1]] = d, d
		best = max(best, d)
	}
	return best
}
