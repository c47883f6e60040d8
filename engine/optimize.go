package engine

import (
	"slices"
	"sort"

	"go.uber.org/zap"

	"qdeck/ops"
)

// DefaultCacheSize is the per-qubit buffer bound of a LocalOptimizer.
const DefaultCacheSize = 10

type pending struct {
	cmd    ops.Command
	seq    uint64
	qubits []ops.QubitID
}

// LocalOptimizer buffers commands per qubit and simplifies adjacent pairs:
// identities are dropped, inverse pairs cancel and mergeable pairs fuse.
// Commands sharing a qubit keep their relative order.
type LocalOptimizer struct {
	Base
	cacheSize int
	seq       uint64
	pipes     map[ops.QubitID][]*pending
}

func NewLocalOptimizer(cacheSize int) *LocalOptimizer {
	if cacheSize < 1 {
		cacheSize = 1
	}
	return &LocalOptimizer{
		cacheSize: cacheSize,
		pipes:     make(map[ops.QubitID][]*pending),
	}
}

func (o *LocalOptimizer) Receive(cmds []ops.Command) error {
	for _, cmd := range cmds {
		if cmd.Gate.Kind() == ops.KindFlush {
			if err := o.drain(); err != nil {
				return err
			}
			if err := o.Send([]ops.Command{cmd}); err != nil {
				return err
			}
			continue
		}
		if len(cmd.AllQubits()) == 0 {
			if err := o.Send([]ops.Command{cmd}); err != nil {
				return err
			}
			continue
		}
		p := o.cache(cmd)
		if err := o.check(p.qubits, ops.IsFastForwarding(cmd.Gate)); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the number of buffered commands on qubit id.
func (o *LocalOptimizer) Pending(id ops.QubitID) int {
	return len(o.pipes[id])
}

func (o *LocalOptimizer) cache(cmd ops.Command) *pending {
	qubits := cmd.AllQubits()
	slices.Sort(qubits)
	qubits = slices.Compact(qubits)
	p := &pending{cmd: cmd, seq: o.seq, qubits: qubits}
	o.seq++
	for _, q := range qubits {
		o.pipes[q] = append(o.pipes[q], p)
	}
	return p
}

func (o *LocalOptimizer) check(qubits []ops.QubitID, fastForward bool) error {
	for _, q := range qubits {
		o.optimize(q)
	}
	for _, q := range qubits {
		n := len(o.pipes[q])
		switch {
		case fastForward:
		case n >= o.cacheSize:
			n = n - o.cacheSize + 1
		default:
			n = 0
		}
		if err := o.sendPipeline(q, n); err != nil {
			return err
		}
		if len(o.pipes[q]) == 0 {
			delete(o.pipes, q)
		}
	}
	return nil
}

func (o *LocalOptimizer) optimize(q ops.QubitID) {
	for i := 0; i < len(o.pipes[q]); {
		pipe := o.pipes[q]
		p := pipe[i]
		if ops.IsIdentity(p.cmd.Gate) {
			o.remove(p)
			i = max(i-1, 0)
			continue
		}
		if i+1 >= len(pipe) {
			break
		}
		next := pipe[i+1]
		if ops.IsStructural(p.cmd.Gate) || ops.IsStructural(next.cmd.Gate) || !o.adjacent(p, next) {
			i++
			continue
		}
		if p.cmd.Cancels(next.cmd) {
			o.Logger().Debug("cancel pair", zap.Stringer("cmd", p.cmd))
			o.remove(p)
			o.remove(next)
			i = max(i-1, 0)
			continue
		}
		if merged, err := p.cmd.Merge(next.cmd); err == nil {
			o.Logger().Debug("merge pair", zap.Stringer("cmd", merged))
			p.cmd = merged
			o.remove(next)
			continue
		}
		i++
	}
}

// adjacent reports whether next directly follows p on every qubit they touch.
func (o *LocalOptimizer) adjacent(p, next *pending) bool {
	if !slices.Equal(p.qubits, next.qubits) {
		return false
	}
	for _, q := range p.qubits {
		pipe := o.pipes[q]
		i := slices.Index(pipe, p)
		if i < 0 || i+1 >= len(pipe) || pipe[i+1] != next {
			return false
		}
	}
	return true
}

func (o *LocalOptimizer) remove(p *pending) {
	for _, q := range p.qubits {
		o.pipes[q] = slices.DeleteFunc(o.pipes[q], func(e *pending) bool { return e == p })
	}
}

func (o *LocalOptimizer) sendPipeline(q ops.QubitID, n int) error {
	for range n {
		pipe := o.pipes[q]
		if len(pipe) == 0 {
			return nil
		}
		if err := o.release(pipe[0]); err != nil {
			return err
		}
	}
	return nil
}

// release forwards p after everything queued before it on its qubits.
func (o *LocalOptimizer) release(p *pending) error {
	for _, q := range p.qubits {
		for o.pipes[q][0] != p {
			if err := o.release(o.pipes[q][0]); err != nil {
				return err
			}
		}
	}
	o.remove(p)
	return o.Send([]ops.Command{p.cmd})
}

func (o *LocalOptimizer) drain() error {
	for q := range o.pipes {
		o.optimize(q)
	}
	var all []*pending
	for _, pipe := range o.pipes {
		for _, p := range pipe {
			if !slices.Contains(all, p) {
				all = append(all, p)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	for _, p := range all {
		if len(p.qubits) == 0 || !slices.Contains(o.pipes[p.qubits[0]], p) {
			continue
		}
		if err := o.release(p); err != nil {
			return err
		}
	}
	clear(o.pipes)
	return nil
}
