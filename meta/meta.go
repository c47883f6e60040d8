// Package meta provides scoped rewrites of everything emitted through a main
// engine: added controls, compute/uncompute bracketing and daggered blocks.
package meta

import (
	"github.com/pkg/errors"

	"qdeck/engine"
	"qdeck/ops"
)

var (
	ErrStructuralInDagger = errors.New("allocation, deallocation and measurement are not allowed inside a dagger block")
	ErrUncomputeDealloc   = errors.New("cannot uncompute a deallocation")
)

// Control runs fn with every gate it emits conditioned on ctrls. Structural
// commands and compute/uncompute sections pass through unchanged.
func Control(eng *engine.MainEngine, ctrls engine.Register, fn func() error) error {
	qs := ctrls.Qubits()
	ids := make([]ops.QubitID, len(qs))
	for i, q := range qs {
		if q.Engine() != eng {
			return errors.Wrapf(engine.ErrForeignQubit, "control qubit %d", q.ID())
		}
		ids[i] = q.ID()
	}
	eng.PushModifier(func(cmd ops.Command) (ops.Command, bool, error) {
		if ops.IsStructural(cmd.Gate) || cmd.HasTag(ops.ComputeTag{}) || cmd.HasTag(ops.UncomputeTag{}) {
			return cmd, true, nil
		}
		out, err := cmd.WithControls(ids...)
		return out, true, err
	})
	defer eng.PopModifier()
	return fn()
}

// Computation records the commands of a Compute section so that Uncompute
// can emit their inverses.
type Computation struct {
	eng  *engine.MainEngine
	cmds []ops.Command
	done bool
}

// Compute runs fn, tagging and recording every emitted command.
func Compute(eng *engine.MainEngine, fn func() error) (*Computation, error) {
	c := &Computation{eng: eng}
	eng.PushModifier(func(cmd ops.Command) (ops.Command, bool, error) {
		c.cmds = append(c.cmds, cmd)
		return cmd.WithTags(ops.ComputeTag{}), true, nil
	})
	err := fn()
	eng.PopModifier()
	return c, err
}

// Uncompute emits the inverse of the recorded section in reverse order.
// Qubits allocated during the section are released. Calling it twice does
// nothing.
func (c *Computation) Uncompute() error {
	if c.done {
		return nil
	}
	c.done = true
	for i := len(c.cmds) - 1; i >= 0; i-- {
		cmd := c.cmds[i]
		if cmd.Gate.Kind() == ops.KindDeallocate {
			return errors.Wrapf(ErrUncomputeDealloc, "%s", cmd)
		}
		inv, err := cmd.Inverse()
		if err != nil {
			return errors.Wrapf(err, "uncompute %s", cmd)
		}
		if err := c.eng.Emit(inv.WithTags(ops.UncomputeTag{})); err != nil {
			return err
		}
	}
	return nil
}

// Dagger runs fn without sending anything, then emits the inverse of what
// fn produced in reverse order.
func Dagger(eng *engine.MainEngine, fn func() error) error {
	var cmds []ops.Command
	eng.PushModifier(func(cmd ops.Command) (ops.Command, bool, error) {
		if ops.IsStructural(cmd.Gate) && cmd.Gate.Kind() != ops.KindBarrier {
			return cmd, false, errors.Wrapf(ErrStructuralInDagger, "%s", cmd)
		}
		cmds = append(cmds, cmd)
		return cmd, false, nil
	})
	err := fn()
	eng.PopModifier()
	if err != nil {
		return err
	}
	for i := len(cmds) - 1; i >= 0; i-- {
		inv, err := cmds[i].Inverse()
		if err != nil {
			return errors.Wrapf(err, "dagger %s", cmds[i])
		}
		if err := eng.Emit(inv); err != nil {
			return err
		}
	}
	return nil
}
