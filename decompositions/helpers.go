package decompositions

import (
	"slices"

	"qdeck/ops"
)

// emitter builds commands that inherit the controls and tags of a parent.
type emitter struct {
	parent ops.Command
	out    []ops.Command
}

func from(cmd ops.Command) *emitter { return &emitter{parent: cmd} }

// apply adds gate on groups, keeping the parent's controls.
func (e *emitter) apply(g ops.Gate, groups ...[]ops.QubitID) {
	e.controlled(g, nil, groups...)
}

// controlled adds gate with extra controls on top of the parent's.
func (e *emitter) controlled(g ops.Gate, extra []ops.QubitID, groups ...[]ops.QubitID) {
	ctrls := append(slices.Clone(e.parent.Controls), extra...)
	cmd := ops.MustCommand(g, groups, ctrls...)
	e.out = append(e.out, cmd.WithTags(e.parent.Tags...))
}

// bare adds gate without inheriting the parent's controls.
func (e *emitter) bare(g ops.Gate, ctrls []ops.QubitID, groups ...[]ops.QubitID) {
	cmd := ops.MustCommand(g, groups, ctrls...)
	e.out = append(e.out, cmd.WithTags(e.parent.Tags...))
}

func one(id ops.QubitID) []ops.QubitID { return []ops.QubitID{id} }

func hasControls(cmd ops.Command) bool { return len(cmd.Controls) > 0 }

func noControls(cmd ops.Command) bool { return len(cmd.Controls) == 0 }
