package engine

import (
	"slices"

	"qdeck/ops"
)

// Recorder saves every command it receives. As the terminal engine it accepts
// everything; otherwise it forwards.
type Recorder struct {
	Base
	cmds []ops.Command
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Receive(cmds []ops.Command) error {
	r.cmds = append(r.cmds, cmds...)
	if r.IsLast() {
		for _, cmd := range cmds {
			if cmd.Gate.Kind() == ops.KindMeasure && r.main != nil {
				for _, id := range cmd.Targets() {
					r.main.SetMeasurementResult(logicalID(cmd, id), false)
				}
			}
		}
		return nil
	}
	return r.Send(cmds)
}

func (r *Recorder) IsAvailable(cmd ops.Command) bool {
	if r.IsLast() {
		return true
	}
	return r.Base.IsAvailable(cmd)
}

// Commands returns a copy of everything received so far.
func (r *Recorder) Commands() []ops.Command {
	return slices.Clone(r.cmds)
}

// Reset drops the recorded commands.
func (r *Recorder) Reset() { r.cmds = nil }

// InstructionFilter answers availability queries with a predicate so that an
// upstream AutoReplacer decomposes everything the predicate rejects. Accepted
// commands must also be available downstream when there is a next engine.
// Structural commands are always available.
type InstructionFilter struct {
	Base
	accept func(cmd ops.Command) bool
}

func NewInstructionFilter(accept func(cmd ops.Command) bool) *InstructionFilter {
	return &InstructionFilter{accept: accept}
}

func (f *InstructionFilter) IsAvailable(cmd ops.Command) bool {
	if ops.IsStructural(cmd.Gate) {
		return true
	}
	if !f.accept(cmd) {
		return false
	}
	return f.IsLast() || f.Base.IsAvailable(cmd)
}

func (f *InstructionFilter) Receive(cmds []ops.Command) error {
	return f.Send(cmds)
}

// GateFilter accepts commands whose gate kind is listed and whose control
// count does not exceed maxControls. A negative maxControls disables the
// control limit.
func GateFilter(kinds []ops.Kind, maxControls int) func(cmd ops.Command) bool {
	return func(cmd ops.Command) bool {
		if maxControls >= 0 && len(cmd.Controls) > maxControls {
			return false
		}
		return slices.Contains(kinds, cmd.Gate.Kind())
	}
}

// CommandModifier applies fn to each command before forwarding it.
type CommandModifier struct {
	Base
	fn func(cmd ops.Command) ops.Command
}

func NewCommandModifier(fn func(cmd ops.Command) ops.Command) *CommandModifier {
	return &CommandModifier{fn: fn}
}

func (c *CommandModifier) Receive(cmds []ops.Command) error {
	out := make([]ops.Command, len(cmds))
	for i, cmd := range cmds {
		out[i] = c.fn(cmd)
	}
	return c.Send(out)
}

// TagRemover strips the listed tag values. With no tags it removes
// ComputeTag and UncomputeTag.
type TagRemover struct {
	Base
	tags []ops.Tag
}

func NewTagRemover(tags ...ops.Tag) *TagRemover {
	if len(tags) == 0 {
		tags = []ops.Tag{ops.ComputeTag{}, ops.UncomputeTag{}}
	}
	return &TagRemover{tags: tags}
}

func (t *TagRemover) Receive(cmds []ops.Command) error {
	out := make([]ops.Command, len(cmds))
	for i, cmd := range cmds {
		out[i] = cmd.WithoutTags(func(tag ops.Tag) bool {
			return slices.Contains(t.tags, tag)
		})
	}
	return t.Send(out)
}

func logicalID(cmd ops.Command, physical ops.QubitID) ops.QubitID {
	if id, ok := cmd.LogicalID(); ok {
		return id
	}
	return physical
}
