package ops

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// QubitID is a weak reference to a qubit. It carries no ownership.
type QubitID int

// FlushID is the qubit id carried by flush commands.
const FlushID QubitID = -1

// Tag is comparable metadata attached to a command.
type Tag any

type (
	// ComputeTag marks commands emitted inside a Compute section.
	ComputeTag struct{}
	// UncomputeTag marks commands emitted by Uncompute.
	UncomputeTag struct{}
	// DirtyQubitTag marks an allocation whose qubit may start in any state.
	DirtyQubitTag struct{}
	// LogicalQubitIDTag records the logical id of a remapped qubit.
	LogicalQubitIDTag struct{ ID QubitID }
)

// Command is one instruction of the stream. Values are immutable; every
// transformation returns a new Command.
type Command struct {
	Gate     Gate
	Qubits   [][]QubitID
	Controls []QubitID
	Tags     []Tag
}

// NewCommand builds a command and checks that controls and targets are
// disjoint. Controls are sorted and deduplicated.
func NewCommand(gate Gate, qubits [][]QubitID, controls ...QubitID) (Command, error) {
	cmd := Command{Gate: gate, Qubits: cloneGroups(qubits)}
	return cmd.WithControls(controls...)
}

// MustCommand is NewCommand for callers that construct known-valid commands.
func MustCommand(gate Gate, qubits [][]QubitID, controls ...QubitID) Command {
	cmd, err := NewCommand(gate, qubits, controls...)
	if err != nil {
		panic(err)
	}
	return cmd
}

// Targets returns the target ids of all groups in order.
func (c Command) Targets() []QubitID {
	var out []QubitID
	for _, g := range c.Qubits {
		out = append(out, g...)
	}
	return out
}

// AllQubits returns the controls followed by the targets.
func (c Command) AllQubits() []QubitID {
	out := append([]QubitID(nil), c.Controls...)
	return append(out, c.Targets()...)
}

// WithControls returns a copy with ids added to the control set.
func (c Command) WithControls(ids ...QubitID) (Command, error) {
	targets := c.Targets()
	ctrls := append(slices.Clone(c.Controls), ids...)
	slices.Sort(ctrls)
	ctrls = slices.Compact(ctrls)
	for _, id := range ctrls {
		if slices.Contains(targets, id) {
			return Command{}, errors.Wrapf(ErrControlOverlap, "qubit %d", id)
		}
	}
	out := c.clone()
	if len(ctrls) == 0 {
		ctrls = nil
	}
	out.Controls = ctrls
	return out, nil
}

// WithTags returns a copy with tags appended.
func (c Command) WithTags(tags ...Tag) Command {
	out := c.clone()
	out.Tags = append(out.Tags, tags...)
	return out
}

// WithoutTags returns a copy without the tags for which drop reports true.
func (c Command) WithoutTags(drop func(Tag) bool) Command {
	out := c.clone()
	out.Tags = slices.DeleteFunc(out.Tags, drop)
	if len(out.Tags) == 0 {
		out.Tags = nil
	}
	return out
}

// WithGate returns a copy acting with g instead.
func (c Command) WithGate(g Gate) Command {
	out := c.clone()
	out.Gate = g
	return out
}

// Remap returns a copy with every qubit id passed through fn.
func (c Command) Remap(fn func(QubitID) QubitID) Command {
	out := c.clone()
	for _, g := range out.Qubits {
		for i, id := range g {
			g[i] = fn(id)
		}
	}
	for i, id := range out.Controls {
		out.Controls[i] = fn(id)
	}
	return out
}

// HasTag reports whether t is attached.
func (c Command) HasTag(t Tag) bool {
	return slices.Contains(c.Tags, t)
}

// LogicalID returns the id recorded by a LogicalQubitIDTag.
func (c Command) LogicalID() (QubitID, bool) {
	for _, t := range c.Tags {
		if l, ok := t.(LogicalQubitIDTag); ok {
			return l.ID, true
		}
	}
	return 0, false
}

// Inverse returns the command applying the inverse gate.
func (c Command) Inverse() (Command, error) {
	inv, err := c.Gate.Inverse()
	if err != nil {
		return Command{}, err
	}
	return c.WithGate(inv), nil
}

// Merge fuses c followed by other. Both must act on the same qubits with the
// same controls and tags.
func (c Command) Merge(other Command) (Command, error) {
	if !c.sameSupport(other) {
		return Command{}, ErrNotMergeable
	}
	g, err := c.Gate.Merge(other.Gate)
	if err != nil {
		return Command{}, err
	}
	return c.WithGate(g), nil
}

// Cancels reports whether other undoes c.
func (c Command) Cancels(other Command) bool {
	if !c.sameSupport(other) {
		return false
	}
	inv, err := c.Gate.Inverse()
	return err == nil && inv.Equal(other.Gate)
}

// Equal compares gate, qubits, controls and tags.
func (c Command) Equal(other Command) bool {
	return c.sameSupport(other) && c.Gate.Equal(other.Gate)
}

func (c Command) sameSupport(o Command) bool {
	if len(c.Qubits) != len(o.Qubits) {
		return false
	}
	for i := range c.Qubits {
		if !slices.Equal(c.Qubits[i], o.Qubits[i]) {
			return false
		}
	}
	return slices.Equal(c.Controls, o.Controls) && slices.Equal(c.Tags, o.Tags)
}

func (c Command) clone() Command {
	return Command{
		Gate:     c.Gate,
		Qubits:   cloneGroups(c.Qubits),
		Controls: slices.Clone(c.Controls),
		Tags:     slices.Clone(c.Tags),
	}
}

func cloneGroups(groups [][]QubitID) [][]QubitID {
	out := make([][]QubitID, len(groups))
	for i, g := range groups {
		out[i] = slices.Clone(g)
	}
	return out
}

// String renders the command as "CX | ( Qureg[0], Qureg[1] )".
func (c Command) String() string {
	groups := c.Qubits
	if len(c.Controls) > 0 {
		groups = append([][]QubitID{c.Controls}, groups...)
	}
	var q string
	if len(groups) == 1 {
		q = FormatQureg(groups[0])
	} else {
		parts := make([]string, len(groups))
		for i, g := range groups {
			parts[i] = FormatQureg(g)
		}
		q = "( " + strings.Join(parts, ", ") + " )"
	}
	return strings.Repeat("C", len(c.Controls)) + c.Gate.String() + " | " + q
}

// FormatQureg renders ids with consecutive runs collapsed: Qureg[0-2, 5].
func FormatQureg(ids []QubitID) string {
	var parts []string
	for i := 0; i < len(ids); {
		j := i
		for j+1 < len(ids) && ids[j+1] == ids[j]+1 {
			j++
		}
		if j > i {
			parts = append(parts, strconv.Itoa(int(ids[i]))+"-"+strconv.Itoa(int(ids[j])))
		} else {
			parts = append(parts, strconv.Itoa(int(ids[i])))
		}
		i = j + 1
	}
	return "Qureg[" + strings.Join(parts, ", ") + "]"
}
