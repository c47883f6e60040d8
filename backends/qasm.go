package backends

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"qdeck/engine"
	"qdeck/ops"
	"qdeck/qasm"
)

// qasmNames maps gate kinds to qelib1 names by control count.
var qasmNames = map[ops.Kind][3]string{
	ops.KindX:       {"x", "cx", "ccx"},
	ops.KindY:       {"y", "cy"},
	ops.KindZ:       {"z", "cz"},
	ops.KindH:       {"h", "ch"},
	ops.KindS:       {"s"},
	ops.KindSdg:     {"sdg"},
	ops.KindT:       {"t"},
	ops.KindTdg:     {"tdg"},
	ops.KindSqrtX:   {"sx"},
	ops.KindSqrtXdg: {"sxdg"},
	ops.KindRx:      {"rx", "crx"},
	ops.KindRy:      {"ry", "cry"},
	ops.KindRz:      {"rz", "crz"},
	ops.KindR:       {"u1", "cu1"},
	ops.KindU3:      {"u3", "cu3"},
	ops.KindSwap:    {"swap", "cswap"},
}

// QASMBackend writes the command stream as OpenQASM 2.0. IsAvailable admits
// exactly the commands qelib1 can express, so an upstream AutoReplacer
// lowers everything else.
type QASMBackend struct {
	engine.Base
	lines  []string
	qubits int
}

func NewQASMBackend() *QASMBackend { return &QASMBackend{} }

func (b *QASMBackend) IsAvailable(cmd ops.Command) bool {
	if ops.IsStructural(cmd.Gate) {
		return true
	}
	_, ok := qasmName(cmd)
	return ok
}

func qasmName(cmd ops.Command) (string, bool) {
	names, ok := qasmNames[cmd.Gate.Kind()]
	n := len(cmd.Controls)
	if !ok || n >= len(names) || names[n] == "" {
		return "", false
	}
	return names[n], true
}

func (b *QASMBackend) Receive(cmds []ops.Command) error {
	for _, cmd := range cmds {
		if err := b.write(cmd); err != nil {
			return err
		}
	}
	reportMeasurements(b.Main(), cmds, false)
	return nil
}

func (b *QASMBackend) write(cmd ops.Command) error {
	for _, id := range cmd.AllQubits() {
		b.qubits = max(b.qubits, int(id)+1)
	}
	switch cmd.Gate.Kind() {
	case ops.KindAllocate, ops.KindDeallocate, ops.KindFlush:
		return nil
	case ops.KindMeasure:
		for _, id := range cmd.Targets() {
			b.lines = append(b.lines, fmt.Sprintf("measure q[%d] -> c[%d];", id, id))
		}
		return nil
	case ops.KindBarrier:
		b.lines = append(b.lines, "barrier "+operands(cmd.Targets())+";")
		return nil
	}

	name, ok := qasmName(cmd)
	if !ok {
		return errors.Errorf("cannot express %s in OpenQASM", cmd)
	}
	params := ""
	switch g := cmd.Gate.(type) {
	case ops.Rotation:
		period := 4 * math.Pi
		if g.Kind() == ops.KindR {
			period = 2 * math.Pi
		}
		params = "(" + qasm.FormatParam(signed(g.Angle, period)) + ")"
	case ops.U3Gate:
		params = "(" + qasm.FormatParam(signed(g.Theta, 4*math.Pi)) + ", " +
			qasm.FormatParam(signed(g.Phi, 4*math.Pi)) + ", " +
			qasm.FormatParam(signed(g.Lambda, 4*math.Pi)) + ")"
	}
	targets := cmd.Targets()
	if cmd.Gate.Kind() == ops.KindSwap {
		b.lines = append(b.lines, name+params+" "+operands(slices.Concat(cmd.Controls, targets))+";")
		return nil
	}
	for _, t := range targets {
		b.lines = append(b.lines, name+params+" "+operands(slices.Concat(cmd.Controls, []ops.QubitID{t}))+";")
	}
	return nil
}

// signed maps a normalized angle in [0, period) to (-period/2, period/2].
func signed(a, period float64) float64 {
	if a > period/2 {
		return a - period
	}
	return a
}

func operands(ids []ops.QubitID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("q[%d]", id)
	}
	return strings.Join(parts, ", ")
}

// QASM returns the program text.
func (b *QASMBackend) QASM() string {
	var sb strings.Builder
	n := max(b.qubits, 1)
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", n)
	fmt.Fprintf(&sb, "creg c[%d];\n\n", n)
	for _, l := range b.lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteQASM writes QASM() to w.
func (b *QASMBackend) WriteQASM(w io.Writer) error {
	_, err := io.WriteString(w, b.QASM())
	return errors.Wrap(err, "write qasm")
}
