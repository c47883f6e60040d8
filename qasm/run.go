package qasm

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qdeck/engine"
	"qdeck/ops"
)

// gateDef describes a qelib1 gate: its parameter and operand counts and how
// many leading operands are controls.
type gateDef struct {
	params   int
	qubits   int
	controls int
	build    func(p []float64) ops.Gate
}

func fixed(g ops.Gate) func([]float64) ops.Gate {
	return func([]float64) ops.Gate { return g }
}

var gateDefs = map[string]gateDef{
	"id":    {0, 1, 0, nil},
	"x":     {0, 1, 0, fixed(ops.X)},
	"y":     {0, 1, 0, fixed(ops.Y)},
	"z":     {0, 1, 0, fixed(ops.Z)},
	"h":     {0, 1, 0, fixed(ops.H)},
	"s":     {0, 1, 0, fixed(ops.S)},
	"sdg":   {0, 1, 0, fixed(ops.Sdg)},
	"t":     {0, 1, 0, fixed(ops.T)},
	"tdg":   {0, 1, 0, fixed(ops.Tdg)},
	"sx":    {0, 1, 0, fixed(ops.SqrtX)},
	"sxdg":  {0, 1, 0, fixed(ops.SqrtXdg)},
	"rx":    {1, 1, 0, func(p []float64) ops.Gate { return ops.Rx(p[0]) }},
	"ry":    {1, 1, 0, func(p []float64) ops.Gate { return ops.Ry(p[0]) }},
	"rz":    {1, 1, 0, func(p []float64) ops.Gate { return ops.Rz(p[0]) }},
	"p":     {1, 1, 0, func(p []float64) ops.Gate { return ops.NewU1(p[0]) }},
	"u1":    {1, 1, 0, func(p []float64) ops.Gate { return ops.NewU1(p[0]) }},
	"u2":    {2, 1, 0, func(p []float64) ops.Gate { return ops.NewU2(p[0], p[1]) }},
	"u3":    {3, 1, 0, func(p []float64) ops.Gate { return ops.U3(p[0], p[1], p[2]) }},
	"u":     {3, 1, 0, func(p []float64) ops.Gate { return ops.U3(p[0], p[1], p[2]) }},
	"cx":    {0, 2, 1, fixed(ops.X)},
	"cy":    {0, 2, 1, fixed(ops.Y)},
	"cz":    {0, 2, 1, fixed(ops.Z)},
	"ch":    {0, 2, 1, fixed(ops.H)},
	"crx":   {1, 2, 1, func(p []float64) ops.Gate { return ops.Rx(p[0]) }},
	"cry":   {1, 2, 1, func(p []float64) ops.Gate { return ops.Ry(p[0]) }},
	"crz":   {1, 2, 1, func(p []float64) ops.Gate { return ops.Rz(p[0]) }},
	"cp":    {1, 2, 1, func(p []float64) ops.Gate { return ops.NewU1(p[0]) }},
	"cu1":   {1, 2, 1, func(p []float64) ops.Gate { return ops.NewU1(p[0]) }},
	"cu3":   {3, 2, 1, func(p []float64) ops.Gate { return ops.U3(p[0], p[1], p[2]) }},
	"swap":  {0, 2, 0, fixed(ops.Swap)},
	"ccx":   {0, 3, 2, fixed(ops.X)},
	"cswap": {0, 3, 1, fixed(ops.Swap)},
}

// Gate returns the gate, controls and targets of a gate statement. The
// identity gate has a nil gate.
func (s Statement) Gate() (ops.Gate, []int, []int, error) {
	def, ok := gateDefs[s.Op]
	if !ok {
		return nil, nil, nil, errors.Wrapf(ErrUnsupported, "line %d: %s", s.Line, s.Op)
	}
	if def.build == nil {
		return nil, nil, s.Qubits, nil
	}
	return def.build(s.Params), s.Qubits[:def.controls], s.Qubits[def.controls:], nil
}

// Run allocates the quantum register on eng, applies every statement and
// returns the register with the classical bits read after a final flush.
// The register is left allocated so callers can inspect the backend.
func (p *Program) Run(eng *engine.MainEngine) (engine.Qureg, []bool, error) {
	reg, err := eng.AllocateQureg(p.Qubits)
	if err != nil {
		return nil, nil, err
	}
	pick := func(idx []int) engine.Qureg {
		out := make(engine.Qureg, len(idx))
		for i, k := range idx {
			out[i] = reg[k]
		}
		return out
	}

	measured := make(map[int]*engine.Qubit)
	for _, st := range p.Statements {
		switch st.Op {
		case "measure":
			q := reg[st.Qubits[0]]
			if err := eng.Measure(q); err != nil {
				return reg, nil, errors.Wrapf(err, "line %d", st.Line)
			}
			measured[st.Cbit] = q
			continue
		case "barrier":
			if err := eng.Apply(ops.Barrier, pick(st.Qubits)); err != nil {
				return reg, nil, errors.Wrapf(err, "line %d", st.Line)
			}
			continue
		}
		g, ctrls, targets, err := st.Gate()
		if err != nil {
			return reg, nil, err
		}
		if g == nil {
			continue
		}
		var cr engine.Register
		if len(ctrls) > 0 {
			cr = pick(ctrls)
		}
		if err := eng.ApplyControlled(g, cr, pick(targets)); err != nil {
			return reg, nil, errors.Wrapf(err, "line %d", st.Line)
		}
	}
	if err := eng.Flush(false); err != nil {
		return reg, nil, err
	}

	bits := make([]bool, p.Cbits)
	for c, q := range measured {
		v, err := eng.Result(q)
		if err != nil {
			return reg, nil, err
		}
		bits[c] = v
	}
	eng.Logger().Debug("program finished",
		zap.Int("statements", len(p.Statements)),
		zap.Int("measured", len(measured)))
	return reg, bits, nil
}
