// Package qasm reads a subset of OpenQASM 2.0 and replays it on a main
// engine.
package qasm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrSyntax      = errors.New("syntax error")
	ErrUnsupported = errors.New("unsupported statement")
	ErrRegister    = errors.New("invalid register")
)

const operandPattern = `\w+(?:\[\d+\])?`

var (
	gateRegex    = regexp.MustCompile(`^(\w+)\s*(?:\(\s*(` + paramPattern + `(?:\s*,\s*` + paramPattern + `)*)\s*\))?\s+(` + operandPattern + `(?:\s*,\s*` + operandPattern + `)*)$`)
	operandRegex = regexp.MustCompile(`^(\w+)(?:\[(\d+)\])?$`)
	measureRegex = regexp.MustCompile(`^measure\s+(` + operandPattern + `)\s*->\s*(` + operandPattern + `)$`)
	qregRegex    = regexp.MustCompile(`^qreg\s+(\w+)\[(\d+)\]$`)
	cregRegex    = regexp.MustCompile(`^creg\s+(\w+)\[(\d+)\]$`)
	barrierRegex = regexp.MustCompile(`^barrier\s+(.+)$`)
	versionRegex = regexp.MustCompile(`^OPENQASM\s+2(\.\d+)?$`)
)

// Statement is one executable instruction. Gate statements hold their
// operands in Qubits; a measurement has one qubit and one classical bit.
type Statement struct {
	Line   int
	Op     string
	Params []float64
	Qubits []int
	Cbit   int
}

// Program is a parsed source file with a single quantum and an optional
// single classical register.
type Program struct {
	QReg       string
	Qubits     int
	CReg       string
	Cbits      int
	Statements []Statement
}

// Parse reads QASM source. Unknown gates, reset and classically controlled
// statements are rejected with their line number.
func Parse(src string) (*Program, error) {
	p := &Program{}
	for n, line := range strings.Split(src, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		for _, stmt := range strings.Split(line, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := p.parseStatement(n+1, stmt); err != nil {
				return nil, errors.Wrapf(err, "line %d", n+1)
			}
		}
	}
	if p.QReg == "" {
		return nil, errors.Wrap(ErrRegister, "no qreg declared")
	}
	return p, nil
}

func (p *Program) parseStatement(line int, stmt string) error {
	switch {
	case versionRegex.MatchString(stmt), strings.HasPrefix(stmt, "include"):
		return nil
	case strings.HasPrefix(stmt, "reset"), strings.HasPrefix(stmt, "if"):
		return errors.Wrapf(ErrUnsupported, "%q", stmt)
	}

	if m := qregRegex.FindStringSubmatch(stmt); m != nil {
		if p.QReg != "" {
			return errors.Wrap(ErrRegister, "only one qreg is supported")
		}
		p.QReg = m[1]
		p.Qubits, _ = strconv.Atoi(m[2])
		return nil
	}
	if m := cregRegex.FindStringSubmatch(stmt); m != nil {
		if p.CReg != "" {
			return errors.Wrap(ErrRegister, "only one creg is supported")
		}
		p.CReg = m[1]
		p.Cbits, _ = strconv.Atoi(m[2])
		return nil
	}

	if m := measureRegex.FindStringSubmatch(stmt); m != nil {
		qs, err := p.operand(m[1], p.QReg, p.Qubits)
		if err != nil {
			return err
		}
		cs, err := p.operand(m[2], p.CReg, p.Cbits)
		if err != nil {
			return err
		}
		if len(qs) != len(cs) {
			return errors.Wrapf(ErrSyntax, "measure of %d qubits into %d bits", len(qs), len(cs))
		}
		for i := range qs {
			p.Statements = append(p.Statements, Statement{Line: line, Op: "measure", Qubits: []int{qs[i]}, Cbit: cs[i]})
		}
		return nil
	}

	if m := barrierRegex.FindStringSubmatch(stmt); m != nil {
		var qubits []int
		for _, arg := range strings.Split(m[1], ",") {
			qs, err := p.operand(strings.TrimSpace(arg), p.QReg, p.Qubits)
			if err != nil {
				return err
			}
			qubits = append(qubits, qs...)
		}
		p.Statements = append(p.Statements, Statement{Line: line, Op: "barrier", Qubits: qubits})
		return nil
	}

	m := gateRegex.FindStringSubmatch(stmt)
	if m == nil {
		return errors.Wrapf(ErrSyntax, "%q", stmt)
	}
	name := strings.ToLower(m[1])
	def, ok := gateDefs[name]
	if !ok {
		return errors.Wrapf(ErrUnsupported, "unknown gate %q", m[1])
	}

	var params []float64
	if m[2] != "" {
		for _, s := range strings.Split(m[2], ",") {
			v, ok := ParseParam(s)
			if !ok {
				return errors.Wrapf(ErrSyntax, "bad parameter %q", s)
			}
			params = append(params, v)
		}
	}
	if len(params) != def.params {
		return errors.Wrapf(ErrSyntax, "%s takes %d parameters, got %d", name, def.params, len(params))
	}

	args := strings.Split(m[3], ",")
	operands := make([][]int, len(args))
	for i, arg := range args {
		qs, err := p.operand(strings.TrimSpace(arg), p.QReg, p.Qubits)
		if err != nil {
			return err
		}
		operands[i] = qs
	}
	if len(operands) != def.qubits {
		return errors.Wrapf(ErrSyntax, "%s takes %d qubits, got %d", name, def.qubits, len(operands))
	}

	// A whole-register operand broadcasts a single qubit gate.
	if def.qubits == 1 {
		for _, q := range operands[0] {
			p.Statements = append(p.Statements, Statement{Line: line, Op: name, Params: params, Qubits: []int{q}})
		}
		return nil
	}
	qubits := make([]int, len(operands))
	for i, qs := range operands {
		if len(qs) != 1 {
			return errors.Wrapf(ErrSyntax, "%s needs indexed operands", name)
		}
		qubits[i] = qs[0]
	}
	p.Statements = append(p.Statements, Statement{Line: line, Op: name, Params: params, Qubits: qubits})
	return nil
}

// operand resolves r[i] or r to indices into the named register.
func (p *Program) operand(s, reg string, size int) ([]int, error) {
	m := operandRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, errors.Wrapf(ErrSyntax, "bad operand %q", s)
	}
	if reg == "" || m[1] != reg {
		return nil, errors.Wrapf(ErrRegister, "undeclared register %q", m[1])
	}
	if m[2] == "" {
		all := make([]int, size)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	i, _ := strconv.Atoi(m[2])
	if i >= size {
		return nil, errors.Wrapf(ErrRegister, "%s[%d] out of range", reg, i)
	}
	return []int{i}, nil
}
