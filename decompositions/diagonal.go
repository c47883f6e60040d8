package decompositions

import (
	"math"
	"slices"

	"github.com/pkg/errors"

	"qdeck/engine"
	"qdeck/ops"
)

// Diag2UCR rewrites a diagonal gate on n qubits into n uniformly controlled
// Rz layers followed by a phase gate, which restores the global phase.
//
// Layer k pairs adjacent phases (φ_2i, φ_2i+1) into the angle φ_2i+1 − φ_2i
// applied to qubit k, controlled uniformly by the qubits above it, and
// carries their mean into the next layer.
var Diag2UCR = engine.DecompositionRule{
	Name:      "diag2ucr",
	Kind:      ops.KindDiagonal,
	Decompose: decomposeDiagonal,
}

func decomposeDiagonal(cmd ops.Command) ([]ops.Command, error) {
	g, ok := cmd.Gate.(ops.DiagonalGate)
	if !ok {
		return nil, errors.Errorf("expected a diagonal gate, got %s", cmd.Gate)
	}
	qubits := cmd.Targets()
	phases := slices.Clone(g.Phases)
	if len(phases) != 1<<len(qubits) {
		return nil, errors.Errorf("diagonal of %d phases applied to %d qubits", len(phases), len(qubits))
	}

	e := from(cmd)
	n := len(phases)
	for k := 0; n > 1; k++ {
		angles := make([]float64, n/2)
		for i := 0; i < n; i += 2 {
			angles[i/2] = math.Mod(phases[i+1]-phases[i], 4*math.Pi)
			phases[i/2] = (phases[i] + phases[i+1]) / 2
		}
		n /= 2
		e.apply(ops.UniformlyControlledRz(angles), slices.Clone(qubits[k+1:]), one(qubits[k]))
	}
	e.apply(ops.Ph(phases[0]), one(qubits[len(qubits)-1]))
	return e.out, nil
}
