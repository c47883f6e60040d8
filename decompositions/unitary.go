package decompositions

import (
	"github.com/pkg/errors"

	"qdeck/engine"
	"qdeck/ops"
)

// Unitary2RzRy rewrites U(α, β, γ, δ) into Rz(δ), Ry(γ), Rz(β) and Ph(α).
var Unitary2RzRy = engine.DecompositionRule{
	Name:      "unitary2rzry",
	Kind:      ops.KindU,
	Decompose: decomposeU,
	Recognize: noControls,
}

// CUnitary2RzRy is the controlled form; every produced gate keeps the
// controls.
var CUnitary2RzRy = engine.DecompositionRule{
	Name:      "cunitary2rzry",
	Kind:      ops.KindU,
	Decompose: decomposeU,
	Recognize: hasControls,
}

// U3ToU rewrites u3(θ, φ, λ) as U((φ+λ)/2, φ, θ, λ).
var U3ToU = engine.DecompositionRule{
	Name: "u3tou",
	Kind: ops.KindU3,
	Decompose: func(cmd ops.Command) ([]ops.Command, error) {
		g, ok := cmd.Gate.(ops.U3Gate)
		if !ok {
			return nil, errors.Errorf("expected u3, got %s", cmd.Gate)
		}
		return []ops.Command{cmd.WithGate(g.AsU())}, nil
	},
}

func decomposeU(cmd ops.Command) ([]ops.Command, error) {
	g, ok := cmd.Gate.(ops.UGate)
	if !ok {
		return nil, errors.Errorf("expected U, got %s", cmd.Gate)
	}
	t := cmd.Targets()
	e := from(cmd)
	e.apply(ops.Rz(g.Delta), t)
	e.apply(ops.Ry(g.Gamma), t)
	e.apply(ops.Rz(g.Beta), t)
	e.apply(ops.Ph(g.Alpha), t)
	return e.out, nil
}
