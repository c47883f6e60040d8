package decompositions

import (
	"qdeck/engine"
	"qdeck/ops"
)

// R2RzAndPh rewrites a controlled R(θ) as Rz(θ) and Ph(θ/2).
var R2RzAndPh = engine.DecompositionRule{
	Name: "r2rzandph",
	Kind: ops.KindR,
	Decompose: func(cmd ops.Command) ([]ops.Command, error) {
		theta := cmd.Gate.(ops.Rotation).Angle
		e := from(cmd)
		e.apply(ops.Rz(theta), cmd.Targets())
		e.apply(ops.Ph(theta/2), cmd.Targets())
		return e.out, nil
	},
	Recognize: hasControls,
}

// Ph2R moves a controlled global phase onto the last control as an R gate
// controlled by the remaining ones.
var Ph2R = engine.DecompositionRule{
	Name: "ph2r",
	Kind: ops.KindPh,
	Decompose: func(cmd ops.Command) ([]ops.Command, error) {
		theta := cmd.Gate.(ops.Rotation).Angle
		last := cmd.Controls[len(cmd.Controls)-1]
		e := from(cmd)
		e.bare(ops.R(theta), cmd.Controls[:len(cmd.Controls)-1], one(last))
		return e.out, nil
	},
	Recognize: hasControls,
}

// GlobalPhase drops an uncontrolled phase gate.
var GlobalPhase = engine.DecompositionRule{
	Name: "globalphase",
	Kind: ops.KindPh,
	Decompose: func(cmd ops.Command) ([]ops.Command, error) {
		return nil, nil
	},
	Recognize: noControls,
}
