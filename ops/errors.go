package ops

import "github.com/pkg/errors"

var (
	// ErrNotMergeable is returned by Merge when two gates cannot be fused into one.
	ErrNotMergeable = errors.New("gates are not mergeable")
	// ErrNotInvertible is returned by Inverse for pseudo-operations without an inverse.
	ErrNotInvertible = errors.New("gate has no inverse")
	// ErrNoMatrix is returned by MatrixOf for structural gates.
	ErrNoMatrix = errors.New("gate has no matrix representation")

	ErrDiagonalLength    = errors.New("diagonal length must be a power of two and at least 2")
	ErrDiagonalMagnitude = errors.New("diagonal entries must have magnitude 1")
	ErrMatrixShape       = errors.New("matrix must be square with a power-of-two dimension")
	ErrControlOverlap    = errors.New("control qubits overlap with target qubits")
)
