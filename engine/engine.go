// Package engine implements the command pipeline: the Engine contract, the
// dispatch core that owns qubit ids, and the compiler engines that buffer,
// rewrite and map the instruction stream before it reaches a backend.
package engine

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qdeck/ops"
)

var (
	ErrLastEngine      = errors.New("engine has no successor")
	ErrNoBackend       = errors.New("main engine requires a backend")
	ErrEngineReused    = errors.New("engine already belongs to a chain")
	ErrForeignQubit    = errors.New("qubit belongs to a different main engine")
	ErrQubitReleased   = errors.New("qubit has been released")
	ErrNotMeasured     = errors.New("qubit has no measurement result")
	ErrNoDecomposition = errors.New("no decomposition rule found")
	ErrTooManyQubits   = errors.New("command acts on more qubits than the topology can route")
	ErrNoPhysicalQubit = errors.New("no free physical qubit")
)

// Engine is one stage of the pipeline. Implementations embed Base, which
// links them into a chain owned by a MainEngine.
type Engine interface {
	// Receive consumes a batch of commands. It may forward, buffer,
	// rewrite or drop them.
	Receive(cmds []ops.Command) error
	// IsAvailable reports whether cmd can be handled downstream without
	// further rewriting.
	IsAvailable(cmd ops.Command) bool

	base() *Base
}

// Base carries the forward reference to the next engine. The chain itself is
// owned by the MainEngine.
type Base struct {
	next Engine
	main *MainEngine
}

func (b *Base) base() *Base { return b }

// Next returns the successor or nil for the terminal engine.
func (b *Base) Next() Engine { return b.next }

// Main returns the owning main engine, or nil before linking.
func (b *Base) Main() *MainEngine { return b.main }

// IsLast reports whether this engine terminates the chain.
func (b *Base) IsLast() bool { return b.next == nil }

// Send forwards cmds to the next engine.
func (b *Base) Send(cmds []ops.Command) error {
	if b.next == nil {
		return ErrLastEngine
	}
	return b.next.Receive(cmds)
}

// IsAvailable delegates to the next engine.
func (b *Base) IsAvailable(cmd ops.Command) bool {
	if b.next == nil {
		return false
	}
	return b.next.IsAvailable(cmd)
}

// Logger returns the main engine's logger.
func (b *Base) Logger() *zap.Logger {
	if b.main == nil {
		return zap.NewNop()
	}
	return b.main.logger
}
