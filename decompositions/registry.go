package decompositions

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"

	"qdeck/engine"
)

// Registry maps module names to their rules.
type Registry struct {
	modules map[string][]engine.DecompositionRule
	order   []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{modules: make(map[string][]engine.DecompositionRule)}
}

// Register adds a rule module. Registering a name twice is a programming
// error and panics.
func (r *Registry) Register(name string, rules ...engine.DecompositionRule) {
	if _, exists := r.modules[name]; exists {
		panic(fmt.Sprintf("decomposition module '%s' already registered", name))
	}
	r.modules[name] = rules
	r.order = append(r.order, name)
}

// Names returns the module names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Rules returns the rules of one module.
func (r *Registry) Rules(name string) ([]engine.DecompositionRule, bool) {
	rules, ok := r.modules[name]
	return rules, ok
}

// RuleSet builds a rule set from the named modules, or from every module
// when no names are given.
func (r *Registry) RuleSet(names ...string) (*engine.RuleSet, error) {
	if len(names) == 0 {
		names = r.order
	}
	set := engine.NewRuleSet()
	for _, name := range names {
		rules, ok := r.modules[name]
		if !ok {
			return nil, errors.Errorf("unknown decomposition module %q", name)
		}
		set.Add(rules...)
	}
	return set, nil
}

// Standard returns a registry holding every built-in module.
func Standard() *Registry {
	r := New()
	r.Register("diag2ucr", Diag2UCR)
	r.Register("ucr2cnot", UCRy2CNOT, UCRz2CNOT)
	r.Register("unitary2rzry", Unitary2RzRy)
	r.Register("cunitary2rzry", CUnitary2RzRy)
	r.Register("u3tou", U3ToU)
	r.Register("r2rzandph", R2RzAndPh)
	r.Register("ph2r", Ph2R)
	r.Register("globalphase", GlobalPhase)
	r.Register("crz2cxandrz", CRz2CXAndRz)
	r.Register("swap2cnot", Swap2CNOT)
	r.Register("toffoli2cnotandt", Toffoli2CNOTAndT)
	return r
}
