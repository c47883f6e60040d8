package engine

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qdeck/ops"
)

// DecompositionRule rewrites commands of one gate kind into an equivalent
// sequence. Recognize narrows the rule to specific command shapes; a nil
// recognizer accepts every command of the kind.
type DecompositionRule struct {
	Name      string
	Kind      ops.Kind
	Decompose func(cmd ops.Command) ([]ops.Command, error)
	Recognize func(cmd ops.Command) bool
}

// Accepts reports whether the rule applies to cmd.
func (r DecompositionRule) Accepts(cmd ops.Command) bool {
	if cmd.Gate.Kind() != r.Kind {
		return false
	}
	return r.Recognize == nil || r.Recognize(cmd)
}

// RuleSet indexes rules by gate kind in registration order. It is built once
// and read-only while commands flow.
type RuleSet struct {
	byKind map[ops.Kind][]DecompositionRule
	n      int
}

func NewRuleSet(rules ...DecompositionRule) *RuleSet {
	s := &RuleSet{byKind: make(map[ops.Kind][]DecompositionRule)}
	s.Add(rules...)
	return s
}

// Add appends rules.
func (s *RuleSet) Add(rules ...DecompositionRule) {
	for _, r := range rules {
		s.byKind[r.Kind] = append(s.byKind[r.Kind], r)
		s.n++
	}
}

// Len returns the number of rules.
func (s *RuleSet) Len() int { return s.n }

// Lookup returns the first rule of cmd's kind whose recognizer accepts it.
func (s *RuleSet) Lookup(cmd ops.Command) (DecompositionRule, error) {
	for _, r := range s.byKind[cmd.Gate.Kind()] {
		if r.Accepts(cmd) {
			return r, nil
		}
	}
	return DecompositionRule{}, errors.Wrapf(ErrNoDecomposition, "%s", cmd)
}

// AutoReplacer forwards commands the rest of the chain supports and expands
// the others with the rule set, re-checking every produced command. The rule
// set is trusted to terminate.
type AutoReplacer struct {
	Base
	rules *RuleSet
}

func NewAutoReplacer(rules *RuleSet) *AutoReplacer {
	if rules == nil {
		rules = NewRuleSet()
	}
	return &AutoReplacer{rules: rules}
}

func (a *AutoReplacer) Receive(cmds []ops.Command) error {
	for _, cmd := range cmds {
		if ops.IsStructural(cmd.Gate) || a.IsAvailable(cmd) {
			if err := a.Send([]ops.Command{cmd}); err != nil {
				return err
			}
			continue
		}
		rule, err := a.rules.Lookup(cmd)
		if err != nil {
			return err
		}
		out, err := rule.Decompose(cmd)
		if err != nil {
			return errors.Wrapf(err, "decompose %s with %s", cmd, rule.Name)
		}
		a.Logger().Debug("decomposed",
			zap.String("rule", rule.Name),
			zap.Stringer("cmd", cmd),
			zap.Int("produced", len(out)))
		if err := a.Receive(out); err != nil {
			return err
		}
	}
	return nil
}
