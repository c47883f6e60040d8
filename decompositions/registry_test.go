package decompositions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdeck/ops"
)

func TestStandardRegistry(t *testing.T) {
	r := Standard()
	assert.Equal(t, []string{
		"diag2ucr", "ucr2cnot", "unitary2rzry", "cunitary2rzry", "u3tou", "r2rzandph",
		"ph2r", "globalphase", "crz2cxandrz", "swap2cnot", "toffoli2cnotandt",
	}, r.Names())

	rules, ok := r.Rules("ucr2cnot")
	require.True(t, ok)
	assert.Len(t, rules, 2)

	all, err := r.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, 12, all.Len())

	some, err := r.RuleSet("swap2cnot", "toffoli2cnotandt")
	require.NoError(t, err)
	assert.Equal(t, 2, some.Len())
	_, err = some.Lookup(ops.MustCommand(ops.Ph(1), [][]ops.QubitID{{0}}))
	assert.Error(t, err)

	_, err = r.RuleSet("nope")
	assert.ErrorContains(t, err, `unknown decomposition module "nope"`)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := New()
	r.Register("swap2cnot", Swap2CNOT)
	assert.PanicsWithValue(t, "decomposition module 'swap2cnot' already registered", func() {
		r.Register("swap2cnot", Swap2CNOT)
	})
}
