package greedy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/analysis"
	"techmap/internal/cost"
	"techmap/internal/dag"
	"techmap/internal/egraph"
	"techmap/internal/rules"
	"techmap/internal/term"
)

func TestExtractPrefersLutOverGateAfterBridgeRule(t *testing.T) {
	g := egraph.New[analysis.Value](term.LutLang{}, analysis.Lattice{})
	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "b"})
	and := g.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a, b}})

	r, err := rules.New("and-to-lut", "(And ?a ?b)", "(LUT 8 ?a ?b)")
	require.NoError(t, err)
	_, err = r.Run(g)
	require.NoError(t, err)
	require.NoError(t, g.Rebuild())

	ex, err := New(g, cost.KLUT(6, 1))
	require.NoError(t, err)
	expr, total, err := ex.Extract(and)
	require.NoError(t, err)
	// KLUT: 1 for the Lut, 0 for its Program, 1 for each of the two Vars.
	require.Equal(t, 3.0, total)
	require.Equal(t, 1, dag.GetLutCount(expr))
}

func TestExtractDedupesSharedChild(t *testing.T) {
	g := egraph.New[analysis.Value](term.LutLang{}, analysis.Lattice{})
	a := g.Add(&term.Var{Name: "a"})
	gate := g.Add(&term.Gate{GateOp: term.OpXor, Kids: []int{a, a}})

	ex, err := New(g, cost.KLUT(6, 1))
	require.NoError(t, err)
	// XOR is infinite-cost under KLUT (gate never bridged here), so assert
	// the dedup logic instead via a Gate cost that is finite for Xor and
	// charges Var, so a double-counted `a` would show in the total.
	ex2, err := New(g, cost.Gate(map[string]float64{"Xor": 1, "Var": 1}))
	require.NoError(t, err)
	_, total, err := ex2.Extract(gate)
	require.NoError(t, err)
	require.Equal(t, 2.0, total) // 1 for the Xor, 1 for `a` counted once, not twice

	_, _, err = ex.Extract(gate)
	require.Error(t, err) // no finite-cost extraction: Xor is an unbridged gate
}
