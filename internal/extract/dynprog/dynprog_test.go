package dynprog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/analysis"
	"techmap/internal/cost"
	"techmap/internal/egraph"
	"techmap/internal/rules"
	"techmap/internal/term"
)

func TestExtractPrefersLutOverGateAfterBridgeRule(t *testing.T) {
	g := egraph.New[analysis.Value](term.LutLang{}, analysis.Lattice{})
	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "b"})
	root := g.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a, b}})

	rule, err := rules.New("and-to-lut", "(And ?a ?b)", "(LUT 8 ?a ?b)")
	require.NoError(t, err)
	_, err = rule.Run(g)
	require.NoError(t, err)
	require.NoError(t, g.Rebuild())

	ex := New(g, cost.KLUT(4, 1))
	expr, total, err := ex.Extract(root)
	require.NoError(t, err)
	require.Greater(t, total, 0.0)

	_, isLut := expr.Root().(*term.Lut)
	require.True(t, isLut)
}

func TestFindBestSharesCommonSubexpressionAcrossCandidates(t *testing.T) {
	// (And a b) appears as both children of the root Or; after extraction,
	// the merged expression should contain exactly one copy of the And
	// node, not two, since mergeInto interns it. KLUT charges bare gates
	// infinity, so Depth is used to keep them extractable.
	g := egraph.New[analysis.Value](term.LutLang{}, analysis.Lattice{})
	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "b"})
	and1 := g.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a, b}})
	root := g.Add(&term.Gate{GateOp: term.OpOr, Kids: []int{and1, and1}})

	ex := New(g, cost.Depth())
	expr, _, err := ex.Extract(root)
	require.NoError(t, err)

	andCount := 0
	for _, n := range expr.Nodes {
		if gate, ok := n.(*term.Gate); ok && gate.GateOp == term.OpAnd {
			andCount++
		}
	}
	require.Equal(t, 1, andCount)
}

func TestFindBestCachesResultForRepeatedClass(t *testing.T) {
	g := egraph.New[analysis.Value](term.LutLang{}, analysis.Lattice{})
	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "b"})
	root := g.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a, b}})

	// Depth keeps the bare And finite-cost (KLUT would charge it infinity
	// and leave the front empty).
	ex := New(g, cost.Depth())
	first := ex.FindBest(root)
	second := ex.FindBest(root)
	require.True(t, first[0] == second[0], "expected the cached Pareto front to be returned, not recomputed")
}

func TestExtractErrorsWhenClassHasNoFiniteCostNode(t *testing.T) {
	// A bare gate is infinite-cost under KLUT (it isn't bridged to a LUT),
	// and has no other representation in its eclass, so extraction must fail.
	g := egraph.New[analysis.Value](term.LutLang{}, analysis.Lattice{})
	a := g.Add(&term.Var{Name: "a"})
	root := g.Add(&term.Gate{GateOp: term.OpInv, Kids: []int{a}})

	ex := New(g, cost.KLUT(4, 1))
	_, _, err := ex.Extract(root)
	require.Error(t, err)
}
