package ilp

import (
	"testing"
	"time"

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

	ex, err := New(g, cost.KLUT(4, 1))
	require.NoError(t, err)
	expr, total, exact, err := ex.Extract(root, 2*time.Second)
	require.NoError(t, err)
	require.True(t, exact)
	require.Greater(t, total, 0.0)

	_, isLut := expr.Root().(*term.Lut)
	require.True(t, isLut)
}

func TestNewRejectsNegativeCost(t *testing.T) {
	g := egraph.New[analysis.Value](term.LutLang{}, analysis.Lattice{})
	_, err := New(g, cost.Negative(cost.Depth()))
	require.Error(t, err)
}
