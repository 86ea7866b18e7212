package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/analysis"
	"techmap/internal/egraph"
	"techmap/internal/rules/cellfile"
	"techmap/internal/term"
)

func newCellGraph() *egraph.EGraph[analysis.Value] {
	return egraph.New[analysis.Value](term.CellLang{}, analysis.Lattice{})
}

const sampleLibrary = `
"AND2_X1" area=1.0 arity=2
"AND2_X2" area=1.6 arity=2
"INVX1" area=0.5 arity=1
"NAND2_X1" area=0.8 arity=2
"XNOR2_X1" area=1.2 arity=2
`

func TestCellExpansionRulesSkipsUnrecognizedAndUnsupportedGates(t *testing.T) {
	lib, err := cellfile.Load(sampleLibrary)
	require.NoError(t, err)

	rs, err := CellExpansionRules(lib)
	require.NoError(t, err)

	names := make(map[string]bool, len(rs))
	for _, r := range rs {
		names[r.Name] = true
	}
	require.True(t, names["cell-AND2_X1"])
	require.True(t, names["cell-AND2_X2"])
	require.True(t, names["cell-INVX1"])
	// NAND/XNOR aren't primitive gates in this term language, so no rule
	// should be generated for them.
	require.False(t, names["cell-NAND2_X1"])
	require.False(t, names["cell-XNOR2_X1"])
	require.Len(t, rs, 3)
}

func TestCellExpansionRuleInstantiatesNamedCell(t *testing.T) {
	lib, err := cellfile.Load(`"AND2_X1" area=1.0 arity=2`)
	require.NoError(t, err)
	rs, err := CellExpansionRules(lib)
	require.NoError(t, err)
	require.Len(t, rs, 1)

	g := newCellGraph()
	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "b"})
	and := g.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a, b}})

	n, err := rs[0].Run(g)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, g.Rebuild())

	foundCell := false
	for _, node := range g.Nodes(g.Find(and)) {
		if c, ok := node.(*term.Cell); ok && c.Name == "AND2_X1" {
			foundCell = true
		}
	}
	require.True(t, foundCell)
}

func TestCellExpansionRulesAreDeterministicallyOrdered(t *testing.T) {
	lib, err := cellfile.Load(sampleLibrary)
	require.NoError(t, err)

	first, err := CellExpansionRules(lib)
	require.NoError(t, err)
	second, err := CellExpansionRules(lib)
	require.NoError(t, err)

	require.Len(t, first, len(second))
	for i := range first {
		require.Equal(t, first[i].Name, second[i].Name)
	}
}
