package dag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/term"
)

// buildLut44234 builds (LUT 44234 s1 s0 b a), the §8 boundary fixture.
func buildLut44234(t *testing.T) *Expr {
	t.Helper()
	b := NewBuilder()
	s1 := b.Add(&term.Var{Name: "s1"})
	s0 := b.Add(&term.Var{Name: "s0"})
	bb := b.Add(&term.Var{Name: "b"})
	aa := b.Add(&term.Var{Name: "a"})
	prog := b.Add(&term.Program{Value: 44234})
	lut := b.Add(&term.Lut{Kids: []int{prog, s1, s0, bb, aa}})
	return b.Build(lut)
}

func TestGetLutCountK(t *testing.T) {
	e := buildLut44234(t)
	require.Equal(t, 1, GetLutCountK(e, 4))
	require.Equal(t, 0, GetLutCountK(e, 3))
	require.Equal(t, 1, GetLutCount(e))
}

func TestValidateAcceptsWellFormedExpr(t *testing.T) {
	e := buildLut44234(t)
	require.NoError(t, e.Validate())
}

func TestValidateRejectsOutOfOrderChild(t *testing.T) {
	e := &Expr{Nodes: []term.Node{
		&term.Lut{Kids: []int{1}}, // child index 1 >= owning index 0
	}}
	require.Error(t, e.Validate())
}

func TestValidateRejectsBusNotLast(t *testing.T) {
	e := &Expr{Nodes: []term.Node{
		&term.Var{Name: "a"},
		&term.Bus{Kids: []int{0}},
		&term.Var{Name: "b"},
	}}
	require.Error(t, e.Validate())
}

func TestValidateRejectsProgramNotFirstChildOfLut(t *testing.T) {
	e := &Expr{Nodes: []term.Node{
		&term.Var{Name: "a"},
		&term.Program{Value: 8},
		&term.Lut{Kids: []int{0, 1}}, // Program at index 1 is the second child
	}}
	require.Error(t, e.Validate())
}

func TestBuilderDeduplicatesStructurallyEqualNodes(t *testing.T) {
	b := NewBuilder()
	a1 := b.Add(&term.Var{Name: "a"})
	a2 := b.Add(&term.Var{Name: "a"})
	require.Equal(t, a1, a2)

	g1 := b.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a1, a1}})
	g2 := b.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a1, a1}})
	require.Equal(t, g1, g2)

	e := b.Build(g1)
	require.Len(t, e.Nodes, 2)
}

func TestDepth(t *testing.T) {
	e := buildLut44234(t)
	// root Lut -> deepest child is a Var leaf, one edge away.
	require.Equal(t, 1, Depth(e))
}
