package fuzz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/term"
)

func TestExprProducesValidDAG(t *testing.T) {
	g := New(42, 4, 3)
	expr := g.Expr(2)
	require.NoError(t, expr.Validate())
	require.NotEmpty(t, expr.Nodes)
}

func TestExprIsDeterministicForSeed(t *testing.T) {
	a := New(7, 3, 2).Expr(3)
	b := New(7, 3, 2).Expr(3)
	require.Equal(t, len(a.Nodes), len(b.Nodes))
	for i := range a.Nodes {
		require.Equal(t, a.Nodes[i].Key(), b.Nodes[i].Key())
	}
}

func TestExprZeroDepthWrapsLeafInIdentityLut(t *testing.T) {
	g := New(1, 2, 2)
	expr := g.Expr(0)
	require.NoError(t, expr.Validate())

	root, ok := expr.Root().(*term.Lut)
	require.True(t, ok)
	require.Equal(t, 1, root.K())
	prog, ok := expr.Nodes[root.Kids[0]].(*term.Program)
	require.True(t, ok)
	require.Equal(t, uint64(0b10), prog.Value)
	_, isVar := expr.Nodes[root.Kids[1]].VarName()
	require.True(t, isVar)
}

func TestRandomVectorsAreDeterministicAndWellShaped(t *testing.T) {
	a := RandomVectors(99, 4, 10)
	b := RandomVectors(99, 4, 10)
	require.Equal(t, a, b)
	require.Len(t, a, 10)
	for _, v := range a {
		require.Len(t, v, 4)
	}
}
