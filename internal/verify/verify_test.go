package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/dag"
	"techmap/internal/term"
)

// andExpr builds (And a b) as an Expr.
func andExpr(t *testing.T) *dag.Expr {
	t.Helper()
	b := dag.NewBuilder()
	a := b.Add(&term.Var{Name: "a"})
	bb := b.Add(&term.Var{Name: "b"})
	root := b.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a, bb}})
	return b.Build(root)
}

// andLutExpr builds (LUT 8 a b), the LUT-bridged equivalent of And(a,b).
func andLutExpr(t *testing.T) *dag.Expr {
	t.Helper()
	b := dag.NewBuilder()
	a := b.Add(&term.Var{Name: "a"})
	bb := b.Add(&term.Var{Name: "b"})
	prog := b.Add(&term.Program{Value: 8})
	root := b.Add(&term.Lut{Kids: []int{prog, a, bb}})
	return b.Build(root)
}

// orExpr builds (Or a b), functionally distinct from And(a,b).
func orExpr(t *testing.T) *dag.Expr {
	t.Helper()
	b := dag.NewBuilder()
	a := b.Add(&term.Var{Name: "a"})
	bb := b.Add(&term.Var{Name: "b"})
	root := b.Add(&term.Gate{GateOp: term.OpOr, Kids: []int{a, bb}})
	return b.Build(root)
}

func TestEvalAndGate(t *testing.T) {
	e := andExpr(t)
	v, err := Eval(e, map[string]bool{"a": true, "b": true})
	require.NoError(t, err)
	require.Equal(t, []bool{true}, v)

	v, err = Eval(e, map[string]bool{"a": true, "b": false})
	require.NoError(t, err)
	require.Equal(t, []bool{false}, v)
}

func TestEvalLutMatchesGateBridge(t *testing.T) {
	gate := andExpr(t)
	lut := andLutExpr(t)
	for _, a := range []bool{false, true} {
		for _, b := range []bool{false, true} {
			assign := map[string]bool{"a": a, "b": b}
			gv, err := Eval(gate, assign)
			require.NoError(t, err)
			lv, err := Eval(lut, assign)
			require.NoError(t, err)
			require.Equal(t, gv, lv)
		}
	}
}

func TestEquivalentConfirmsAndGateMatchesItsLutBridge(t *testing.T) {
	ok, counterexample, err := Equivalent(andExpr(t), andLutExpr(t))
	require.NoError(t, err)
	require.True(t, ok)
	require.Nil(t, counterexample)
}

func TestEquivalentRejectsDifferentFunctions(t *testing.T) {
	ok, counterexample, err := Equivalent(andExpr(t), orExpr(t))
	require.NoError(t, err)
	require.False(t, ok)
	require.NotNil(t, counterexample)
}

func TestCollectVarsDeduplicatesAndSorts(t *testing.T) {
	e := andExpr(t)
	require.Equal(t, []string{"a", "b"}, CollectVars(e))
}
