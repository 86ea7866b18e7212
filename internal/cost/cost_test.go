package cost

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/rules/cellfile"
	"techmap/internal/term"
)

func TestKLUTChargesOnePerFittingLut(t *testing.T) {
	k := KLUT(4, 2)
	lut := &term.Lut{Kids: []int{0, 1, 2, 3, 4}} // Program + 4 inputs == k+1
	require.Equal(t, 1.0, k.Local(lut))
}

func TestKLUTChargesQuadraticForOversizedLut(t *testing.T) {
	k := KLUT(4, 2)
	lut := &term.Lut{Kids: make([]int, 7)} // m=7 > k+1=5
	require.Equal(t, 2*7.0*7.0, k.Local(lut))
}

func TestKLUTChargesInfinityForGates(t *testing.T) {
	k := KLUT(4, 2)
	require.True(t, math.IsInf(k.Local(&term.Gate{GateOp: term.OpAnd, Kids: []int{0, 1}}), 1))
}

func TestKLUTZeroForStructuralLeaves(t *testing.T) {
	k := KLUT(4, 2)
	require.Equal(t, 0.0, k.Local(&term.Const{Value: true}))
	require.Equal(t, 0.0, k.Local(&term.Program{Value: 1}))
	require.Equal(t, 0.0, k.Local(&term.DC{}))
}

func TestDepthChargesOnlyMultiInputLutAndCertainGates(t *testing.T) {
	d := Depth()
	require.Equal(t, 0.0, d.Local(&term.Lut{Kids: []int{0, 1}})) // 1-input buffer
	require.Equal(t, 1.0, d.Local(&term.Lut{Kids: []int{0, 1, 2}}))
	require.Equal(t, 1.0, d.Local(&term.Gate{GateOp: term.OpXor}))
	require.Equal(t, 0.0, d.Local(&term.Reg{}))
}

func TestAreaUsesLibraryAndInfinitesOutForbiddenGates(t *testing.T) {
	lib, err := cellfile.Load(`"INVX1" area=0.5 arity=1
"AND2X1" area=1.0 arity=2
`)
	require.NoError(t, err)
	a := Area(lib)
	require.Equal(t, 1.0, a.Local(&term.Cell{Name: "AND2X1"}))
	require.Equal(t, 0.5, a.Local(&term.Var{Name: "x"}))
	require.True(t, math.IsInf(a.Local(&term.Gate{GateOp: term.OpOr}), 1))
}

func TestGateFilterInfinitesOutUnlistedOps(t *testing.T) {
	g := Gate(map[string]float64{"And": 1})
	require.Equal(t, 1.0, g.Local(&term.Gate{GateOp: term.OpAnd}))
	require.True(t, math.IsInf(g.Local(&term.Gate{GateOp: term.OpOr}), 1))
}

func TestNegativeIsNotGreedySafe(t *testing.T) {
	n := Negative(Depth())
	require.False(t, n.GreedySafe())
	require.Equal(t, -1.0, n.Local(&term.Lut{Kids: []int{0, 1, 2}}))
}

func TestConjunctivePanicsOnILPOnlyOperand(t *testing.T) {
	require.Panics(t, func() {
		Conjunctive(Depth(), Negative(Depth()))
	})
}

func TestPurgedInfinitesOutNamedOpsAndDelegatesOtherwise(t *testing.T) {
	p := Purged(Depth(), map[string]bool{"And": true})
	require.True(t, math.IsInf(p.Local(&term.Gate{GateOp: term.OpAnd}), 1))
	require.Equal(t, 1.0, p.Local(&term.Gate{GateOp: term.OpXor})) // delegates to Depth
}

func TestPurgedMatchesCellNameNotOpName(t *testing.T) {
	p := Purged(Area(mustLib(t)), map[string]bool{"AND2X1": true})
	require.True(t, math.IsInf(p.Local(&term.Cell{Name: "AND2X1"}), 1))
	require.Equal(t, 0.5, p.Local(&term.Cell{Name: "INVX1"})) // not purged: INVX1's library area
}

func TestPurgedWithNoNamesReturnsInnerUnchanged(t *testing.T) {
	inner := Depth()
	require.Equal(t, inner, Purged(inner, nil))
}

func mustLib(t *testing.T) *cellfile.Library {
	t.Helper()
	lib, err := cellfile.Load(`"INVX1" area=0.5 arity=1
"AND2X1" area=1.0 arity=2
`)
	require.NoError(t, err)
	return lib
}
