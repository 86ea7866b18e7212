package egraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/term"
)

// constAnalysis is a minimal constant-propagation lattice for tests: Top
// means "unknown", a bool pointer means "proven constant", and joining two
// disagreeing constants is the conflict case required by §4.3 invariant
// (iii) (0 != 1 never merge).
type constValue struct {
	known bool
	value bool
}

type constAnalysis struct{}

func (constAnalysis) Make(g *EGraph[constValue], n term.Node) constValue {
	if c, ok := n.(*term.Const); ok {
		return constValue{known: true, value: c.Value}
	}
	return constValue{}
}

func (constAnalysis) Join(a, b constValue) (constValue, error) {
	if !a.known {
		return b, nil
	}
	if !b.known {
		return a, nil
	}
	if a.value != b.value {
		return constValue{}, errors.New("disagreeing constants")
	}
	return a, nil
}

func (constAnalysis) Modify(g *EGraph[constValue], class int) {}

func TestAddDedupesCongruentNodes(t *testing.T) {
	g := New[constValue](term.LutLang{}, constAnalysis{})
	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "b"})

	n1 := g.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a, b}})
	n2 := g.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a, b}})
	require.Equal(t, n1, n2)
}

func TestUnionMergesClassesAndRebuildRestoresCongruence(t *testing.T) {
	g := New[constValue](term.LutLang{}, constAnalysis{})
	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "b"})
	c := g.Add(&term.Var{Name: "c"})

	n1 := g.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a, b}})
	n2 := g.Add(&term.Gate{GateOp: term.OpAnd, Kids: []int{a, c}})
	require.NotEqual(t, n1, n2)

	// Proving b and c equivalent should, after rebuild, force And(a,b) and
	// And(a,c) into the same class by congruence.
	_, err := g.Union(b, c)
	require.NoError(t, err)
	require.NoError(t, g.Rebuild())

	require.Equal(t, g.Find(n1), g.Find(n2))
}

func TestUnionReportsConflictOnDisagreeingConstants(t *testing.T) {
	g := New[constValue](term.LutLang{}, constAnalysis{})
	zero := g.Add(&term.Const{Value: false})
	one := g.Add(&term.Const{Value: true})

	_, err := g.Union(zero, one)
	require.Error(t, err)
}

func TestNodesReturnsAllMembersOfAClass(t *testing.T) {
	g := New[constValue](term.LutLang{}, constAnalysis{})
	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "a"}) // structurally identical, same class
	require.Equal(t, a, b)
	require.Len(t, g.Nodes(a), 1)
}

func TestExplainIsEmptyUntilEnabled(t *testing.T) {
	g := New[constValue](term.LutLang{}, constAnalysis{})
	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "b"})
	survivor, err := g.Union(a, b, "merge-ab")
	require.NoError(t, err)
	require.Empty(t, g.Explain(survivor))
	loser := a
	if loser == survivor {
		loser = b
	}
	require.Empty(t, g.Explain(loser), "no reason is recorded for the merged-away class while tracking is off")
}

func TestExplainWalksTheUnionChainToTheRoot(t *testing.T) {
	g := New[constValue](term.LutLang{}, constAnalysis{})
	g.EnableExplain()

	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "b"})
	c := g.Add(&term.Var{Name: "c"})

	// Union-by-rank keeps a as survivor at both steps (equal ranks first,
	// then a's higher rank), so b then c are the ones whose merge reason
	// gets recorded.
	_, err := g.Union(a, b, "step-one")
	require.NoError(t, err)
	_, err = g.Union(a, c, "step-two")
	require.NoError(t, err)

	require.Equal(t, []string{"step-one"}, g.Explain(b))
	require.Equal(t, []string{"step-two"}, g.Explain(c))
}

func TestExplainDefaultsUnnamedMergesToCongruence(t *testing.T) {
	g := New[constValue](term.LutLang{}, constAnalysis{})
	g.EnableExplain()
	a := g.Add(&term.Var{Name: "a"})
	b := g.Add(&term.Var{Name: "b"})
	survivor, err := g.Union(a, b)
	require.NoError(t, err)
	loser := a
	if loser == survivor {
		loser = b
	}
	require.Equal(t, []string{"congruence"}, g.Explain(loser))
}
