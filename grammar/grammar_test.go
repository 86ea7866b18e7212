package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePatternAtom(t *testing.T) {
	p, err := ParsePattern(`?a`)
	require.NoError(t, err)
	require.NotNil(t, p.Atom)
	require.True(t, p.Atom.IsMeta())
	require.Equal(t, "?a", p.String())
}

func TestParsePatternNode(t *testing.T) {
	p, err := ParsePattern(`(LUT 202 ?s ?a ?b)`)
	require.NoError(t, err)
	require.NotNil(t, p.Node)
	require.Equal(t, "LUT", p.Node.Op)
	require.Len(t, p.Node.Children, 4)
	require.Equal(t, "(LUT 202 ?s ?a ?b)", p.String())
}

func TestParsePatternNested(t *testing.T) {
	p, err := ParsePattern(`(LUT 51952 s1 (LUT 61642 s1 s0 c d) a b)`)
	require.NoError(t, err)
	require.Equal(t, "(LUT 51952 s1 (LUT 61642 s1 s0 c d) a b)", p.String())
	require.NotNil(t, p.Node.Children[2].Node)
}

func TestParseRuleFile(t *testing.T) {
	src := `FILTER_LIST="mux-expand"
"lut3-shannon"; "(LUT ?p ?a ?b ?c)" => "(LUT 14 (LUT 8 ?p ?a ?b) (LUT 2 ?p ?c))"
"lut4-shannon"; "(LUT ?p ?a ?b ?c ?d)" => "(LUT 14 (LUT 8 ?p ?a ?b) (LUT 2 ?p ?c ?d))"
"and-lut"; "(And ?a ?b)" <=> "(LUT 8 ?a ?b)"
`
	rf, err := ParseRuleFileSource("test.rules", src)
	require.NoError(t, err)
	require.Equal(t, []string{`"mux-expand"`}, rf.Filter.Names)
	require.Len(t, rf.Rules, 3)
	require.Equal(t, `"and-lut"`, rf.Rules[2].Name)
	require.True(t, rf.Rules[2].Bidirectional())
	require.False(t, rf.Rules[0].Bidirectional())
}

func TestParseRuleFileEmptyFilter(t *testing.T) {
	src := `FILTER_LIST=""
"id"; "?a" => "?a"
`
	rf, err := ParseRuleFileSource("test.rules", src)
	require.NoError(t, err)
	require.Equal(t, []string{`""`}, rf.Filter.Names)
}

func TestParseRuleFileWithCondition(t *testing.T) {
	src := `FILTER_LIST=""
"shannon-const"; "(LUT ?p ?a)" => "?a" if is-const ?p
`
	rf, err := ParseRuleFileSource("test.rules", src)
	require.NoError(t, err)
	require.Len(t, rf.Rules[0].Conditions, 1)
	require.Equal(t, "is-const", rf.Rules[0].Conditions[0].Pred)
	require.Equal(t, []string{"?p"}, rf.Rules[0].Conditions[0].Args)
}
