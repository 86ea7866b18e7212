package rulefile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `FILTER_LIST="mux-expand"
"lut3-shannon"; "(LUT ?p ?a ?b ?c)" => "(LUT 14 (LUT 8 ?p ?a ?b) (LUT 2 ?p ?c))"
"mux-expand"; "(Mux ?s ?a ?b)" => "(LUT 202 ?s ?a ?b)"
"and-lut"; "(And ?a ?b)" <=> "(LUT 8 ?a ?b)"
`

func TestLoadSourceFiltersAndExpands(t *testing.T) {
	f, err := LoadSource("t.rules", sample)
	require.NoError(t, err)

	active := f.Active()
	require.Len(t, active, 3) // lut3-shannon, and-lut, and-lut-rev

	names := map[string]Definition{}
	for _, d := range active {
		names[d.Name] = d
	}
	require.Contains(t, names, "lut3-shannon")
	require.Contains(t, names, "and-lut")
	require.Contains(t, names, "and-lut-rev")
	require.NotContains(t, names, "mux-expand")

	rev := names["and-lut-rev"]
	require.Equal(t, "(LUT 8 ?a ?b)", rev.Searcher)
	require.Equal(t, "(And ?a ?b)", rev.Applier)
}

func TestLoadSourceDuplicateName(t *testing.T) {
	src := `FILTER_LIST=""
"dup"; "?a" => "?a"
"dup"; "?b" => "?b"
`
	_, err := LoadSource("t.rules", src)
	require.Error(t, err)
}

func TestLoadSourceEmptyFilterList(t *testing.T) {
	src := `FILTER_LIST=""
"id"; "?a" => "?a"
`
	f, err := LoadSource("t.rules", src)
	require.NoError(t, err)
	require.Len(t, f.Active(), 1)
}
