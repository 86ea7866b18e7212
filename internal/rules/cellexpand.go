package rules

import (
	"regexp"
	"sort"
	"strings"

	"techmap/internal/rules/cellfile"
)

// gatePrefixDef recognizes a cell-name prefix as implementing one of the
// primitive gates at a fixed arity: "AND2_X1" implements And at arity 2,
// "INVX1" implements Inv at arity 1, and so on. Cell libraries commonly
// spell the same function at several drive strengths ("_X1", "_X2", "_X4"),
// which this prefix match deliberately ignores — every matching cell gets
// its own bridge rule, letting internal/cost's Area function choose among
// them during extraction.
type gatePrefixDef struct {
	prefix string
	gate   string
	arity  int
}

// Ordered so a more specific prefix ("NOR", "NOT") is tried before a
// shorter one it could otherwise be confused with ("OR"); in practice
// strings.HasPrefix already disambiguates these since none is a suffix of
// another starting at index 0, but the explicit order keeps the intent
// readable.
var gatePrefixes = []gatePrefixDef{
	{"NOR", "Nor", 2},
	{"NOT", "Not", 1},
	{"INV", "Inv", 1},
	{"AND", "And", 2},
	{"XOR", "Xor", 2},
	{"MUX", "Mux", 3},
	{"OR", "Or", 2},
}

var gateVars = map[string][]string{
	"And": {"a", "b"},
	"Or":  {"a", "b"},
	"Xor": {"a", "b"},
	"Nor": {"a", "b"},
	"Inv": {"a"},
	"Not": {"a"},
	"Mux": {"s", "a", "b"},
}

var validCellIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CellExpansionRules generates one-directional gate->Cell bridge rules from
// a loaded cell library, the §4.4 "cell-to-cell substitutions derived from
// a cell-library file" category: every cell whose name recognizably
// implements one of the primitive gates, at the cell's declared arity,
// gets a rule instantiating that exact cell, mirroring gateLutBridges but
// parametrized per library cell. A cell whose name doesn't match a known
// gate prefix, whose arity doesn't fit that gate, or whose name isn't a
// valid pattern identifier is silently skipped — it simply never
// participates in ASIC-mode rewriting, rather than failing the whole load.
func CellExpansionRules(lib *cellfile.Library) ([]*Rule, error) {
	var defs []builtinDef
	for name, cell := range lib.Cells {
		if !validCellIdent.MatchString(name) {
			continue
		}
		gate, vars, ok := matchGatePrefix(name, cell.Arity)
		if !ok {
			continue
		}
		varList := joinVars(vars)
		defs = append(defs, builtinDef{
			name:     "cell-" + name,
			searcher: "(" + gate + " " + varList + ")",
			applier:  "(" + name + " " + varList + ")",
		})
	}

	// Deterministic order so the same library always yields the same rule
	// set, regardless of Go's randomized map iteration.
	sort.Slice(defs, func(i, j int) bool { return defs[i].name < defs[j].name })

	return compileAll(defs, nil)
}

func matchGatePrefix(name string, arity int) (gate string, vars []string, ok bool) {
	upper := strings.ToUpper(name)
	for _, p := range gatePrefixes {
		if strings.HasPrefix(upper, p.prefix) && arity == p.arity {
			return p.gate, gateVars[p.gate], true
		}
	}
	return "", nil, false
}

func joinVars(vars []string) string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = "?" + v
	}
	return strings.Join(out, " ")
}
