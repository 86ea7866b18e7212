package rules

import (
	"fmt"

	"techmap/internal/analysis"
	"techmap/internal/egraph"
	"techmap/internal/term"
)

// builtinDef mirrors rulefile.Definition's shape so built-in rules compile
// through the exact same Compile path user-supplied rule files use (§4.4:
// "built-in and user-supplied rules run through one Compile(...) path").
type builtinDef struct {
	name     string
	searcher string
	applier  string
}

// booleanIdentities are the Boolean-algebra simplification rules named in
// §4.4: double negation, idempotence, and the absorbing/identity elements
// for And/Or.
var booleanIdentities = []builtinDef{
	{"double-not", "(Not (Not ?a))", "?a"},
	{"double-inv", "(Inv (Inv ?a))", "?a"},
	{"and-idempotent", "(And ?a ?a)", "?a"},
	{"or-idempotent", "(Or ?a ?a)", "?a"},
	{"and-identity", "(And ?a 1)", "?a"},
	{"or-identity", "(Or ?a 0)", "?a"},
	{"and-annihilate", "(And ?a 0)", "0"},
	{"or-annihilate", "(Or ?a 1)", "1"},
	{"xor-self", "(Xor ?a ?a)", "0"},
	{"mux-same-branch", "(Mux ?s ?a ?a)", "?a"},
}

// gateLutBridges rewrite each Boolean primitive into an equivalent 2- or
// 3-input LUT (and back, via the reverse rule generated for "<=>" entries
// in rule-file-loaded rules — the built-in bridges here are one-directional
// gate->LUT since extraction never wants to pick the gate side).
var gateLutBridges = []builtinDef{
	{"and-to-lut", "(And ?a ?b)", "(LUT 8 ?a ?b)"},
	{"or-to-lut", "(Or ?a ?b)", "(LUT 14 ?a ?b)"},
	{"xor-to-lut", "(Xor ?a ?b)", "(LUT 6 ?a ?b)"},
	{"nor-to-lut", "(Nor ?a ?b)", "(LUT 1 ?a ?b)"},
	{"inv-to-lut", "(Inv ?a)", "(LUT 1 ?a)"},
	{"not-to-lut", "(Not ?a)", "(LUT 1 ?a)"},
	{"mux-to-lut", "(Mux ?s ?a ?b)", "(LUT 202 ?s ?a ?b)"},
}

// lutMergeSplit folds a mux over two structurally identical LUTs (a
// Shannon-decomposed pair whose two halves turned out equal after
// saturation) back into the single shared LUT, dropping the now-redundant
// select input — the §4.4 "LUT merge" half of the merge/split category.
// The "split" half is shannonRules below.
var lutMergeSplit = []builtinDef{
	{
		"lut3-merge",
		"(LUT 202 ?s (LUT ?p ?a ?b) (LUT ?p ?a ?b))",
		"(LUT ?p ?a ?b)",
	},
}

// cofactor extracts the (k-1)-input sub-table of a k-input truth table
// program obtained by fixing the input at bit position pos (0 = least
// significant input) to bitVal, the standard BDD/Shannon cofactor
// operation: each row r of the smaller table is built by splicing bitVal
// into position pos of r to recover the corresponding row of the full
// table.
func cofactor(program uint64, k, pos int, bitVal uint64) uint64 {
	var out uint64
	rows := 1 << uint(k-1)
	for r := 0; r < rows; r++ {
		low := uint64(r) & ((uint64(1) << uint(pos)) - 1)
		high := uint64(r) >> uint(pos)
		full := (high << uint(pos+1)) | (bitVal << uint(pos)) | low
		bit := (program >> full) & 1
		out |= bit << uint(r)
	}
	return out
}

// decomposeCofactor builds a CustomApplier that decomposes a k-input LUT
// program bound to ?p about the data input at dataVars[pivot] into two
// (k-1)-input LUTs over the remaining inputs, muxed by the pivot input:
// (LUT p x0 x1 ... xk-1) => (LUT 202 x_pivot (LUT p_hi rest...) (LUT p_lo
// rest...)), where p_hi/p_lo are p's real cofactors (computed by cofactor
// above) rather than p reused verbatim — the searcher/applier pattern
// mini-language can only substitute ?p's bound class unchanged, which is
// wrong for any program value whose two cofactors differ, so this rule
// reads ?p's concrete Program node directly and instantiates two
// newly-computed Program literals. dataVars is given in the Lut's Kids[1:]
// order (most significant input first per §3/§4.1), so the input at
// dataVars[i] sits at bit position len(dataVars)-1-i of the row index.
func decomposeCofactor(dataVars []string, pivot int) CustomApplier {
	return func(g *egraph.EGraph[analysis.Value], subst Subst) (int, error) {
		pClass, ok := subst["p"]
		if !ok {
			return 0, fmt.Errorf("rules: decomposition applier references unbound variable ?p")
		}
		var program uint64
		found := false
		for _, n := range g.Nodes(pClass) {
			if pr, ok := n.(*term.Program); ok {
				program = pr.Value
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("rules: decomposition applier: ?p's class holds no Program node")
		}

		k := len(dataVars)
		pos := k - 1 - pivot
		hi := cofactor(program, k, pos, 1)
		lo := cofactor(program, k, pos, 0)

		restIDs := make([]int, 0, k-1)
		for i, v := range dataVars {
			if i == pivot {
				continue
			}
			id, ok := subst[v]
			if !ok {
				return 0, fmt.Errorf("rules: decomposition applier references unbound variable ?%s", v)
			}
			restIDs = append(restIDs, id)
		}

		buildSubLut := func(progVal uint64) int {
			kids := make([]int, 0, len(restIDs)+1)
			kids = append(kids, g.Add(&term.Program{Value: progVal}))
			kids = append(kids, restIDs...)
			return g.Add(&term.Lut{Kids: kids})
		}
		hiID := buildSubLut(hi)
		loID := buildSubLut(lo)

		pivotID, ok := subst[dataVars[pivot]]
		if !ok {
			return 0, fmt.Errorf("rules: decomposition applier references unbound variable ?%s", dataVars[pivot])
		}
		// (LUT 202 pivot hi lo) realizes Mux(pivot, hi, lo): the mux-to-lut
		// program from gateLutBridges, select pivot=1 chooses hi.
		sel := g.Add(&term.Program{Value: 202})
		return g.Add(&term.Lut{Kids: []int{sel, pivotID, hiID, loID}}), nil
	}
}

// newDecompositionRule compiles a cofactor-decomposition rule over a
// k-input LUT pattern "(LUT ?p ?a ?b ...)", pivoting on dataVars[pivot].
func newDecompositionRule(name string, dataVars []string, pivot int) (*Rule, error) {
	searcher := "(LUT ?p"
	for _, v := range dataVars {
		searcher += " ?" + v
	}
	searcher += ")"
	return newCustomRule(name, searcher, decomposeCofactor(dataVars, pivot))
}

// shannonArities are the LUT sizes the built-in Shannon/dynamic-decomposition
// categories cover, matching the §8 worked examples (3- and 4-input LUTs).
var shannonArities = [][]string{
	{"a", "b", "c"},
	{"a", "b", "c", "d"},
}

// shannonRules implements Shannon decomposition (§4.4/§8): every k-input
// LUT decomposes about its most-significant input (pivot 0 in Kids[1:]
// order) into two (k-1)-input LUTs muxed by that input.
func shannonRules() ([]*Rule, error) {
	var out []*Rule
	for i, dataVars := range shannonArities {
		name := fmt.Sprintf("lut%d-shannon", i+3)
		r, err := newDecompositionRule(name, dataVars, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// dynamicDecompositionRules implements the §4.4 "dynamic decomposition"
// category: unlike Shannon decomposition, which always pivots on the
// structurally first (most-significant) input, these rules pivot on every
// other data input of a k-input LUT, letting extraction's cost function
// choose whichever pivot produces the cheapest pair of cofactor LUTs
// rather than fixing the split point structurally.
func dynamicDecompositionRules() ([]*Rule, error) {
	var out []*Rule
	for i, dataVars := range shannonArities {
		k := i + 3
		for pivot := 1; pivot < len(dataVars); pivot++ {
			name := fmt.Sprintf("lut%d-decompose-%d", k, pivot)
			r, err := newDecompositionRule(name, dataVars, pivot)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// registerRetiming moves a register across a single-input LUT boundary.
// Default() excludes this category and WithRetiming() adds it; both CLIs
// use WithRetiming() unless `-r` is given (see DESIGN.md).
var registerRetiming = []builtinDef{
	{"retime-through-buffer", "(Reg (LUT 2 ?a))", "(LUT 2 (Reg ?a))"},
}

func compileAll(defs []builtinDef, conditions map[string][]Condition) ([]*Rule, error) {
	out := make([]*Rule, 0, len(defs))
	for _, d := range defs {
		r, err := New(d.name, d.searcher, d.applier, conditions[d.name]...)
		if err != nil {
			return nil, fmt.Errorf("builtin rule %q: %w", d.name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Default returns the standard built-in rule set used when no external
// rule file is supplied: Boolean identities, gate<->LUT bridges, LUT
// merge/split, Shannon decomposition, and dynamic decomposition. Register
// retiming is excluded (see DESIGN.md's Open Question resolution) and
// cell-library expansion rules are loaded separately via
// internal/rules/cellfile since they depend on a concrete cell-library
// file.
func Default() ([]*Rule, error) {
	var all []*Rule
	for _, group := range [][]builtinDef{booleanIdentities, gateLutBridges, lutMergeSplit} {
		rs, err := compileAll(group, nil)
		if err != nil {
			return nil, err
		}
		all = append(all, rs...)
	}
	shannon, err := shannonRules()
	if err != nil {
		return nil, err
	}
	all = append(all, shannon...)
	dynamic, err := dynamicDecompositionRules()
	if err != nil {
		return nil, err
	}
	all = append(all, dynamic...)
	return all, nil
}

// WithRetiming returns Default() plus the register-retiming category, for
// callers that explicitly opt in (the CLI's `-r` flag disables retiming,
// implying it's an opt-out from an otherwise-enabled set in both modes; see
// DESIGN.md).
func WithRetiming() ([]*Rule, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	retiming, err := compileAll(registerRetiming, nil)
	if err != nil {
		return nil, err
	}
	return append(base, retiming...), nil
}
