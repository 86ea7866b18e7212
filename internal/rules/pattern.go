// Package rules compiles the S-expression pattern mini-language (shared with
// techmap/internal/rulefile's rule-file loader, §4.4/§6.3) into searchers
// and appliers that run directly against techmap/internal/egraph, and holds
// the built-in rule categories named in §4.4: Boolean identities, LUT
// merge/split, Shannon decomposition, gate<->LUT bridges, register
// retiming, and cell-library expansions.
package rules

import (
	"fmt"
	"strconv"

	"techmap/grammar"
	"techmap/internal/term"
)

// pnode is the compiled form of a grammar.Pattern: either a bound variable
// (metavariable or bare identifier), an integer literal, or an operator
// applied to sub-patterns.
type pnode struct {
	isVar   bool
	varName string
	isLit   bool
	litVal  uint64
	op      string
	kids    []*pnode
}

// compilePattern parses pattern source text (the same grammar the rule-file
// loader uses) and compiles it into a pnode tree.
func compilePattern(src string) (*pnode, error) {
	p, err := grammar.ParsePattern(src)
	if err != nil {
		return nil, fmt.Errorf("rules: compiling pattern %q: %w", src, err)
	}
	return compileFromGrammar(p), nil
}

func compileFromGrammar(p *grammar.Pattern) *pnode {
	if p.Atom != nil {
		a := p.Atom
		switch {
		case a.IsMeta():
			return &pnode{isVar: true, varName: a.Meta}
		case a.Int != "":
			v, err := strconv.ParseUint(a.Int, 0, 64)
			if err != nil {
				// Parser already validated the lexeme; a parse failure here
				// would be an internal inconsistency, not a user error.
				v = 0
			}
			return &pnode{isLit: true, litVal: v}
		default:
			// A bare identifier acts as an implicitly-bound pattern
			// variable, the same way it's used in the §8 example fixtures
			// (s1, s0, a, b, ...).
			return &pnode{isVar: true, varName: a.Sym}
		}
	}
	kids := make([]*pnode, len(p.Node.Children))
	for i, c := range p.Node.Children {
		kids[i] = compileFromGrammar(c)
	}
	return &pnode{op: p.Node.Op, kids: kids}
}

var opNames = map[string]term.Op{
	"And":   term.OpAnd,
	"Or":    term.OpOr,
	"Xor":   term.OpXor,
	"Nor":   term.OpNor,
	"Mux":   term.OpMux,
	"Inv":   term.OpInv,
	"Not":   term.OpNot,
	"LUT":   term.OpLut,
	"Lut":   term.OpLut,
	"Reg":   term.OpReg,
	"Cell":  term.OpCell,
	"Bus":   term.OpBus,
	"Var":   term.OpVar,
	"Const": term.OpConst,
	"DC":    term.OpDC,
}
