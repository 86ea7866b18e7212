package grammar

import (
	"strings"
)

// String renders a Pattern back to its canonical prefix-S-expression form,
// used in rule diagnostics and --dump-graph-adjacent debugging output.
func (p *Pattern) String() string {
	if p == nil {
		return "<nil>"
	}
	if p.Node != nil {
		return p.Node.String()
	}
	return p.Atom.String()
}

func (n *PatternNode) String() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(n.Op)
	for _, c := range n.Children {
		b.WriteByte(' ')
		b.WriteString(c.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (a *PatternAtom) String() string {
	switch {
	case a.Meta != "":
		return a.Meta
	case a.Int != "":
		return a.Int
	default:
		return a.Sym
	}
}

// String renders a rule file back to its canonical text form.
func (rf *RuleFile) String() string {
	var b strings.Builder
	b.WriteString(rf.Filter.String())
	b.WriteByte('\n')
	for _, r := range rf.Rules {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (fl *FilterList) String() string {
	var b strings.Builder
	b.WriteString(`FILTER_LIST=`)
	for i, n := range fl.Names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(n)
	}
	return b.String()
}

func (r *RuleDecl) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteString("; ")
	b.WriteString(r.Searcher)
	b.WriteByte(' ')
	b.WriteString(r.Direction)
	b.WriteByte(' ')
	b.WriteString(r.Applier)
	for _, c := range r.Conditions {
		b.WriteString(" if ")
		b.WriteString(c.Pred)
		for _, a := range c.Args {
			b.WriteByte(' ')
			b.WriteString(a)
		}
	}
	return b.String()
}
