package rules

import (
	"fmt"

	"techmap/internal/analysis"
	"techmap/internal/egraph"
	"techmap/internal/rulefile"
)

// Condition is a compiled "if pred ?args..." guard (§4.4/§6.3): it runs
// after a match is found and before the applier fires, reading the bound
// variables' analysis values from the e-graph.
type Condition struct {
	Pred string
	Args []string
}

func (c Condition) eval(g *egraph.EGraph[analysis.Value], subst Subst) (bool, error) {
	arg := func(i int) (int, error) {
		if i >= len(c.Args) {
			return 0, fmt.Errorf("rules: condition %q missing argument %d", c.Pred, i)
		}
		name := c.Args[i]
		if len(name) > 0 && name[0] == '?' {
			name = name[1:]
		}
		id, ok := subst[name]
		if !ok {
			return 0, fmt.Errorf("rules: condition %q references unbound variable %s", c.Pred, c.Args[i])
		}
		return id, nil
	}

	switch c.Pred {
	case "is-const":
		id, err := arg(0)
		if err != nil {
			return false, err
		}
		return g.Data(id).IsConst, nil
	case "is-zero":
		id, err := arg(0)
		if err != nil {
			return false, err
		}
		v := g.Data(id)
		return v.IsConst && !v.ConstVal, nil
	case "is-one":
		id, err := arg(0)
		if err != nil {
			return false, err
		}
		v := g.Data(id)
		return v.IsConst && v.ConstVal, nil
	case "distinct":
		a, err := arg(0)
		if err != nil {
			return false, err
		}
		b, err := arg(1)
		if err != nil {
			return false, err
		}
		return g.Find(a) != g.Find(b), nil
	default:
		return false, fmt.Errorf("rules: unknown condition predicate %q", c.Pred)
	}
}

// CustomApplier builds the replacement for a match directly against g,
// for rewrites the pattern mini-language cannot express because the
// replacement's shape depends on a bound variable's concrete value rather
// than on pattern-substitution alone (e.g. Shannon decomposition's cofactor
// arithmetic on a matched Program literal).
type CustomApplier func(g *egraph.EGraph[analysis.Value], subst Subst) (int, error)

// Rule is one compiled, directional (searcher => applier) rewrite rule.
type Rule struct {
	Name       string
	searcher   *pnode
	applier    *pnode
	conditions []Condition
	custom     CustomApplier
}

// Compile parses a rule-file style Definition (already unquoted, already
// direction-expanded by internal/rulefile) into a runnable Rule.
func Compile(d rulefile.Definition) (*Rule, error) {
	s, err := compilePattern(d.Searcher)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", d.Name, err)
	}
	a, err := compilePattern(d.Applier)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", d.Name, err)
	}
	return &Rule{Name: d.Name, searcher: s, applier: a}, nil
}

// New builds a Rule directly from searcher/applier pattern text, used by
// the built-in rule tables in builtin.go where there is no rule-file
// Definition to compile from.
func New(name, searcher, applier string, conditions ...Condition) (*Rule, error) {
	s, err := compilePattern(searcher)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	a, err := compilePattern(applier)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	return &Rule{Name: name, searcher: s, applier: a, conditions: conditions}, nil
}

// newCustomRule builds a Rule whose replacement is computed by apply
// instead of by substituting a compiled applier pattern, for rewrites
// whose output shape depends on a matched value's arithmetic (not
// expressible by the searcher/applier mini-language).
func newCustomRule(name, searcher string, apply CustomApplier, conditions ...Condition) (*Rule, error) {
	s, err := compilePattern(searcher)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	return &Rule{Name: name, searcher: s, conditions: conditions, custom: apply}, nil
}

// Run searches g for every match of the rule and unions each match's class
// with the instantiated applier result, returning the number of successful
// applications. It does not call g.Rebuild(); callers batch rules and
// rebuild once per saturation iteration (§4.3/§4.5).
func (r *Rule) Run(g *egraph.EGraph[analysis.Value]) (int, error) {
	matches := search(g, r.searcher)
	applied := 0
	for _, m := range matches {
		ok := true
		for _, c := range r.conditions {
			pass, err := c.eval(g, m.Subst)
			if err != nil {
				return applied, err
			}
			if !pass {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		var newID int
		var err error
		if r.custom != nil {
			newID, err = r.custom(g, m.Subst)
		} else {
			newID, err = instantiate(g, r.applier, m.Subst, "", -1)
		}
		if err != nil {
			return applied, err
		}
		if _, err := g.Union(m.Class, newID, r.Name); err != nil {
			return applied, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		applied++
	}
	return applied, nil
}
