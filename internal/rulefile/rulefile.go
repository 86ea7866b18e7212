// SPDX-License-Identifier: Apache-2.0

// Package rulefile loads the external rule-file format described in §4.4 and
// §6.3: a FILTER_LIST header followed by "name"; "searcher" (=>|<=>)
// "applier" [if ...]* lines. It wraps the participle grammar in
// techmap/grammar with unquoting, duplicate-name and filter-list handling.
package rulefile

import (
	"fmt"
	"strconv"
	"strings"

	"techmap/grammar"
)

// Definition is one loaded, unquoted rule-file entry. Reverse rules created
// from a "<=>" declaration are represented as a second Definition with Name
// suffixed "-rev" and Searcher/Applier swapped.
type Definition struct {
	Name     string
	Searcher string
	Applier  string
	Filtered bool
}

// File is the fully loaded and filtered contents of a rule file.
type File struct {
	// Definitions holds every rule in file order, with "<=>" entries already
	// expanded into their forward and reverse Definitions. A rule named in
	// FILTER_LIST is kept as a Definition with Filtered set and no patterns
	// (and no reverse entry); Active returns the rest.
	Definitions []Definition
}

// Load reads and parses the rule file at path, applying FILTER_LIST
// exclusions and expanding bidirectional rules.
func Load(path string) (*File, error) {
	rf, err := grammar.ParseRuleFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading rule file %s: %w", path, err)
	}
	return build(rf)
}

// LoadSource parses rule-file text already in memory.
func LoadSource(name, source string) (*File, error) {
	rf, err := grammar.ParseRuleFileSource(name, source)
	if err != nil {
		return nil, fmt.Errorf("loading rule file %s: %w", name, err)
	}
	return build(rf)
}

func build(rf *grammar.RuleFile) (*File, error) {
	filter := make(map[string]bool, len(rf.Filter.Names))
	for _, n := range rf.Filter.Names {
		u, err := unquote(n)
		if err != nil {
			return nil, fmt.Errorf("invalid FILTER_LIST entry %q: %w", n, err)
		}
		if u != "" {
			filter[u] = true
		}
	}

	seen := make(map[string]bool, len(rf.Rules))
	out := &File{}
	for _, decl := range rf.Rules {
		name, err := unquote(decl.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid rule name %q: %w", decl.Name, err)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate rule name %q", name)
		}
		seen[name] = true

		searcher, err := unquote(decl.Searcher)
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid searcher pattern: %w", name, err)
		}
		applier, err := unquote(decl.Applier)
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid applier pattern: %w", name, err)
		}

		if filter[name] {
			out.Definitions = append(out.Definitions, Definition{Name: name, Filtered: true})
			continue
		}
		out.Definitions = append(out.Definitions, Definition{Name: name, Searcher: searcher, Applier: applier})

		if decl.Bidirectional() {
			revName := name + "-rev"
			if seen[revName] {
				return nil, fmt.Errorf("duplicate rule name %q (reverse of %q)", revName, name)
			}
			seen[revName] = true
			out.Definitions = append(out.Definitions, Definition{Name: revName, Searcher: applier, Applier: searcher})
		}
	}
	return out, nil
}

// Active returns the non-filtered definitions.
func (f *File) Active() []Definition {
	active := make([]Definition, 0, len(f.Definitions))
	for _, d := range f.Definitions {
		if !d.Filtered {
			active = append(active, d)
		}
	}
	return active
}

func unquote(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2 {
		return strconv.Unquote(s)
	}
	return s, nil
}
