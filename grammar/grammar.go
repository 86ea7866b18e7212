package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// RuleFile is the top-level grammar for a §4.4/§6.3 rule file: a FILTER_LIST
// header followed by zero or more rule declarations.
type RuleFile struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Filter *FilterList `@@`
	Rules  []*RuleDecl `@@*`
}

// FilterList is the "FILTER_LIST=\"name1\",\"name2\"" header line. An empty
// list is written FILTER_LIST="".
type FilterList struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Names  []string `"FILTER_LIST" "=" [ @String { "," @String } ]`
}

// RuleDecl is a single "name"; "searcher" (=>|<=>) "applier" [if ...]* line.
// Searcher and Applier remain raw strings here; they are parsed separately
// by ParsePattern into a Pattern, since they are quoted sub-languages.
type RuleDecl struct {
	Pos        lexer.Position
	EndPos     lexer.Position
	Name       string       `@String ";"`
	Searcher   string       `@String`
	Direction  string       `@("=>" | "<=>")`
	Applier    string       `@String`
	Conditions []*Condition `@@*`
}

// Bidirectional reports whether this declaration used "<=>", which the
// loader expands into a second, reverse rule named Name+"-rev".
func (r *RuleDecl) Bidirectional() bool {
	return r.Direction == "<=>"
}

// Condition is an "if <predicate> <arg>*" side condition guarding a rule's
// application on the analysis value of its captured meta-variables.
type Condition struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Pred   string   `"if" @Ident`
	Args   []string `{ ( @Metavar | @Ident | @Int ) }`
}

// Pattern is a prefix S-expression: either an atom (symbol, integer literal,
// or ?meta-variable) or a parenthesized operator application.
type Pattern struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Node   *PatternNode `  @@`
	Atom   *PatternAtom `| @@`
}

// PatternNode is "(op child...)".
type PatternNode struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Op       string     `"(" @Ident`
	Children []*Pattern `@@* ")"`
}

// PatternAtom is a bare symbol, integer literal, or ?meta-variable.
type PatternAtom struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Meta   string `  @Metavar`
	Int    string `| @Int`
	Sym    string `| @Ident`
}

// IsMeta reports whether this atom is a ?meta-variable.
func (a *PatternAtom) IsMeta() bool { return a.Meta != "" }
