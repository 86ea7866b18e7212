package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// RuleFileLexer tokenizes the §4.4/§6.3 rule-file format: the FILTER_LIST
// header line followed by "name"; "searcher" (=>|<=>) "applier" [if ...]*
// rule lines.
var RuleFileLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `#[^\n]*`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"BiArrow", `<=>`, nil},
		{"FatArrow", `=>`, nil},
		{"Metavar", `\?[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_-]*`, nil},
		{"Punct", `[=;,]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// PatternLexer tokenizes the prefix S-expression pattern language embedded
// in quoted searcher/applier strings: parenthesized operator application
// with integer literals, bare symbols (operator/variable names) and ?var
// meta-variables.
var PatternLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Metavar", `\?[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `0[xX][0-9a-fA-F]+|[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"LParen", `\(`, nil},
		{"RParen", `\)`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
