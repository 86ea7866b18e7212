package grammar

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var ruleFileParser = buildRuleFileParser()
var patternParser = buildPatternParser()

func buildRuleFileParser() *participle.Parser[RuleFile] {
	p, err := participle.Build[RuleFile](
		participle.Lexer(RuleFileLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build rule-file parser: %w", err))
	}
	return p
}

func buildPatternParser() *participle.Parser[Pattern] {
	p, err := participle.Build[Pattern](
		participle.Lexer(PatternLexer),
		participle.Elide("Whitespace"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build pattern parser: %w", err))
	}
	return p
}

// ParseRuleFile reads and parses a rule file from disk.
func ParseRuleFile(path string) (*RuleFile, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return ParseRuleFileSource(path, string(source))
}

// ParseRuleFileSource parses rule-file text already in memory.
func ParseRuleFileSource(name, source string) (*RuleFile, error) {
	rf, err := ruleFileParser.ParseString(name, source)
	if err != nil {
		reportParseError(source, err)
		return nil, err
	}
	return rf, nil
}

// ParsePattern parses a quoted searcher/applier string into a Pattern.
func ParsePattern(source string) (*Pattern, error) {
	return patternParser.ParseString("<pattern>", source)
}

// reportParseError prints a caret-style parse error message, matching the
// teacher's main.go/cmd/kanso-cli diagnostic style.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", max(pos.Column-1, 0)) + "^"

	color.Red("Syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message())
}
