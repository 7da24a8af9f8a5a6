package mirparser

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var mirParser = participle.MustBuild[Program](
	participle.Lexer(MirLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// ParseString parses source (the textual form internal/mir.Printer.Dump
// produces) into a *Program AST, reporting a caret-annotated error on
// failure (grounded on the teacher's grammar.ParseFile / reportParseError
// pair).
func ParseString(filename, source string) (*Program, error) {
	program, err := mirParser.ParseString(filename, source)
	if err != nil {
		reportParseError(source, err)
		return nil, err
	}
	return program, nil
}

// ParseFile reads path and parses it as textual MIR.
func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("mirparser: failed to read %s: %w", path, err)
		color.Red("%s", err)
		return nil, err
	}
	return ParseString(path, string(source))
}

func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("mirparser: unexpected error: %s", err)
		return
	}
	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("mirparser: syntax error at unknown location: %s", err)
		return
	}
	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", max(pos.Column-1, 0)) + "^"
	color.Red("mirparser: syntax error at %d:%d", pos.Line, pos.Column)
	fmt.Fprintln(os.Stderr, line)
	fmt.Fprintln(os.Stderr, caret)
}
