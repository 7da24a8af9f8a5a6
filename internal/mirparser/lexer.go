// Package mirparser implements a participle-based parser for the textual
// MIR dump internal/mir.Printer produces, so the closure converter and
// emitter can be exercised and fuzzed from plain text files instead of
// hand-built Go literals only. Grounded on the teacher's grammar package
// (lexer.MustStateful + participle.Build[T] pattern).
package mirparser

import "github.com/alecthomas/participle/v2/lexer"

// MirLexer tokenizes internal/mir.Printer's dump format: identifiers,
// float literals, the fixed keyword set the printer emits verbatim
// ("fun", "if", "else", "return", "assign", "ref", "alloca", "time",
// "symbol", "makeclosure", "array", "arrayaccess", "app", "app@timed"),
// and punctuation.
var MirLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Float", `-?[0-9]+\.[0-9]+([eE][-+]?[0-9]+)?|-?[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_@]*`, nil},
		{"Arrow", `->`, nil},
		{"Punct", `[{}()\[\],=]`, nil},
		{"Op", `[+\-*/]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
