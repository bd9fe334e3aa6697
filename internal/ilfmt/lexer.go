package ilfmt

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes the small textual IL assembly format, built the same
// way grammar.KansoLexer is in the teacher: a single stateful ruleset,
// most specific patterns first so "->" isn't swallowed by punctuation
// and a kind-suffixed numeric literal isn't swallowed by a bare index.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Arrow", `->`, nil},
		// Kind-suffixed numeric literal, e.g. 5i32, 3.5float, 10u64.
		{"Number", `[0-9]+\.[0-9]+(half|float|double)|[0-9]+(i8|i16|i32|i64|u8|u16|u32|u64)`, nil},
		// %v0, %t3, %v0@2 — a variable reference, base + optional version.
		{"Var", `%[vt][0-9]+(@[0-9]+)?`, nil},
		// bN — a block label, lexed distinctly from Ident so an opcode
		// name and a block label can never be confused by the parser's
		// lookahead (both would otherwise be plain identifiers).
		{"Label", `b[0-9]+`, nil},
		// A bare integer with no kind suffix: a param index or arg count.
		{"Int", `[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Punct", `[(){}\[\],:<>=@/]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
