// Package ilfmt is a small textual assembly front end for internal/il:
// a participle lexer + grammar + builder that turns "func add(a: i32,
// b: i32) -> i32 { b0: ... }" source into *il.Module values. It performs
// no semantic analysis of a source language — it exists purely to give
// cmd/ilopt and the test suite an ergonomic way to write fixtures
// without hand-assembling struct literals, the same role
// internal/parser.ParseSource plays for Kanso source text.
package ilfmt

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
)

var parser = participle.MustBuild[File](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// ParseModule parses src (named by path for error messages) into an
// il.Module.
func ParseModule(path, src string) (*il.Module, error) {
	f, err := parser.ParseString(path, src)
	if err != nil {
		reportParseError(src, err)
		return nil, err
	}
	return BuildModule(f)
}

// ParseFile reads path and parses it, the way grammar.ParseFile does for
// Kanso source.
func ParseFile(path string) (*il.Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseModule(path, string(source))
}

// reportParseError prints a caret-style parse error, mirroring
// cmd/kanso-cli/main.go's reportParseError.
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
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("Syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message())
}
