package ebnf

import (
	"regexp"

	"github.com/ava12/sgrammar/lexer"
)

// Token type names, one per capturing group of ebnfRe, in the same
// one-big-regex lexing style used elsewhere in this codebase's lineage.
const (
	stringTok    = "string"
	charClassTok = "charclass"
	assignTok    = "assign"
	laOpenTok    = "la-open"
	nameTok      = "name"
	numberTok    = "number"
	opTok        = "op"
	wrongTok     = ""
)

var ebnfLexer *lexer.Lexer

func init() {
	tokenTypes := []lexer.TokenType{
		{Type: 1, TypeName: stringTok},
		{Type: 2, TypeName: charClassTok},
		{Type: 3, TypeName: assignTok},
		{Type: 4, TypeName: laOpenTok},
		{Type: 5, TypeName: nameTok},
		{Type: 6, TypeName: numberTok},
		{Type: 7, TypeName: opTok},
		{Type: lexer.ErrorTokenType, TypeName: wrongTok},
	}

	re := regexp.MustCompile(
		`^(?:\s+|#[^\n]*|` +
			`("(?:[^\\"]|\\.)*")|` +
			`(\[(?:\\.|[^\]\\])*\])|` +
			`(::=)|` +
			`(\(=)|` +
			`([A-Za-z_][A-Za-z_0-9]*)|` +
			`([0-9]+)|` +
			`([|?*+{}(),=])|` +
			`(.{1,10}))`)

	ebnfLexer = lexer.New(re, tokenTypes)
}
