package ebnf

import (
	"github.com/ava12/sgrammar"
	"github.com/ava12/sgrammar/lexer"
)

// Error codes used by ebnf.Parse*, forming the GrammarParseError kind. An
// error raised at a token carries its line/column via
// sgrammar.FormatErrorPos; UndefinedNonterminalError and NoRootRuleError are
// raised after the whole description is read and carry no position.
const (
	// UnexpectedEofError is returned when input ends mid-rule.
	UnexpectedEofError = sgrammar.GrammarErrors + iota
	// UnexpectedTokenError is returned for a token that cannot start the expected construct.
	UnexpectedTokenError
	// DuplicateRuleError is returned when a nonterminal is defined twice.
	DuplicateRuleError
	// UndefinedNonterminalError is returned when a reference has no matching rule.
	UndefinedNonterminalError
	// NoRootRuleError is returned when a grammar description defines no rules at all.
	NoRootRuleError
	// BadCharClassError is returned for a malformed "[...]" expression.
	BadCharClassError
	// BadEscapeError is returned for an invalid backslash escape.
	BadEscapeError
	// BadRepetitionError is returned for a "{m,n}" with m>n.
	BadRepetitionError
	// BadTagDispatchError is returned for a malformed TagDispatch(...) construct.
	BadTagDispatchError
)

func eofError(t *lexer.Token) *sgrammar.Error {
	return sgrammar.FormatErrorPos(t, UnexpectedEofError, "unexpected end of grammar description")
}

func unexpectedTokenError(t *lexer.Token, expected string) *sgrammar.Error {
	return sgrammar.FormatErrorPos(t, UnexpectedTokenError, "unexpected token %q, expected %s", t.Text(), expected)
}

func duplicateRuleError(t *lexer.Token, name string) *sgrammar.Error {
	return sgrammar.FormatErrorPos(t, DuplicateRuleError, "rule %q is already defined", name)
}

func undefinedNonterminalError(name string) *sgrammar.Error {
	return sgrammar.FormatError(UndefinedNonterminalError, "rule %q is referenced but never defined", name)
}

func noRootRuleError() *sgrammar.Error {
	return sgrammar.FormatError(NoRootRuleError, "grammar description defines no rules")
}

func badCharClassError(t *lexer.Token, msg string) *sgrammar.Error {
	return sgrammar.FormatErrorPos(t, BadCharClassError, "bad character class %q: %s", t.Text(), msg)
}

func badEscapeError(t *lexer.Token, seq string) *sgrammar.Error {
	return sgrammar.FormatErrorPos(t, BadEscapeError, "bad escape sequence %q", seq)
}

func badRepetitionError(t *lexer.Token) *sgrammar.Error {
	return sgrammar.FormatErrorPos(t, BadRepetitionError, "bad repetition bounds %q: min must not exceed max", t.Text())
}

func badTagDispatchError(t *lexer.Token, msg string) *sgrammar.Error {
	return sgrammar.FormatErrorPos(t, BadTagDispatchError, "bad TagDispatch construct: %s", msg)
}
