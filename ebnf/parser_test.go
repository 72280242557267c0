package ebnf

import (
	"testing"

	"github.com/ava12/sgrammar/grammar"
)

func TestParseSimpleGrammar(t *testing.T) {
	src := "root ::= rule1 rule2\nrule1 ::= (rule2|rule3) \"a\"\nrule2 ::= \"b\"\nrule3 ::= \"c\""
	g, err := ParseString("sample", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("invalid grammar: %v", err)
	}
	if g.RootRule() == nil {
		t.Fatal("expected a root rule")
	}
}

func TestParseRepetitionBounds(t *testing.T) {
	src := "root ::= rule{2,3}\nrule ::= \"a\"|[bc]{4,}"
	g, err := ParseString("sample", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("invalid grammar: %v", err)
	}
}

func TestParseBadRepetitionBounds(t *testing.T) {
	_, err := ParseString("sample", "root ::= \"a\"{3,1}")
	if err == nil {
		t.Fatal("expected error for min>max repetition")
	}
}

func TestParseTagDispatch(t *testing.T) {
	src := "root ::= TagDispatch((\"<f>\", body), stop_eos=true, stop_str=(\"</f>\"), loop_after_dispatch=false, excludes=())\n" +
		"body ::= \"x\""
	g, err := ParseString("sample", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := g.RootRule()
	el := root.Body.Alternatives[0][0]
	if el.Kind != grammar.KindTagDispatch {
		t.Fatalf("expected TagDispatch element, got kind %v", el.Kind)
	}
	if len(el.Triggers) != 1 || el.Triggers[0].Prefix != "<f>" {
		t.Fatalf("unexpected triggers: %+v", el.Triggers)
	}
	if !el.StopEOS || len(el.StopStrs) != 1 || el.StopStrs[0] != "</f>" {
		t.Fatalf("unexpected stop config: %+v", el)
	}
}

func TestParseUndefinedNonterminal(t *testing.T) {
	_, err := ParseString("sample", "root ::= missing")
	if err == nil {
		t.Fatal("expected error for undefined nonterminal")
	}
}

func TestPrintParseRoundTrip(t *testing.T) {
	src := "root ::= \"a\" [a-z]+ rule2\nrule2 ::= \"b\"?"
	g, err := ParseString("sample", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	printed := g.Print()
	g2, err := ParseString("reprint", printed)
	if err != nil {
		t.Fatalf("failed to reparse printed grammar: %v\n%s", err, printed)
	}
	if len(g2.Rules) != len(g.Rules) {
		t.Fatalf("round-trip rule count mismatch: %d vs %d", len(g2.Rules), len(g.Rules))
	}
}
