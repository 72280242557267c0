package schema

import (
	"testing"

	"github.com/ava12/sgrammar/grammar"
)

func mergeIntoGrammar(f *Fragment) *grammar.Grammar {
	g := &grammar.Grammar{Table: f.Table, Rules: map[int]*grammar.Rule{}, Root: f.Start}
	for id, body := range f.Rules {
		rule := &grammar.Rule{ID: id, Name: f.Table.Name(id), Body: body}
		g.Rules[id] = rule
	}
	return g
}

func TestRegexToEBNFLiteral(t *testing.T) {
	table := grammar.NewNonterminalTable()
	f, err := RegexToEBNF("abc", table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := mergeIntoGrammar(f)
	if err := g.Validate(); err != nil {
		t.Fatalf("invalid grammar: %v", err)
	}
}

func TestRegexToEBNFRepeat(t *testing.T) {
	table := grammar.NewNonterminalTable()
	f, err := RegexToEBNF("a{2,4}b*[0-9]+", table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := mergeIntoGrammar(f)
	if err := g.Validate(); err != nil {
		t.Fatalf("invalid grammar: %v", err)
	}
}

func TestRegexToEBNFInvalid(t *testing.T) {
	table := grammar.NewNonterminalTable()
	if _, err := RegexToEBNF("a(", table); err == nil {
		t.Fatal("expected parse error for unbalanced group")
	}
}

func TestJSONSchemaToEBNFObject(t *testing.T) {
	table := grammar.NewNonterminalTable()
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"age":  map[string]any{"type": "integer"},
		},
		"required": []any{"name"},
	}
	f, err := ToEBNF(schema, StyleJSON, DefaultContext(), table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := mergeIntoGrammar(f)
	if err := g.Validate(); err != nil {
		t.Fatalf("invalid grammar: %v", err)
	}
}

func TestJSONSchemaToEBNFQwenXML(t *testing.T) {
	table := grammar.NewNonterminalTable()
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{"type": "string"},
		},
		"required": []any{"location"},
	}
	f, err := ToEBNF(schema, StyleQwenXML, DefaultContext(), table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := mergeIntoGrammar(f)
	if err := g.Validate(); err != nil {
		t.Fatalf("invalid grammar: %v", err)
	}
}

func TestJSONSchemaToEBNFBool(t *testing.T) {
	table := grammar.NewNonterminalTable()
	f, err := ToEBNF(true, StyleJSON, DefaultContext(), table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := mergeIntoGrammar(f)
	if err := g.Validate(); err != nil {
		t.Fatalf("invalid grammar: %v", err)
	}
}

func TestJSONSchemaToEBNFInvalidSchema(t *testing.T) {
	table := grammar.NewNonterminalTable()
	schema := map[string]any{"type": "not-a-real-type"}
	if _, err := ToEBNF(schema, StyleJSON, DefaultContext(), table); err == nil {
		t.Fatal("expected schema validation error")
	}
}
