package compiler

import (
	"testing"

	"github.com/ava12/sgrammar/ebnf"
	"github.com/ava12/sgrammar/matcher"
	"github.com/ava12/sgrammar/structtag"
)

func driveString(t *testing.T, m *matcher.State, s string) bool {
	t.Helper()
	for i := 0; i < len(s); i++ {
		if !m.Advance(s[i]) {
			return false
		}
	}
	return true
}

func TestEndToEndEBNFAlternationAndReference(t *testing.T) {
	g, err := ebnf.ParseString("scenario1", "root ::= rule1 rule2\nrule1 ::= (rule2|rule3) \"a\"\nrule2 ::= \"b\"\nrule3 ::= \"c\"")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	m := matcher.New(g)
	if !driveString(t, m, "bab") || !m.CanAccept() {
		t.Fatal(`"bab" should be accepted`)
	}

	m = matcher.New(g)
	if driveString(t, m, "abb") && m.CanAccept() {
		t.Fatal(`"abb" should be rejected`)
	}
}

func TestEndToEndEBNFRepetitionBounds(t *testing.T) {
	g, err := ebnf.ParseString("scenario2", "root ::= rule{2,3}\nrule ::= \"a\"|[bc]{4,}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	m := matcher.New(g)
	if !driveString(t, m, "aaa") || !m.CanAccept() {
		t.Fatal(`"aaa" should be accepted`)
	}

	m = matcher.New(g)
	if driveString(t, m, "aaaa") && m.CanAccept() {
		t.Fatal(`"aaaa" should be rejected (rule repeated at most 3 times)`)
	}

	m = matcher.New(g)
	if !driveString(t, m, "bcbcbcbcbc") || !m.CanAccept() {
		t.Fatal(`"bcbcbcbcbc" should be accepted`)
	}
}

func TestEndToEndTagMultiEnd(t *testing.T) {
	tag := structtag.Tag{
		Begin:   "BEG",
		Content: structtag.AnyText{},
		End:     structtag.TagEnd{Values: []string{"END1", "END2"}},
	}
	ann := mustAnnotate(t, tag)
	g, err := Compile(ann)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	m := matcher.New(g)
	if !driveString(t, m, "BEGhelloEND1") || !m.CanAccept() {
		t.Fatal(`"BEGhelloEND1" should be accepted`)
	}

	m = matcher.New(g)
	if driveString(t, m, "BEGhelloEND3") && m.CanAccept() {
		t.Fatal(`"BEGhelloEND3" should be rejected`)
	}
}

func TestEndToEndTriggeredTags(t *testing.T) {
	argsSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"arg1": map[string]any{"type": "string"},
			"arg2": map[string]any{"type": "integer"},
		},
		"required": []any{"arg1", "arg2"},
	}
	tt := structtag.TriggeredTags{
		Triggers: []string{"<function=f", "<function=g"},
		Tags: []structtag.Tag{
			{Begin: "<function=f1>", Content: structtag.JSONSchema{Schema: argsSchema}, End: structtag.TagEnd{Values: []string{"</function>"}}},
			{Begin: "<function=f2>", Content: structtag.JSONSchema{Schema: argsSchema}, End: structtag.TagEnd{Values: []string{"</function>"}}},
			{Begin: "<function=g>", Content: structtag.JSONSchema{Schema: argsSchema}, End: structtag.TagEnd{Values: []string{"</function>"}}},
		},
	}
	ann := mustAnnotate(t, tt)
	g, err := Compile(ann)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	m := matcher.New(g)
	if !driveString(t, m, `<function=f1>{"arg1":"abc","arg2":1}</function>`) || !m.CanAccept() {
		t.Fatal("full argument object should be accepted")
	}

	m = matcher.New(g)
	if driveString(t, m, `<function=f1>{"arg1":"abc"}</function>`) && m.CanAccept() {
		t.Fatal("missing required arg2 should be rejected")
	}
}

func TestEndToEndQwenXMLParameter(t *testing.T) {
	paramSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"age":  map[string]any{"type": "integer"},
		},
		"required": []any{"name", "age"},
	}
	ann := mustAnnotate(t, structtag.QwenXMLParameter{Schema: paramSchema})
	g, err := Compile(ann)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	m := matcher.New(g)
	if !driveString(t, m, "<parameter=name>Bob</parameter><parameter=age>100</parameter>") || !m.CanAccept() {
		t.Fatal("adjoining parameters should be accepted")
	}

	m = matcher.New(g)
	if driveString(t, m, "<parameter=name>Bob</parameter> <parameter=age>100</parameter>") && m.CanAccept() {
		t.Fatal("a stray space between parameters should be rejected")
	}
}

func TestEndToEndBoundedInteger(t *testing.T) {
	intSchema := map[string]any{
		"type":    "integer",
		"minimum": 0,
		"maximum": 20000000000,
	}
	ann := mustAnnotate(t, structtag.JSONSchema{Schema: intSchema})
	g, err := Compile(ann)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	m := matcher.New(g)
	if !driveString(t, m, "20000000000") {
		t.Fatal("20000000000 should match digit by digit")
	}
	if !m.CanAccept() {
		t.Fatal("EOS should be accepted once the full bound value has been consumed")
	}
}
