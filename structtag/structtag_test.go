package structtag

import "testing"

func TestParseJSONConstString(t *testing.T) {
	f, err := ParseJSON([]byte(`{"type":"const_string","value":"hello"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cs, ok := f.(ConstString)
	if !ok || cs.Value != "hello" {
		t.Fatalf("unexpected decode: %+v", f)
	}
}

func TestParseJSONMalformed(t *testing.T) {
	if _, err := ParseJSON([]byte(`{not json`)); err == nil {
		t.Fatal("expected JSON parse error")
	}
}

func TestParseJSONTag(t *testing.T) {
	payload := []byte(`{
		"type": "tag",
		"begin": "<think>",
		"content": {"type": "any_text", "excludes": []},
		"end": "</think>"
	}`)
	f, err := ParseJSON(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tag, ok := f.(Tag)
	if !ok {
		t.Fatalf("expected Tag, got %T", f)
	}
	if tag.Begin != "<think>" || len(tag.End.Values) != 1 || tag.End.Values[0] != "</think>" {
		t.Fatalf("unexpected tag: %+v", tag)
	}
}

func TestValidateConstStringEmpty(t *testing.T) {
	if _, err := Validate(ConstString{Value: ""}); err == nil {
		t.Fatal("expected error for empty const_string value")
	}
}

func TestValidateTagRequiresEndForUnboundedContent(t *testing.T) {
	tag := Tag{Begin: "<a>", Content: AnyText{}, End: TagEnd{Values: []string{""}}}
	if _, err := Validate(tag); err == nil {
		t.Fatal("expected error: unbounded content requires a non-empty end string")
	}
}

func TestValidateTagOK(t *testing.T) {
	tag := Tag{Begin: "<a>", Content: AnyText{}, End: TagEnd{Values: []string{"</a>"}}}
	ann, err := Validate(tag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ann.Bounded || len(ann.EndSet) != 1 || ann.EndSet[0] != "</a>" {
		t.Fatalf("unexpected annotation: %+v", ann)
	}
}

func TestValidateSequenceRejectsUnboundedNonLast(t *testing.T) {
	seq := Sequence{Elements: []Format{AnyText{}, ConstString{Value: "x"}}}
	if _, err := Validate(seq); err == nil {
		t.Fatal("expected error: only the last element may be unbounded")
	}
}

func TestValidateSequenceAllowsUnboundedLast(t *testing.T) {
	seq := Sequence{Elements: []Format{ConstString{Value: "x"}, AnyText{}}}
	if _, err := Validate(seq); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateOrMixedBoundedness(t *testing.T) {
	or := Or{Elements: []Format{ConstString{Value: "x"}, AnyText{}}}
	if _, err := Validate(or); err == nil {
		t.Fatal("expected error: mixing bounded and unbounded branches")
	}
}

func TestValidateTriggeredTagsPrefixMismatch(t *testing.T) {
	tt := TriggeredTags{
		Triggers: []string{"<f>"},
		Tags: []Tag{
			{Begin: "<g>", Content: ConstString{Value: "x"}, End: TagEnd{Values: []string{"</g>"}}},
		},
	}
	if _, err := Validate(tt); err == nil {
		t.Fatal("expected error: tag begin not prefixed by any trigger")
	}
}

func TestValidateTriggeredTagsOK(t *testing.T) {
	tt := TriggeredTags{
		Triggers: []string{"<f>"},
		Tags: []Tag{
			{Begin: "<f>", Content: ConstString{Value: "x"}, End: TagEnd{Values: []string{"</f>"}}},
		},
		StopAfterFirst: true,
	}
	if _, err := Validate(tt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTagsWithSeparatorDefaultsSeparator(t *testing.T) {
	payload := []byte(`{
		"type": "tags_with_separator",
		"tags": [{"type":"tag","begin":"<a>","content":{"type":"const_string","value":"x"},"end":"</a>"}]
	}`)
	f, err := ParseJSON(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tws, ok := f.(TagsWithSeparator)
	if !ok {
		t.Fatalf("expected TagsWithSeparator, got %T", f)
	}
	if tws.Separator != "," {
		t.Fatalf("expected default separator \",\", got %q", tws.Separator)
	}
}
