/*
Package structtag decodes the structural-tag wire format, validates its
well-formedness rules, and annotates every node bottom-up with
bounded/end_set/contains_unlimited_text.

Format is a closed tagged union. Decoding follows the generate-then-validate
pattern of holomush's internal/plugin/schema.go: a JSON Schema for the wire
DTOs is generated once, on first use, via invopop/jsonschema, the raw
payload is pre-validated against it with santhosh-tekuri/jsonschema/v6, and
only then decoded into the Format tree with encoding/json. Failures while
building that schema are wrapped with samber/oops; every failure is
returned as an sgrammar.Error.
*/
package structtag

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"sync"

	"github.com/ava12/sgrammar"
)

// Format is the closed tagged union of structural-tag nodes. Each
// concrete type below implements it; the set is closed by the unexported
// marker method.
type Format interface {
	formatNode()
}

type ConstString struct {
	Value string `json:"value"`
}

type JSONSchema struct {
	Schema any    `json:"schema"`
	Style  string `json:"style"`
}

type QwenXMLParameter struct {
	Schema any `json:"schema"`
}

type AnyText struct {
	Excludes []string `json:"excludes"`
}

type Grammar struct {
	EBNF string `json:"ebnf"`
}

type Regex struct {
	Pattern  string   `json:"pattern"`
	Excludes []string `json:"excludes"`
}

type Sequence struct {
	Elements []Format `json:"elements"`
}

type Or struct {
	Elements []Format `json:"elements"`
}

type Tag struct {
	Begin   string   `json:"begin"`
	Content Format   `json:"content"`
	End     TagEnd   `json:"end"`
}

// TagEnd holds Tag.end, which the wire format allows as either a single
// string or a non-empty list of strings; decodeTagEnd builds it from
// the generically-decoded wire value.
type TagEnd struct {
	Values []string
}

type TriggeredTags struct {
	Triggers       []string `json:"triggers"`
	Tags           []Tag    `json:"tags"`
	AtLeastOne     bool     `json:"at_least_one"`
	StopAfterFirst bool     `json:"stop_after_first"`
	Excludes       []string `json:"excludes"`
}

type TagsWithSeparator struct {
	Tags           []Tag  `json:"tags"`
	Separator      string `json:"separator"`
	AtLeastOne     bool   `json:"at_least_one"`
	StopAfterFirst bool   `json:"stop_after_first"`
}

func (ConstString) formatNode()       {}
func (JSONSchema) formatNode()        {}
func (QwenXMLParameter) formatNode()  {}
func (AnyText) formatNode()           {}
func (Grammar) formatNode()           {}
func (Regex) formatNode()             {}
func (Sequence) formatNode()          {}
func (Or) formatNode()                {}
func (Tag) formatNode()               {}
func (TriggeredTags) formatNode()     {}
func (TagsWithSeparator) formatNode() {}

// Annotated pairs a validated Format node with the derived attributes
// Validate computes bottom-up.
type Annotated struct {
	Node                  Format
	Children              []*Annotated
	Bounded               bool
	EndSet                []string
	ContainsUnlimitedText bool
}

var (
	wireSchemaOnce sync.Once
	wireSchema     *jschema.Schema
	wireSchemaErr  error
)

// wireDTO is the JSON shape decoded from the wire: one "type" discriminator
// plus every variant's fields flattened, mirroring how a tagged union is
// realized over plain JSON. It exists purely for the generated meta-schema
// and the first decoding pass; ParseJSON converts it into the closed
// Format tree.
type wireDTO struct {
	Type string `json:"type"`

	Value string `json:"value,omitempty"`

	Schema any    `json:"schema,omitempty"`
	Style  string `json:"style,omitempty"`

	Excludes []string `json:"excludes,omitempty"`

	EBNF string `json:"ebnf,omitempty"`

	Pattern string `json:"pattern,omitempty"`

	Elements []wireDTO `json:"elements,omitempty"`

	Begin   string   `json:"begin,omitempty"`
	Content *wireDTO `json:"content,omitempty"`
	End     any      `json:"end,omitempty"`

	Triggers       []string  `json:"triggers,omitempty"`
	Tags           []wireDTO `json:"tags,omitempty"`
	AtLeastOne     bool      `json:"at_least_one,omitempty"`
	StopAfterFirst bool      `json:"stop_after_first,omitempty"`
	Separator      string    `json:"separator,omitempty"`
}

func compiledWireSchema() (*jschema.Schema, error) {
	wireSchemaOnce.Do(func() {
		r := jsonschema.Reflector{DoNotReference: true}
		raw := r.Reflect(&wireDTO{})
		raw.Required = []string{"type"}

		data, err := json.Marshal(raw)
		if err != nil {
			wireSchemaErr = oops.In("structtag").Hint("failed to marshal generated meta-schema").Wrap(err)
			return
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			wireSchemaErr = oops.In("structtag").Hint("failed to re-decode generated meta-schema").Wrap(err)
			return
		}

		c := jschema.NewCompiler()
		if err := c.AddResource("mem://structtag-wire.json", doc); err != nil {
			wireSchemaErr = oops.In("structtag").Hint("failed to add meta-schema resource").Wrap(err)
			return
		}
		wireSchema, wireSchemaErr = c.Compile("mem://structtag-wire.json")
		if wireSchemaErr != nil {
			wireSchemaErr = oops.In("structtag").Hint("failed to compile meta-schema").Wrap(wireSchemaErr)
		}
	})
	return wireSchema, wireSchemaErr
}

// ParseJSON decodes and validates a structural-tag wire payload into a
// Format tree. A malformed JSON payload surfaces as sgrammar.JSONParseError,
// a payload that does not match the wire schema as a StructTagErrors error;
// both are sgrammar.Error values, not bare decode errors.
func ParseJSON(payload []byte) (Format, error) {
	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return nil, sgrammar.JSONParseError(err.Error())
	}

	schema, err := compiledWireSchema()
	if err != nil {
		return nil, sgrammar.FormatError(sgrammar.StructTagErrors, "internal: %s", err.Error())
	}
	if err := schema.Validate(generic); err != nil {
		return nil, sgrammar.FormatError(sgrammar.StructTagErrors+1, "structural tag does not match wire schema: %s", err.Error())
	}

	// UseNumber so a nested json_schema/qwen_xml_parameter "schema" blob keeps
	// large integer bounds (minimum/maximum) as exact literal text instead of
	// a float64 that would silently lose precision past 2^53.
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var dto wireDTO
	if err := dec.Decode(&dto); err != nil {
		return nil, sgrammar.JSONParseError(err.Error())
	}
	return dtoToFormat(&dto)
}

func dtoToFormat(d *wireDTO) (Format, error) {
	switch d.Type {
	case "const_string":
		return ConstString{Value: d.Value}, nil
	case "json_schema":
		return JSONSchema{Schema: d.Schema, Style: d.Style}, nil
	case "qwen_xml_parameter":
		return QwenXMLParameter{Schema: d.Schema}, nil
	case "any_text":
		return AnyText{Excludes: d.Excludes}, nil
	case "grammar":
		return Grammar{EBNF: d.EBNF}, nil
	case "regex":
		return Regex{Pattern: d.Pattern, Excludes: d.Excludes}, nil
	case "sequence":
		elems, err := dtoListToFormats(d.Elements)
		if err != nil {
			return nil, err
		}
		return Sequence{Elements: elems}, nil
	case "or":
		elems, err := dtoListToFormats(d.Elements)
		if err != nil {
			return nil, err
		}
		return Or{Elements: elems}, nil
	case "tag":
		tag, err := dtoToTag(d)
		if err != nil {
			return nil, err
		}
		return tag, nil
	case "triggered_tags":
		tags := make([]Tag, 0, len(d.Tags))
		for i := range d.Tags {
			tag, err := dtoToTag(&d.Tags[i])
			if err != nil {
				return nil, err
			}
			tags = append(tags, tag)
		}
		return TriggeredTags{
			Triggers:       d.Triggers,
			Tags:           tags,
			AtLeastOne:     d.AtLeastOne,
			StopAfterFirst: d.StopAfterFirst,
			Excludes:       d.Excludes,
		}, nil
	case "tags_with_separator":
		tags := make([]Tag, 0, len(d.Tags))
		for i := range d.Tags {
			tag, err := dtoToTag(&d.Tags[i])
			if err != nil {
				return nil, err
			}
			tags = append(tags, tag)
		}
		// separator defaults to "," when omitted.
		sep := d.Separator
		if sep == "" {
			sep = ","
		}
		return TagsWithSeparator{
			Tags:           tags,
			Separator:      sep,
			AtLeastOne:     d.AtLeastOne,
			StopAfterFirst: d.StopAfterFirst,
		}, nil
	default:
		return nil, validationError("", "unknown structural tag type %q", d.Type)
	}
}

func dtoToTag(d *wireDTO) (Tag, error) {
	var content Format
	var err error
	if d.Content != nil {
		content, err = dtoToFormat(d.Content)
		if err != nil {
			return Tag{}, err
		}
	}
	end, err := decodeTagEnd(d.End)
	if err != nil {
		return Tag{}, err
	}
	return Tag{Begin: d.Begin, Content: content, End: end}, nil
}

func decodeTagEnd(raw any) (TagEnd, error) {
	switch v := raw.(type) {
	case string:
		return TagEnd{Values: []string{v}}, nil
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return TagEnd{}, validationError("tag", "end list must contain only strings")
			}
			values = append(values, s)
		}
		return TagEnd{Values: values}, nil
	case nil:
		return TagEnd{}, nil
	default:
		return TagEnd{}, validationError("tag", "end must be a string or list of strings")
	}
}

func dtoListToFormats(items []wireDTO) ([]Format, error) {
	out := make([]Format, 0, len(items))
	for i := range items {
		f, err := dtoToFormat(&items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func validationError(node, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	wrapped := oops.In("structtag").With("node", node).Errorf("%s", msg)
	return sgrammar.FormatError(sgrammar.StructTagErrors+2, "%s", wrapped.Error())
}
