package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ava12/sgrammar"
	"github.com/ava12/sgrammar/grammar"
)

// Style selects the textual convention a JsonSchema/QwenXmlParameter node is
// lowered into.
type Style int

const (
	// StyleJSON lowers to a JSON value grammar.
	StyleJSON Style = iota
	// StyleQwenXML lowers each object property to an XML-ish
	// <parameter=name>value</parameter> run.
	StyleQwenXML
)

// Context carries the parameters the compiler threads into a JsonSchema
// lowering: indentation, strict-mode (reject additionalProperties unless a
// schema's own "additionalProperties" keyword says otherwise), and, for
// qwen_xml, the trailing lookahead inserted after each parameter value.
type Context struct {
	Indent               string
	Strict               bool
	QwenParameterTrailer grammar.Sequence
}

// DefaultContext is the zero-value Context: no indentation, non-strict, and
// (for qwen_xml) the "[ \n\t]* </parameter>" trailing lookahead.
func DefaultContext() Context {
	return Context{
		QwenParameterTrailer: grammar.Seq(
			grammar.Lookahead(grammar.Seq(
				grammar.Star(grammar.CharClass(false, grammar.CharRange{Lo: ' ', Hi: ' '}, grammar.CharRange{Lo: '\n', Hi: '\n'}, grammar.CharRange{Lo: '\t', Hi: '\t'})),
				grammar.Terminal("</parameter>"),
			)),
		),
	}
}

// ToEBNF lowers a JSON Schema (raw bool|object, as decoded from the
// structural-tag wire format) into a Fragment rooted at a fresh
// nonterminal. The schema is first compiled with
// github.com/santhosh-tekuri/jsonschema/v6 purely to reject malformed
// schemas with a precise error before any lowering work begins; the
// lowering itself walks the schema's own JSON shape.
func ToEBNF(rawSchema any, style Style, ctx Context, table *grammar.NonterminalTable) (*Fragment, error) {
	if err := validateSchemaShape(rawSchema); err != nil {
		return nil, err
	}

	f := newFragment(table)
	start, err := f.lowerAny(rawSchema, style, ctx)
	if err != nil {
		return nil, err
	}
	f.Start = start
	return f, nil
}

func validateSchemaShape(rawSchema any) error {
	encoded, err := json.Marshal(rawSchema)
	if err != nil {
		return fmt.Errorf("schema: marshal schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return fmt.Errorf("schema: invalid JSON schema: %w", err)
	}

	const resourceURL = "mem://structural-tag-schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceURL, doc); err != nil {
		return fmt.Errorf("schema: add resource: %w", err)
	}
	if _, err := c.Compile(resourceURL); err != nil {
		return fmt.Errorf("schema: compile: %w", err)
	}
	return nil
}

// lowerAny dispatches on the raw decoded schema shape: bool, or an object
// keyed by JSON Schema keywords.
func (f *Fragment) lowerAny(raw any, style Style, ctx Context) (int, error) {
	switch v := raw.(type) {
	case bool:
		if v {
			return f.lowerAnySchema(), nil
		}
		return f.addRule("schema_never", grammar.RuleBody{}), nil
	case map[string]any:
		return f.lowerObjectSchema(v, style, ctx)
	default:
		return f.lowerAnySchema(), nil
	}
}

func (f *Fragment) lowerObjectSchema(s map[string]any, style Style, ctx Context) (int, error) {
	if enum, ok := s["enum"].([]any); ok && len(enum) > 0 {
		return f.lowerEnum(enum), nil
	}
	if c, ok := s["const"]; ok {
		return f.lowerConst(c), nil
	}
	if anyOf, ok := s["anyOf"].([]any); ok && len(anyOf) > 0 {
		return f.lowerUnionOf(anyOf, style, ctx)
	}
	if oneOf, ok := s["oneOf"].([]any); ok && len(oneOf) > 0 {
		return f.lowerUnionOf(oneOf, style, ctx)
	}
	if allOf, ok := s["allOf"].([]any); ok && len(allOf) == 1 {
		return f.lowerAny(allOf[0], style, ctx)
	}

	typeName, _ := s["type"].(string)
	if typeName == "" {
		if _, hasProps := s["properties"]; hasProps {
			typeName = "object"
		} else if _, hasItems := s["items"]; hasItems {
			typeName = "array"
		}
	}

	switch typeName {
	case "object":
		if style == StyleQwenXML {
			return f.lowerQwenXMLObject(s, ctx)
		}
		return f.lowerJSONObject(s, style, ctx)
	case "array":
		return f.lowerJSONArray(s, style, ctx)
	case "string":
		return f.lowerJSONString(s), nil
	case "integer":
		return f.lowerJSONInteger(s)
	case "number":
		return f.lowerJSONNumber(s)
	case "boolean":
		return f.lowerJSONBoolean(), nil
	case "null":
		return f.addRule("schema_null", grammar.Alt(grammar.Seq(grammar.Terminal("null")))), nil
	default:
		return f.lowerAnySchema(), nil
	}
}

func (f *Fragment) lowerEnum(values []any) int {
	var alts []grammar.Sequence
	for _, v := range values {
		encoded, _ := json.Marshal(v)
		alts = append(alts, grammar.Seq(grammar.Terminal(string(encoded))))
	}
	return f.addRule("schema_enum", grammar.RuleBody{Alternatives: alts})
}

func (f *Fragment) lowerConst(v any) int {
	encoded, _ := json.Marshal(v)
	return f.addRule("schema_const", grammar.Alt(grammar.Seq(grammar.Terminal(string(encoded)))))
}

func (f *Fragment) lowerUnionOf(branches []any, style Style, ctx Context) (int, error) {
	var alts []grammar.Sequence
	for _, b := range branches {
		sub, err := f.lowerAny(b, style, ctx)
		if err != nil {
			return 0, err
		}
		alts = append(alts, grammar.Seq(grammar.NonterminalRef(sub)))
	}
	return f.addRule("schema_or", grammar.RuleBody{Alternatives: alts}), nil
}

// objectIsStrict decides whether s's object grammar should be closed (no
// extra properties beyond the declared ones) or should admit a trailing
// run of "additionalProperties"-style key/value pairs. A schema's own
// boolean additionalProperties keyword always wins; with it absent, the
// Context's own default applies.
func objectIsStrict(s map[string]any, ctx Context) bool {
	if ap, ok := s["additionalProperties"].(bool); ok {
		return !ap
	}
	return ctx.Strict
}

func (f *Fragment) lowerJSONObject(s map[string]any, style Style, ctx Context) (int, error) {
	id, _ := f.Table.Fresh("schema_object")

	props, _ := s["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	required := map[string]bool{}
	if req, ok := s["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				required[name] = true
			}
		}
	}

	var seq grammar.Sequence
	seq = append(seq, grammar.Terminal("{"))
	for i, name := range names {
		if i > 0 {
			seq = append(seq, grammar.Terminal(","+ctx.Indent))
		}
		encodedName, _ := json.Marshal(name)
		seq = append(seq, grammar.Terminal(string(encodedName)+":"+ctx.Indent))
		valueID, err := f.lowerAny(props[name], style, ctx)
		if err != nil {
			return 0, err
		}
		member := grammar.Element(grammar.NonterminalRef(valueID))
		if !required[name] {
			member = grammar.Opt(member)
		}
		seq = append(seq, member)
	}

	if !objectIsStrict(s, ctx) {
		if len(names) == 0 {
			seq = append(seq, grammar.Opt(grammar.NonterminalRef(f.additionalPropertiesList(ctx))))
		} else {
			seq = append(seq, grammar.Star(grammar.NonterminalRef(f.additionalPropertyEntry(ctx))))
		}
	}

	seq = append(seq, grammar.Terminal("}"))

	f.Rules[id] = grammar.Alt(seq)
	return id, nil
}

// additionalPropertyEntry builds a single ","<key>":"<value> entry, used to
// extend an object that already has at least one declared member.
func (f *Fragment) additionalPropertyEntry(ctx Context) int {
	keyValueID := f.anyPropertyKeyValue(ctx)
	id, _ := f.Table.Fresh("schema_object_extra")
	f.Rules[id] = grammar.Alt(grammar.Seq(grammar.Terminal(","+ctx.Indent), grammar.NonterminalRef(keyValueID)))
	return id
}

// additionalPropertiesList builds a comma-separated run of <key>":"<value>
// entries with no leading comma, used when an object declares no members of
// its own so the very first extra property carries none either.
func (f *Fragment) additionalPropertiesList(ctx Context) int {
	keyValueID := f.anyPropertyKeyValue(ctx)

	tailID, _ := f.Table.Fresh("schema_object_extra_tail")
	f.Rules[tailID] = grammar.Alt(
		grammar.Seq(grammar.Terminal(","+ctx.Indent), grammar.NonterminalRef(keyValueID), grammar.NonterminalRef(tailID)),
		grammar.Seq(),
	)

	id, _ := f.Table.Fresh("schema_object_extra_list")
	f.Rules[id] = grammar.Alt(grammar.Seq(grammar.NonterminalRef(keyValueID), grammar.NonterminalRef(tailID)))
	return id
}

func (f *Fragment) anyPropertyKeyValue(ctx Context) int {
	keyID := f.lowerJSONString(nil)
	valueID := f.lowerAnySchema()
	id, _ := f.Table.Fresh("schema_object_extra_entry")
	f.Rules[id] = grammar.Alt(grammar.Seq(grammar.NonterminalRef(keyID), grammar.Terminal(":"+ctx.Indent), grammar.NonterminalRef(valueID)))
	return id
}

// lowerQwenXMLObject lowers each property into a
// "<parameter=name>value</parameter>" run, the value followed by the
// context's trailer (a lookahead for optional whitespace and "</parameter>").
func (f *Fragment) lowerQwenXMLObject(s map[string]any, ctx Context) (int, error) {
	id, _ := f.Table.Fresh("schema_qwen_object")

	props, _ := s["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var paramAlts []grammar.Sequence
	for _, name := range names {
		valueID, err := f.lowerAny(props[name], StyleQwenXML, ctx)
		if err != nil {
			return 0, err
		}
		// The trailer ends in a lookahead, which grammar.Validate only allows
		// at the tail of a sequence, so value and trailer get a rule of their own.
		valueRuleID, _ := f.Table.Fresh("schema_qwen_value")
		valueSeq := grammar.Seq(grammar.NonterminalRef(valueID))
		valueSeq = append(valueSeq, ctx.QwenParameterTrailer...)
		f.Rules[valueRuleID] = grammar.Alt(valueSeq)
		seq := grammar.Seq(grammar.Terminal("<parameter="+name+">"), grammar.NonterminalRef(valueRuleID), grammar.Terminal("</parameter>"))
		paramAlts = append(paramAlts, seq)
	}
	paramID, _ := f.Table.Fresh("schema_qwen_param")
	f.Rules[paramID] = grammar.RuleBody{Alternatives: paramAlts}

	f.Rules[id] = grammar.Alt(grammar.Seq(grammar.Star(grammar.NonterminalRef(paramID))))
	return id, nil
}

func (f *Fragment) lowerJSONArray(s map[string]any, style Style, ctx Context) (int, error) {
	id, _ := f.Table.Fresh("schema_array")

	itemSchema, ok := s["items"]
	if !ok {
		f.Rules[id] = grammar.Alt(grammar.Seq(grammar.Terminal("["), grammar.Terminal("]")))
		return id, nil
	}
	itemID, err := f.lowerAny(itemSchema, style, ctx)
	if err != nil {
		return 0, err
	}

	minItems := 0
	if mi, ok := s["minItems"].(float64); ok {
		minItems = int(mi)
	}

	itemsTailID, _ := f.Table.Fresh("schema_array_tail")
	f.Rules[itemsTailID] = grammar.Alt(
		grammar.Seq(grammar.Terminal(","+ctx.Indent), grammar.NonterminalRef(itemID), grammar.NonterminalRef(itemsTailID)),
		grammar.Seq(),
	)

	listID, _ := f.Table.Fresh("schema_array_list")
	f.Rules[listID] = grammar.Alt(grammar.Seq(grammar.NonterminalRef(itemID), grammar.NonterminalRef(itemsTailID)))

	var bodyAlts []grammar.Sequence
	if minItems == 0 {
		bodyAlts = append(bodyAlts, grammar.Seq())
	}
	bodyAlts = append(bodyAlts, grammar.Seq(grammar.NonterminalRef(listID)))
	bodyID, _ := f.Table.Fresh("schema_array_body")
	f.Rules[bodyID] = grammar.RuleBody{Alternatives: bodyAlts}

	f.Rules[id] = grammar.Alt(grammar.Seq(grammar.Terminal("["), grammar.NonterminalRef(bodyID), grammar.Terminal("]")))
	return id, nil
}

func (f *Fragment) lowerJSONString(s map[string]any) int {
	id, _ := f.Table.Fresh("schema_string")
	body := grammar.Star(grammar.CharClass(true, grammar.CharRange{Lo: '"', Hi: '"'}, grammar.CharRange{Lo: '\\', Hi: '\\'}))
	f.Rules[id] = grammar.Alt(grammar.Seq(grammar.Terminal(`"`), body, grammar.Terminal(`"`)))
	return id
}

// numberBound reads one minimum/maximum-family keyword's raw decoded value
// as an int64. json.Number is the expected shape (structtag.ParseJSON
// decodes schema blobs with UseNumber so large literals keep exact text);
// float64/int/int64 are accepted too for schemas built directly in Go.
// A fractional literal is rounded toward roundUp (ceil) or away from it
// (floor) so the resulting int64 bound never excludes a value the literal
// itself would have admitted. overflow reports a magnitude beyond what a
// signed 64-bit integer can represent; ok reports whether v was numeric
// at all.
func numberBound(v any, roundUp bool) (n int64, overflow bool, ok bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, false, true
		}
		parsed, err := t.Float64()
		if err != nil {
			if errors, is := err.(*strconv.NumError); is && errors.Err == strconv.ErrRange {
				return 0, true, true
			}
			return 0, false, false
		}
		f = parsed
	case float64:
		f = t
	case int:
		return int64(t), false, true
	case int64:
		return t, false, true
	default:
		return 0, false, false
	}
	if f > float64(math.MaxInt64) || f < float64(math.MinInt64) {
		return 0, true, true
	}
	if roundUp {
		return int64(math.Ceil(f)), false, true
	}
	return int64(math.Floor(f)), false, true
}

// intBoundsFromSchema reads minimum/exclusiveMinimum/maximum/exclusiveMaximum
// from s and returns the tightest [lo, hi] those keywords imply, defaulting
// to the full int64 range when a keyword is absent. It raises
// sgrammar.OverflowError for a bound whose magnitude exceeds the signed
// 64-bit range, and a plain schema error for a range left empty by the
// combination of bounds.
func intBoundsFromSchema(s map[string]any) (lo, hi int64, err error) {
	lo, hi = math.MinInt64, math.MaxInt64

	if v, present := s["minimum"]; present {
		n, overflow, ok := numberBound(v, false)
		if overflow {
			return 0, 0, sgrammar.OverflowError("minimum %v exceeds signed 64-bit range", v)
		}
		if ok && n > lo {
			lo = n
		}
	}
	if v, present := s["exclusiveMinimum"]; present {
		n, overflow, ok := numberBound(v, false)
		if overflow {
			return 0, 0, sgrammar.OverflowError("exclusiveMinimum %v exceeds signed 64-bit range", v)
		}
		if ok {
			if n == math.MaxInt64 {
				return 0, 0, sgrammar.OverflowError("exclusiveMinimum %v leaves no representable value", v)
			}
			if n+1 > lo {
				lo = n + 1
			}
		}
	}
	if v, present := s["maximum"]; present {
		n, overflow, ok := numberBound(v, true)
		if overflow {
			return 0, 0, sgrammar.OverflowError("maximum %v exceeds signed 64-bit range", v)
		}
		if ok && n < hi {
			hi = n
		}
	}
	if v, present := s["exclusiveMaximum"]; present {
		n, overflow, ok := numberBound(v, true)
		if overflow {
			return 0, 0, sgrammar.OverflowError("exclusiveMaximum %v exceeds signed 64-bit range", v)
		}
		if ok {
			if n == math.MinInt64 {
				return 0, 0, sgrammar.OverflowError("exclusiveMaximum %v leaves no representable value", v)
			}
			if n-1 < hi {
				hi = n - 1
			}
		}
	}

	if lo > hi {
		return 0, 0, sgrammar.FormatError(sgrammar.SchemaErrors, "integer schema range is empty: minimum %d exceeds maximum %d", lo, hi)
	}
	return lo, hi, nil
}

func (f *Fragment) lowerJSONInteger(s map[string]any) (int, error) {
	lo, hi, err := intBoundsFromSchema(s)
	if err != nil {
		return 0, err
	}
	id, _ := f.Table.Fresh("schema_integer")
	f.Rules[id] = f.intRangeBody(lo, hi)
	return id, nil
}

func (f *Fragment) lowerJSONNumber(s map[string]any) (int, error) {
	lo, hi, err := intBoundsFromSchema(s)
	if err != nil {
		return 0, err
	}

	id, _ := f.Table.Fresh("schema_number")
	digits := grammar.Plus(grammar.CharClass(false, grammar.CharRange{Lo: '0', Hi: '9'}))
	fracSeq := grammar.Seq(grammar.Terminal("."), digits)
	frac := grammar.Opt(f.groupElement(fracSeq))

	var intPart grammar.Element
	if lo == math.MinInt64 && hi == math.MaxInt64 {
		intPart = f.groupElement(grammar.Seq(grammar.Opt(grammar.Terminal("-")), digits))
	} else {
		intPart = f.intRangeElement(lo, hi)
	}
	f.Rules[id] = grammar.Alt(grammar.Seq(intPart, frac))
	return id, nil
}

func (f *Fragment) lowerJSONBoolean() int {
	id, _ := f.Table.Fresh("schema_boolean")
	f.Rules[id] = grammar.Alt(grammar.Seq(grammar.Terminal("true")), grammar.Seq(grammar.Terminal("false")))
	return id
}

// groupElement wraps a multi-element sequence as a single Element by
// allocating a fresh helper rule, mirroring ebnf's groupToElement for the
// same "repetition suffix needs one Element" reason.
func (f *Fragment) groupElement(seq grammar.Sequence) grammar.Element {
	id, _ := f.Table.Fresh("group")
	f.Rules[id] = grammar.Alt(seq)
	return grammar.NonterminalRef(id)
}

// lowerAnySchema lowers an unconstrained ("true" or empty) schema to the
// broadest JSON value grammar: an alternation over every JSON value shape.
func (f *Fragment) lowerAnySchema() int {
	id, _ := f.Table.Fresh("schema_any")
	str := f.lowerJSONString(nil)
	num, _ := f.lowerJSONNumber(nil)
	boolID := f.lowerJSONBoolean()
	f.Rules[id] = grammar.RuleBody{Alternatives: []grammar.Sequence{
		grammar.Seq(grammar.NonterminalRef(str)),
		grammar.Seq(grammar.NonterminalRef(num)),
		grammar.Seq(grammar.NonterminalRef(boolID)),
		grammar.Seq(grammar.Terminal("null")),
	}}
	return id
}

// --- bound-aware integer digit-range grammar ---
//
// Builds an EBNF fragment accepting exactly the decimal string
// representations of the integers in [lo, hi]. Negative and non-negative
// ranges are handled separately (negatives as "-" plus the magnitude's
// digit string); a magnitude range spanning more than one digit length is
// split at each power-of-ten boundary; within one fixed digit length the
// classic three-way recursive digit-matching construction (equal-head:
// recurse; low head with any-suffix-from-loRest-to-all-nines; strictly
// between heads with any digits; high head with any-suffix-from-all-zeros-
// to-hiRest) produces the alternation.

// magnitude returns |v| as a uint64, handling math.MinInt64 (whose negation
// overflows int64) by computing it through uint64 arithmetic.
func magnitude(v int64) uint64 {
	if v == math.MinInt64 {
		return uint64(math.MaxInt64) + 1
	}
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func (f *Fragment) intRangeBody(lo, hi int64) grammar.RuleBody {
	var alts []grammar.Sequence
	switch {
	case hi < 0:
		alts = f.negativeRangeAlts(lo, hi)
	case lo >= 0:
		alts = f.nonNegativeRangeAlts(magnitude(lo), magnitude(hi))
	default:
		alts = append(alts, f.negativeRangeAlts(lo, -1)...)
		alts = append(alts, f.nonNegativeRangeAlts(0, magnitude(hi))...)
	}
	return grammar.RuleBody{Alternatives: alts}
}

func (f *Fragment) intRangeElement(lo, hi int64) grammar.Element {
	id, _ := f.Table.Fresh("schema_integer_range")
	f.Rules[id] = f.intRangeBody(lo, hi)
	return grammar.NonterminalRef(id)
}

// negativeRangeAlts builds alternatives for the negative sub-range
// [lo, hi] (hi <= -1): a literal "-" followed by the magnitude range
// [magnitude(hi), magnitude(lo)] (hi, being closer to zero, has the
// smaller magnitude).
func (f *Fragment) negativeRangeAlts(lo, hi int64) []grammar.Sequence {
	var alts []grammar.Sequence
	for _, m := range f.nonNegativeRangeAlts(magnitude(hi), magnitude(lo)) {
		seq := grammar.Seq(grammar.Terminal("-"))
		seq = append(seq, m...)
		alts = append(alts, seq)
	}
	return alts
}

// nonNegativeRangeAlts builds alternatives matching the unsigned decimal
// representations of every value in [lo, hi], splitting at each digit-count
// boundary so every alternative compares fixed-length digit strings.
func (f *Fragment) nonNegativeRangeAlts(lo, hi uint64) []grammar.Sequence {
	if lo > hi {
		return nil
	}

	var alts []grammar.Sequence
	if lo == 0 {
		alts = append(alts, grammar.Seq(grammar.Terminal("0")))
		if hi == 0 {
			return alts
		}
		lo = 1
	}

	loStr := strconv.FormatUint(lo, 10)
	hiStr := strconv.FormatUint(hi, 10)
	for length := len(loStr); length <= len(hiStr); length++ {
		segLo := lo
		if length != len(loStr) {
			segLo = pow10(length - 1)
		}
		segHi := hi
		if length != len(hiStr) {
			segHi = pow10(length) - 1
		}
		alts = append(alts, f.digitRangeSeq(padDigits(segLo, length), padDigits(segHi, length)))
	}
	return alts
}

// digitRangeSeq matches fixed-length decimal strings in [loDigits, hiDigits]
// (same length, compared digit by digit).
func (f *Fragment) digitRangeSeq(loDigits, hiDigits []byte) grammar.Sequence {
	n := len(loDigits)
	if n == 0 {
		return grammar.Sequence{}
	}
	if isAllDigit(loDigits, '0') && isAllDigit(hiDigits, '9') {
		return grammar.Seq(grammar.Repeat(grammar.CharClass(false, grammar.CharRange{Lo: '0', Hi: '9'}), n, n))
	}

	loHead, hiHead := loDigits[0], hiDigits[0]
	if loHead == hiHead {
		seq := grammar.Seq(grammar.CharClass(false, grammar.CharRange{Lo: rune(loHead), Hi: rune(loHead)}))
		return append(seq, f.digitRangeSeq(loDigits[1:], hiDigits[1:])...)
	}

	var alts []grammar.Sequence

	lowSeq := grammar.Seq(grammar.CharClass(false, grammar.CharRange{Lo: rune(loHead), Hi: rune(loHead)}))
	lowSeq = append(lowSeq, f.digitRangeSeq(loDigits[1:], repeatDigit('9', n-1))...)
	alts = append(alts, lowSeq)

	if hiHead-loHead >= 2 {
		midSeq := grammar.Seq(grammar.CharClass(false, grammar.CharRange{Lo: rune(loHead + 1), Hi: rune(hiHead - 1)}))
		if n > 1 {
			midSeq = append(midSeq, grammar.Repeat(grammar.CharClass(false, grammar.CharRange{Lo: '0', Hi: '9'}), n-1, n-1))
		}
		alts = append(alts, midSeq)
	}

	highSeq := grammar.Seq(grammar.CharClass(false, grammar.CharRange{Lo: rune(hiHead), Hi: rune(hiHead)}))
	highSeq = append(highSeq, f.digitRangeSeq(repeatDigit('0', n-1), hiDigits[1:])...)
	alts = append(alts, highSeq)

	id, _ := f.Table.Fresh("schema_integer_digits")
	f.Rules[id] = grammar.RuleBody{Alternatives: alts}
	return grammar.Seq(grammar.NonterminalRef(id))
}

func isAllDigit(digits []byte, d byte) bool {
	for _, b := range digits {
		if b != d {
			return false
		}
	}
	return true
}

func repeatDigit(d byte, n int) []byte {
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = d
	}
	return out
}

func padDigits(v uint64, length int) []byte {
	s := strconv.FormatUint(v, 10)
	for len(s) < length {
		s = "0" + s
	}
	return []byte(s)
}

func pow10(n int) uint64 {
	v := uint64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
