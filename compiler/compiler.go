/*
Package compiler lowers a validated structural-tag tree (structtag.Annotated)
into a single grammar.Grammar, recursively threading an inherited OuterEnd
attribute the way a langdef-style package threads per-chunk build state
through its recursive BuildStates methods — one lowering function per node
kind, dispatched by a type switch, each returning the id of the nonterminal
it just built.
*/
package compiler

import (
	"github.com/ava12/sgrammar"
	"github.com/ava12/sgrammar/ebnf"
	"github.com/ava12/sgrammar/grammar"
	"github.com/ava12/sgrammar/schema"
	"github.com/ava12/sgrammar/structtag"
)

// maxDepth guards against adversarial structural-tag trees with unbounded
// nesting.
const maxDepth = 256

type compileContext struct {
	g     *grammar.Grammar
	depth int
}

// Compile lowers a validated structural-tag tree into a grammar.Grammar
// with OuterEnd = ∅ at the top.
func Compile(tree *structtag.Annotated) (*grammar.Grammar, error) {
	c := &compileContext{g: grammar.New()}
	rootID, err := c.lower(tree, nil)
	if err != nil {
		return nil, err
	}
	c.g.Root = rootID
	if err := c.g.Validate(); err != nil {
		return nil, compilationError(err.Error())
	}
	return c.g, nil
}

func compilationError(msg string, args ...any) error {
	return sgrammar.FormatError(sgrammar.CompilerErrors, "Invalid structural tag error: "+msg, args...)
}

func (c *compileContext) lower(node *structtag.Annotated, outerEnd []string) (int, error) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > maxDepth {
		return 0, compilationError("structural tag nesting exceeds depth limit")
	}

	switch v := node.Node.(type) {
	case structtag.ConstString:
		return c.lowerConstString(v), nil
	case structtag.JSONSchema:
		return c.lowerJSONSchema(v, outerEnd)
	case structtag.QwenXMLParameter:
		return c.lowerQwenXMLParameter(v, outerEnd)
	case structtag.AnyText:
		return c.lowerAnyText(v, outerEnd), nil
	case structtag.Grammar:
		return c.lowerGrammar(v)
	case structtag.Regex:
		return c.lowerRegex(v)
	case structtag.Sequence:
		return c.lowerSequence(node, outerEnd)
	case structtag.Or:
		return c.lowerOr(node, outerEnd)
	case structtag.Tag:
		return c.lowerTag(node, v)
	case structtag.TriggeredTags:
		return c.lowerTriggeredTags(node, v, outerEnd)
	case structtag.TagsWithSeparator:
		return c.lowerTagsWithSeparator(node, v, outerEnd)
	}

	return 0, compilationError("unrecognized node kind")
}

func (c *compileContext) fresh(base string) int {
	id, _ := c.g.Table.Fresh(base)
	return id
}

func (c *compileContext) lowerConstString(v structtag.ConstString) int {
	id := c.fresh("const_string")
	c.g.AddRule(id, grammar.Alt(grammar.Seq(grammar.Terminal(v.Value))))
	return id
}

func (c *compileContext) lowerJSONSchema(v structtag.JSONSchema, outerEnd []string) (int, error) {
	style := schema.StyleJSON
	if v.Style == "qwen_xml" {
		style = schema.StyleQwenXML
	}
	ctx := schema.DefaultContext()
	f, err := schema.ToEBNF(v.Schema, style, ctx, c.g.Table)
	if err != nil {
		return 0, compilationError("json_schema: %s", err.Error())
	}
	return f.Merge(c.g), nil
}

func (c *compileContext) lowerQwenXMLParameter(v structtag.QwenXMLParameter, outerEnd []string) (int, error) {
	return c.lowerJSONSchema(structtag.JSONSchema{Schema: v.Schema, Style: "qwen_xml"}, outerEnd)
}

func (c *compileContext) lowerAnyText(v structtag.AnyText, outerEnd []string) int {
	id := c.fresh("any_text")
	if len(outerEnd) == 0 {
		c.g.AddRule(id, grammar.Alt(grammar.Seq(grammar.Star(grammar.CharClass(true)))))
		return id
	}
	c.g.AddRule(id, grammar.Alt(grammar.Seq(grammar.TagDispatch(nil, false, outerEnd, false, v.Excludes))))
	return id
}

func (c *compileContext) lowerGrammar(v structtag.Grammar) (int, error) {
	g, err := ebnf.ParseString("structural-tag-grammar", v.EBNF)
	if err != nil {
		return 0, compilationError("grammar: %s", err.Error())
	}
	idMap := map[int]int{}
	for _, id := range g.SortedRuleIDs() {
		name := g.Table.Name(id)
		if id == g.Root {
			name = "grammar_root"
		}
		idMap[id] = c.fresh(name)
	}
	for _, id := range g.SortedRuleIDs() {
		c.g.AddRule(idMap[id], remapBody(g.Rules[id].Body, idMap))
	}
	return idMap[g.Root], nil
}

func (c *compileContext) lowerRegex(v structtag.Regex) (int, error) {
	f, err := schema.RegexToEBNF(v.Pattern, c.g.Table)
	if err != nil {
		return 0, compilationError("regex: %s", err.Error())
	}
	start := f.Merge(c.g)
	if len(v.Excludes) == 0 {
		return start, nil
	}

	id := c.fresh("regex_excluded")
	c.g.AddRule(id, grammar.Alt(grammar.Seq(
		grammar.TagDispatch([]grammar.Trigger{{Prefix: "", Body: start}}, true, nil, false, v.Excludes),
	)))
	return id, nil
}

func (c *compileContext) lowerSequence(node *structtag.Annotated, outerEnd []string) (int, error) {
	v := node.Node.(structtag.Sequence)
	n := len(v.Elements)
	ids := make([]int, n)
	for i := n - 1; i >= 0; i-- {
		var childEnd []string
		if i == n-1 {
			childEnd = outerEnd
		} else {
			childEnd = firstSetOf(node.Children[i+1])
		}
		id, err := c.lower(node.Children[i], childEnd)
		if err != nil {
			return 0, err
		}
		ids[i] = id
	}

	seq := make(grammar.Sequence, n)
	for i, id := range ids {
		seq[i] = grammar.NonterminalRef(id)
	}
	result := c.fresh("seq")
	c.g.AddRule(result, grammar.Alt(seq))
	return result, nil
}

// firstSetOf approximates the first-set of literal prefixes a node can
// start with, used to compute a preceding sibling's OuterEnd in a Sequence.
// For a bounded node this is its end_set fallback when no literal prefix is
// known to the annotation pass; for the common case of a ConstString or Tag
// the literal itself is the exact first-set element.
func firstSetOf(node *structtag.Annotated) []string {
	switch v := node.Node.(type) {
	case structtag.ConstString:
		return []string{v.Value}
	case structtag.Tag:
		return []string{v.Begin}
	case structtag.Sequence:
		if len(node.Children) > 0 {
			return firstSetOf(node.Children[0])
		}
	case structtag.Or:
		var out []string
		for _, child := range node.Children {
			out = append(out, firstSetOf(child)...)
		}
		return out
	}
	return node.EndSet
}

func (c *compileContext) lowerOr(node *structtag.Annotated, outerEnd []string) (int, error) {
	var alts []grammar.Sequence
	for _, child := range node.Children {
		id, err := c.lower(child, outerEnd)
		if err != nil {
			return 0, err
		}
		alts = append(alts, grammar.Seq(grammar.NonterminalRef(id)))
	}
	result := c.fresh("or")
	c.g.AddRule(result, grammar.RuleBody{Alternatives: alts})
	return result, nil
}

func (c *compileContext) lowerTag(node *structtag.Annotated, v structtag.Tag) (int, error) {
	endValues := v.End.Values
	nonEmptyEnds := make([]string, 0, len(endValues))
	for _, e := range endValues {
		if e != "" {
			nonEmptyEnds = append(nonEmptyEnds, e)
		}
	}

	contentID, err := c.lower(node.Children[0], nonEmptyEnds)
	if err != nil {
		return 0, err
	}

	id := c.fresh("tag")
	if len(endValues) == 1 {
		c.g.AddRule(id, grammar.Alt(grammar.Seq(
			grammar.Terminal(v.Begin),
			grammar.NonterminalRef(contentID),
			grammar.Terminal(endValues[0]),
		)))
		return id, nil
	}

	var endAlts []grammar.Sequence
	for _, e := range endValues {
		endAlts = append(endAlts, grammar.Seq(grammar.Terminal(e)))
	}
	tagEndID := c.fresh("tag_end")
	c.g.AddRule(tagEndID, grammar.RuleBody{Alternatives: endAlts})

	c.g.AddRule(id, grammar.Alt(grammar.Seq(
		grammar.Terminal(v.Begin),
		grammar.NonterminalRef(contentID),
		grammar.NonterminalRef(tagEndID),
	)))
	return id, nil
}

func (c *compileContext) lowerTriggeredTags(node *structtag.Annotated, v structtag.TriggeredTags, outerEnd []string) (int, error) {
	groups := map[string][]int{} // trigger -> indices into v.Tags/node.Children
	for i, tag := range v.Tags {
		trig := matchingTrigger(v.Triggers, tag.Begin)
		if trig == "" {
			return 0, compilationError("tag %q matches zero or multiple triggers", tag.Begin)
		}
		groups[trig] = append(groups[trig], i)
	}

	var triggers []grammar.Trigger
	for _, trig := range v.Triggers {
		indices, ok := groups[trig]
		if !ok {
			continue
		}
		groupID, err := c.lowerTriggerGroup(node, v, trig, indices)
		if err != nil {
			return 0, err
		}
		triggers = append(triggers, grammar.Trigger{Prefix: trig, Body: groupID})
	}

	stopEOS := len(outerEnd) == 0
	switch {
	case !v.StopAfterFirst && !v.AtLeastOne:
		id := c.fresh("triggered_tags")
		c.g.AddRule(id, grammar.Alt(grammar.Seq(grammar.TagDispatch(triggers, stopEOS, outerEnd, true, v.Excludes))))
		return id, nil

	case !v.StopAfterFirst && v.AtLeastOne:
		firstID, err := c.lowerTagsOred(node, v)
		if err != nil {
			return 0, err
		}
		subID := c.fresh("triggered_tags_sub")
		c.g.AddRule(subID, grammar.Alt(grammar.Seq(grammar.TagDispatch(triggers, stopEOS, outerEnd, true, v.Excludes))))
		id := c.fresh("triggered_tags")
		c.g.AddRule(id, grammar.Alt(grammar.Seq(grammar.NonterminalRef(firstID), grammar.NonterminalRef(subID))))
		return id, nil

	case v.StopAfterFirst && !v.AtLeastOne:
		id := c.fresh("triggered_tags")
		c.g.AddRule(id, grammar.Alt(grammar.Seq(grammar.TagDispatch(triggers, stopEOS, outerEnd, false, v.Excludes))))
		return id, nil

	default: // StopAfterFirst && AtLeastOne: degenerates to no TagDispatch
		return c.lowerTagsFullyInlined(node, v, outerEnd)
	}
}

func (c *compileContext) lowerTriggerGroup(node *structtag.Annotated, v structtag.TriggeredTags, trig string, indices []int) (int, error) {
	var alts []grammar.Sequence
	for _, i := range indices {
		tag := v.Tags[i]
		suffix := tag.Begin[len(trig):]
		contentID, err := c.lower(node.Children[i].Children[0], nonEmptyStrings(tag.End.Values))
		if err != nil {
			return 0, err
		}
		seq := grammar.Seq(grammar.Terminal(suffix), grammar.NonterminalRef(contentID))
		if len(tag.End.Values) == 1 {
			seq = append(seq, grammar.Terminal(tag.End.Values[0]))
		} else if len(tag.End.Values) > 1 {
			var endAlts []grammar.Sequence
			for _, e := range tag.End.Values {
				endAlts = append(endAlts, grammar.Seq(grammar.Terminal(e)))
			}
			endID := c.fresh("triggered_tags_end")
			c.g.AddRule(endID, grammar.RuleBody{Alternatives: endAlts})
			seq = append(seq, grammar.NonterminalRef(endID))
		}
		alts = append(alts, seq)
	}
	id := c.fresh("triggered_tags_group")
	c.g.AddRule(id, grammar.RuleBody{Alternatives: alts})
	return id, nil
}

// lowerTagsOred lowers the "at least one, but more may follow" case: the
// first triggered tag on its own, with no end string appended, since the
// TagDispatch sub-loop built by the caller handles everything after it.
func (c *compileContext) lowerTagsOred(node *structtag.Annotated, v structtag.TriggeredTags) (int, error) {
	var alts []grammar.Sequence
	for i, tag := range v.Tags {
		tagID, err := c.lowerTag(node.Children[i], tag)
		if err != nil {
			return 0, err
		}
		alts = append(alts, grammar.Seq(grammar.NonterminalRef(tagID)))
	}
	id := c.fresh("triggered_tags_first")
	c.g.AddRule(id, grammar.RuleBody{Alternatives: alts})
	return id, nil
}

// lowerTagsFullyInlined lowers the StopAfterFirst && AtLeastOne case: exactly
// one triggered tag, immediately followed by whichever outerEnd string
// terminates the enclosing construct.
func (c *compileContext) lowerTagsFullyInlined(node *structtag.Annotated, v structtag.TriggeredTags, outerEnd []string) (int, error) {
	endID := -1
	if len(outerEnd) > 0 {
		var endAlts []grammar.Sequence
		for _, e := range outerEnd {
			endAlts = append(endAlts, grammar.Seq(grammar.Terminal(e)))
		}
		endID = c.fresh("triggered_tags_inlined_end")
		c.g.AddRule(endID, grammar.RuleBody{Alternatives: endAlts})
	}

	var alts []grammar.Sequence
	for i, tag := range v.Tags {
		tagID, err := c.lowerTag(node.Children[i], tag)
		if err != nil {
			return 0, err
		}
		seq := grammar.Seq(grammar.NonterminalRef(tagID))
		if endID != -1 {
			seq = append(seq, grammar.NonterminalRef(endID))
		}
		alts = append(alts, seq)
	}
	id := c.fresh("triggered_tags_inlined")
	c.g.AddRule(id, grammar.RuleBody{Alternatives: alts})
	return id, nil
}

func matchingTrigger(triggers []string, begin string) string {
	match := ""
	count := 0
	for _, t := range triggers {
		if len(t) <= len(begin) && begin[:len(t)] == t {
			match = t
			count++
		}
	}
	if count != 1 {
		return ""
	}
	return match
}

func nonEmptyStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// lowerTagsWithSeparator lowers TagsWithSeparator into recursive
// "lst ::= tag (sep lst)?"-shaped rules.
func (c *compileContext) lowerTagsWithSeparator(node *structtag.Annotated, v structtag.TagsWithSeparator, outerEnd []string) (int, error) {
	var tagIDs []int
	for i, tag := range v.Tags {
		tagID, err := c.lowerTag(node.Children[i], tag)
		if err != nil {
			return 0, err
		}
		tagIDs = append(tagIDs, tagID)
	}

	oneTagID := c.fresh("tags_with_separator_item")
	var itemAlts []grammar.Sequence
	for _, id := range tagIDs {
		itemAlts = append(itemAlts, grammar.Seq(grammar.NonterminalRef(id)))
	}
	c.g.AddRule(oneTagID, grammar.RuleBody{Alternatives: itemAlts})

	lstID := c.fresh("tags_with_separator_list")
	tailID := c.fresh("tags_with_separator_tail")

	var tailAlts []grammar.Sequence
	if !v.StopAfterFirst {
		tailAlts = append(tailAlts, grammar.Seq(grammar.Terminal(v.Separator), grammar.NonterminalRef(lstID)))
	}
	tailAlts = append(tailAlts, grammar.Seq())
	c.g.AddRule(tailID, grammar.RuleBody{Alternatives: tailAlts})
	c.g.AddRule(lstID, grammar.Alt(grammar.Seq(grammar.NonterminalRef(oneTagID), grammar.NonterminalRef(tailID))))

	var rootAlts []grammar.Sequence
	if !v.AtLeastOne {
		rootAlts = append(rootAlts, grammar.Seq())
	}
	rootSeq := grammar.Seq(grammar.NonterminalRef(lstID))
	if len(outerEnd) > 0 {
		var endAlts []grammar.Sequence
		for _, e := range outerEnd {
			endAlts = append(endAlts, grammar.Seq(grammar.Terminal(e)))
		}
		endID := c.fresh("tags_with_separator_end")
		c.g.AddRule(endID, grammar.RuleBody{Alternatives: endAlts})
		rootSeq = append(rootSeq, grammar.NonterminalRef(endID))
	}
	rootAlts = append(rootAlts, rootSeq)

	id := c.fresh("tags_with_separator")
	c.g.AddRule(id, grammar.RuleBody{Alternatives: rootAlts})
	return id, nil
}

func remapBody(body grammar.RuleBody, idMap map[int]int) grammar.RuleBody {
	alts := make([]grammar.Sequence, len(body.Alternatives))
	for i, seq := range body.Alternatives {
		out := make(grammar.Sequence, len(seq))
		for j, el := range seq {
			out[j] = remapElement(el, idMap)
		}
		alts[i] = out
	}
	return grammar.RuleBody{Alternatives: alts}
}

func remapElement(el grammar.Element, idMap map[int]int) grammar.Element {
	switch el.Kind {
	case grammar.KindNonterminalRef:
		el.Ref = idMap[el.Ref]
	case grammar.KindRepetition:
		child := remapElement(*el.Child, idMap)
		el.Child = &child
	case grammar.KindLookahead:
		seq := make(grammar.Sequence, len(el.Assertion))
		for i, e := range el.Assertion {
			seq[i] = remapElement(e, idMap)
		}
		el.Assertion = seq
	case grammar.KindTagDispatch:
		triggers := make([]grammar.Trigger, len(el.Triggers))
		for i, t := range el.Triggers {
			triggers[i] = grammar.Trigger{Prefix: t.Prefix, Body: idMap[t.Body]}
		}
		el.Triggers = triggers
	}
	return el
}
