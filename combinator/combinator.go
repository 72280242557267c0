/*
Package combinator implements grammar-level union and concat operators:
given several grammars, copy every non-root rule under a fresh name (so
that identically-named rules from different inputs cannot collide), turn
each input's root into "root_1", "root_2", ..., and build a new root rule
that alternates (Union) or concatenates (Concat) over them.
*/
package combinator

import (
	"github.com/ava12/sgrammar/grammar"
)

// importResult records how one source grammar's nonterminal ids map into
// the destination grammar after a fresh-name import.
type importResult struct {
	idMap      map[int]int
	rootID     int
	sourceRoot int
}

// importGrammar copies every rule of src into dst under fresh names,
// remapping all NonterminalRef/TagDispatch.Triggers[].Body ids, and renames
// its root rule to a fresh "root_N"-style name. Rules already present by
// identical name in dst (only possible if callers reuse a Grammar across
// calls) are still copied fresh — no renaming is ever applied to existing
// dst rules, so src's names never shadow them.
func importGrammar(dst *grammar.Grammar, src *grammar.Grammar, rootBase string) importResult {
	idMap := map[int]int{}
	for _, id := range src.SortedRuleIDs() {
		name := src.Table.Name(id)
		base := name
		if id == src.Root {
			base = rootBase
		}
		newID, _ := dst.Table.Fresh(base)
		idMap[id] = newID
	}

	for _, id := range src.SortedRuleIDs() {
		rule := src.Rules[id]
		newBody := remapBody(rule.Body, idMap)
		dst.AddRule(idMap[id], newBody)
	}

	return importResult{idMap: idMap, rootID: idMap[src.Root], sourceRoot: src.Root}
}

func remapBody(body grammar.RuleBody, idMap map[int]int) grammar.RuleBody {
	alts := make([]grammar.Sequence, len(body.Alternatives))
	for i, seq := range body.Alternatives {
		alts[i] = remapSequence(seq, idMap)
	}
	return grammar.RuleBody{Alternatives: alts}
}

func remapSequence(seq grammar.Sequence, idMap map[int]int) grammar.Sequence {
	out := make(grammar.Sequence, len(seq))
	for i, el := range seq {
		out[i] = remapElement(el, idMap)
	}
	return out
}

func remapElement(el grammar.Element, idMap map[int]int) grammar.Element {
	switch el.Kind {
	case grammar.KindNonterminalRef:
		el.Ref = idMap[el.Ref]
	case grammar.KindRepetition:
		child := remapElement(*el.Child, idMap)
		el.Child = &child
	case grammar.KindLookahead:
		el.Assertion = remapSequence(el.Assertion, idMap)
	case grammar.KindTagDispatch:
		triggers := make([]grammar.Trigger, len(el.Triggers))
		for i, tr := range el.Triggers {
			triggers[i] = grammar.Trigger{Prefix: tr.Prefix, Body: idMap[tr.Body]}
		}
		el.Triggers = triggers
	}
	return el
}

// Union builds a new grammar whose root alternates over the roots of
// grammars, each renamed "root_1", "root_2", ....
func Union(grammars ...*grammar.Grammar) *grammar.Grammar {
	dst := grammar.New()
	var rootAlts []grammar.Sequence
	for i, src := range grammars {
		res := importGrammar(dst, src, rootBaseName(i))
		rootAlts = append(rootAlts, grammar.Seq(grammar.NonterminalRef(res.rootID)))
	}
	rootID := dst.Table.Intern("root")
	dst.AddRule(rootID, grammar.RuleBody{Alternatives: rootAlts})
	dst.Root = rootID
	return dst
}

// Concat builds a new grammar whose root is the concatenation, in order, of
// the roots of grammars, each renamed "root_1", "root_2", ....
func Concat(grammars ...*grammar.Grammar) *grammar.Grammar {
	dst := grammar.New()
	var rootSeq grammar.Sequence
	for i, src := range grammars {
		res := importGrammar(dst, src, rootBaseName(i))
		rootSeq = append(rootSeq, grammar.NonterminalRef(res.rootID))
	}
	rootID := dst.Table.Intern("root")
	dst.AddRule(rootID, grammar.Alt(rootSeq))
	dst.Root = rootID
	return dst
}

func rootBaseName(i int) string {
	return "root_" + itoa(i+1)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
