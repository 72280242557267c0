/*
Package optimizer runs three grammar-shrinking passes after compilation and
before a grammar is frozen for matching —

  - EliminateDeadRules removes nonterminals unreachable from the root,
    grounded directly on langdef's own findUnusedNodes reachability sweep
    (a BFS over the dependency graph using internal/ints.Set and
    internal/queue.Queue, the same pair reached for any time worklist-style
    graph traversal is needed);
  - InlineUniqueUse splices the body of a single-alternative nonterminal
    into its one call site, when doing so doesn't introduce a cycle;
  - FuseLookahead elides a Lookahead element whose assertion is
    vacuously true (an empty sequence matches zero bytes, so asserting
    it is a no-op).

Optimize runs all three to a fixed point: each pass can expose further
opportunities for the others (inlining can make a rule's other uses drop
to zero, dead-code elimination can turn a two-use nonterminal into a
one-use one), so Optimize loops until a full pass makes no further
change.
*/
package optimizer

import (
	"github.com/ava12/sgrammar/grammar"
	"github.com/ava12/sgrammar/internal/ints"
	"github.com/ava12/sgrammar/internal/queue"
)

// Optimize mutates g in place, running all passes to a fixed point, and
// returns g for chaining.
func Optimize(g *grammar.Grammar) *grammar.Grammar {
	for {
		changed := false
		changed = FuseLookahead(g) || changed
		changed = InlineUniqueUse(g) || changed
		changed = EliminateDeadRules(g) || changed
		if !changed {
			break
		}
	}
	return g
}

// EliminateDeadRules removes every rule unreachable from g.Root, per
// langdef.findUnusedNodes' reachability sweep.
func EliminateDeadRules(g *grammar.Grammar) bool {
	reached := ints.NewSet()
	q := queue.New[int](g.Root)
	reached.Add(g.Root)
	for {
		id, ok := q.First()
		if !ok {
			break
		}
		rule := g.Rules[id]
		if rule == nil {
			continue
		}
		for _, ref := range ruleRefs(rule) {
			if !reached.Contains(ref) {
				reached.Add(ref)
				q.Append(ref)
			}
		}
	}

	changed := false
	for id := range g.Rules {
		if !reached.Contains(id) {
			delete(g.Rules, id)
			changed = true
		}
	}
	return changed
}

// ruleRefs returns every nonterminal id referenced anywhere in rule's
// body, including TagDispatch trigger bodies.
func ruleRefs(rule *grammar.Rule) []int {
	var refs []int
	for _, alt := range rule.Body.Alternatives {
		refs = append(refs, sequenceRefs(alt)...)
	}
	return refs
}

func sequenceRefs(seq grammar.Sequence) []int {
	var refs []int
	for i := range seq {
		refs = append(refs, elementRefs(&seq[i])...)
	}
	return refs
}

func elementRefs(el *grammar.Element) []int {
	switch el.Kind {
	case grammar.KindNonterminalRef:
		return []int{el.Ref}
	case grammar.KindRepetition:
		if el.Child != nil {
			return elementRefs(el.Child)
		}
	case grammar.KindTagDispatch:
		refs := make([]int, len(el.Triggers))
		for i, tr := range el.Triggers {
			refs[i] = tr.Body
		}
		return refs
	}
	return nil
}

// useCounts counts, across every rule in g (reachable or not — callers
// that care about reachability run EliminateDeadRules first), how many
// element sites reference each nonterminal id.
func useCounts(g *grammar.Grammar) map[int]int {
	counts := map[int]int{}
	for _, id := range g.SortedRuleIDs() {
		for _, ref := range ruleRefs(g.Rules[id]) {
			counts[ref]++
		}
	}
	return counts
}

// InlineUniqueUse splices the body of any non-root, single-alternative,
// non-self-recursive nonterminal referenced from exactly one call site
// directly into that site, then deletes the now-orphaned rule. Where the
// site is the child of a repetition, only a one-element body is inlined.
// Returns true iff any inlining happened.
func InlineUniqueUse(g *grammar.Grammar) bool {
	counts := useCounts(g)
	changed := false

	for _, id := range g.SortedRuleIDs() {
		rule, ok := g.Rules[id]
		if !ok {
			continue // deleted by an earlier splice this same pass
		}
		for altIdx := range rule.Body.Alternatives {
			newSeq, altChanged := inlineSequence(g, rule.Body.Alternatives[altIdx], counts)
			if altChanged {
				rule.Body.Alternatives[altIdx] = newSeq
				changed = true
			}
		}
	}
	return changed
}

// inlineSequence rewrites seq, splicing in any inlinable single-use
// nonterminal reference it finds, recursively into repetition children
// too, and reports whether it changed anything.
func inlineSequence(g *grammar.Grammar, seq grammar.Sequence, counts map[int]int) (grammar.Sequence, bool) {
	changed := false
	out := make(grammar.Sequence, 0, len(seq))
	for i := range seq {
		el := seq[i]
		if el.Kind == grammar.KindNonterminalRef && canInline(g, el.Ref, counts) {
			target := g.Rules[el.Ref]
			out = append(out, target.Body.Alternatives[0]...)
			delete(g.Rules, el.Ref)
			changed = true
			continue
		}
		if el.Kind == grammar.KindRepetition && el.Child != nil {
			// A repetition child is a single element, so only a one-element
			// body can be spliced in its place.
			if el.Child.Kind == grammar.KindNonterminalRef && canInline(g, el.Child.Ref, counts) &&
				len(g.Rules[el.Child.Ref].Body.Alternatives[0]) != 1 {
				out = append(out, el)
				continue
			}
			childSeq, childChanged := inlineSequence(g, grammar.Sequence{*el.Child}, counts)
			if childChanged {
				changed = true
				el.Child = &childSeq[0]
			}
		}
		out = append(out, el)
	}
	return out, changed
}

func canInline(g *grammar.Grammar, id int, counts map[int]int) bool {
	if id == g.Root || counts[id] != 1 {
		return false
	}
	rule := g.Rules[id]
	if rule == nil || len(rule.Body.Alternatives) != 1 {
		return false
	}
	return !referencesSelf(rule.Body.Alternatives[0], id)
}

func referencesSelf(seq grammar.Sequence, id int) bool {
	for i := range seq {
		el := &seq[i]
		switch el.Kind {
		case grammar.KindNonterminalRef:
			if el.Ref == id {
				return true
			}
		case grammar.KindRepetition:
			if el.Child != nil && referencesSelf(grammar.Sequence{*el.Child}, id) {
				return true
			}
		case grammar.KindTagDispatch:
			for _, tr := range el.Triggers {
				if tr.Body == id {
					return true
				}
			}
		}
	}
	return false
}

// FuseLookahead elides every Lookahead element whose assertion is an
// empty sequence (vacuously satisfied, so asserting it is a no-op).
// Returns true iff it removed any.
func FuseLookahead(g *grammar.Grammar) bool {
	changed := false
	for _, id := range g.SortedRuleIDs() {
		rule := g.Rules[id]
		for altIdx, seq := range rule.Body.Alternatives {
			newSeq, altChanged := fuseLookaheadSeq(seq)
			if altChanged {
				rule.Body.Alternatives[altIdx] = newSeq
				changed = true
			}
		}
	}
	return changed
}

func fuseLookaheadSeq(seq grammar.Sequence) (grammar.Sequence, bool) {
	if len(seq) == 0 {
		return seq, false
	}
	last := &seq[len(seq)-1]
	if last.Kind == grammar.KindLookahead && len(last.Assertion) == 0 {
		return seq[:len(seq)-1], true
	}
	return seq, false
}
