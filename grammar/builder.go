package grammar

// Terminal builds a KindTerminal element.
func Terminal(lit string) Element {
	return Element{Kind: KindTerminal, Literal: lit}
}

// CharClass builds a KindCharClass element over sorted, non-overlapping ranges.
func CharClass(negated bool, ranges ...CharRange) Element {
	return Element{Kind: KindCharClass, Ranges: ranges, Negated: negated}
}

// NonterminalRef builds a KindNonterminalRef element.
func NonterminalRef(id int) Element {
	return Element{Kind: KindNonterminalRef, Ref: id}
}

// Repeat builds a KindRepetition element.
func Repeat(child Element, min, max int) Element {
	c := child
	return Element{Kind: KindRepetition, Child: &c, Min: min, Max: max}
}

// Opt is Repeat with bounds {0,1}.
func Opt(child Element) Element {
	return Repeat(child, 0, 1)
}

// Star is Repeat with bounds {0,Unbounded}.
func Star(child Element) Element {
	return Repeat(child, 0, Unbounded)
}

// Plus is Repeat with bounds {1,Unbounded}.
func Plus(child Element) Element {
	return Repeat(child, 1, Unbounded)
}

// Lookahead builds a KindLookahead element.
func Lookahead(assertion Sequence) Element {
	return Element{Kind: KindLookahead, Assertion: assertion}
}

// TagDispatch builds a KindTagDispatch element (§3.1, §4.4).
func TagDispatch(triggers []Trigger, stopEOS bool, stopStrs []string, loopAfterDispatch bool, excludes []string) Element {
	return Element{
		Kind:              KindTagDispatch,
		Triggers:          triggers,
		StopEOS:           stopEOS,
		StopStrs:          stopStrs,
		LoopAfterDispatch: loopAfterDispatch,
		Excludes:          excludes,
	}
}

// Seq builds a Sequence from elements.
func Seq(elements ...Element) Sequence {
	return Sequence(elements)
}

// Alt builds a RuleBody as an alternation of sequences.
func Alt(sequences ...Sequence) RuleBody {
	return RuleBody{Alternatives: sequences}
}

// nullable reports whether seq can match the empty string, given the
// grammar's rules for resolving nonterminal references. A reference already
// on the current resolution path counts as not nullable.
func (g *Grammar) nullable(seq Sequence, seen map[int]bool) bool {
	for i := range seq {
		if !g.elementNullable(&seq[i], seen) {
			return false
		}
	}
	return true
}

func (g *Grammar) elementNullable(el *Element, seen map[int]bool) bool {
	switch el.Kind {
	case KindTerminal:
		return el.Literal == ""
	case KindCharClass:
		return false
	case KindNonterminalRef:
		if seen[el.Ref] {
			return false // break cycles conservatively
		}
		rule, ok := g.Rules[el.Ref]
		if !ok {
			return false
		}
		seen[el.Ref] = true
		defer delete(seen, el.Ref)
		for _, alt := range rule.Body.Alternatives {
			if g.nullable(alt, seen) {
				return true
			}
		}
		return false
	case KindRepetition:
		return el.Min == 0
	case KindLookahead:
		return true // a lookahead never consumes input
	case KindTagDispatch:
		return el.StopEOS || len(el.StopStrs) > 0
	}
	return false
}

// Nullable computes, by fixed point over all rules, whether each nonterminal
// can derive the empty string. Validate does not call it.
func (g *Grammar) Nullable() map[int]bool {
	result := map[int]bool{}
	changed := true
	for changed {
		changed = false
		for _, id := range g.SortedRuleIDs() {
			if result[id] {
				continue
			}
			rule := g.Rules[id]
			for _, alt := range rule.Body.Alternatives {
				if g.nullableWithKnown(alt, result) {
					result[id] = true
					changed = true
					break
				}
			}
		}
	}
	return result
}

func (g *Grammar) nullableWithKnown(seq Sequence, known map[int]bool) bool {
	for i := range seq {
		el := &seq[i]
		switch el.Kind {
		case KindTerminal:
			if el.Literal != "" {
				return false
			}
		case KindCharClass:
			return false
		case KindNonterminalRef:
			if !known[el.Ref] {
				return false
			}
		case KindRepetition:
			if el.Min != 0 {
				return false
			}
		case KindTagDispatch:
			if !el.StopEOS && len(el.StopStrs) == 0 {
				return false
			}
		}
	}
	return true
}
