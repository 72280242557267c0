package grammar

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders g in the normative textual EBNF form from §6.2. The root
// rule is printed first (ebnf.Parse takes the first rule as root), then the
// others in ascending id order, so that Print is deterministic regardless
// of map iteration order; ebnf.Parse(Print(g)) reproduces the same language
// modulo fresh-name normalization (§8.1's round-trip property).
func (g *Grammar) Print() string {
	var b strings.Builder
	ids := g.SortedRuleIDs()
	if _, ok := g.Rules[g.Root]; ok {
		ordered := []int{g.Root}
		for _, id := range ids {
			if id != g.Root {
				ordered = append(ordered, id)
			}
		}
		ids = ordered
	}
	for _, id := range ids {
		rule := g.Rules[id]
		fmt.Fprintf(&b, "%s ::= ", rule.Name)
		for i, alt := range rule.Body.Alternatives {
			if i > 0 {
				b.WriteString(" | ")
			}
			printSequence(&b, g, alt)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func printSequence(b *strings.Builder, g *Grammar, seq Sequence) {
	for i := range seq {
		if i > 0 {
			b.WriteByte(' ')
		}
		printElement(b, g, &seq[i])
	}
}

func printElement(b *strings.Builder, g *Grammar, el *Element) {
	switch el.Kind {
	case KindTerminal:
		fmt.Fprintf(b, "%q", el.Literal)

	case KindCharClass:
		b.WriteByte('[')
		if el.Negated {
			b.WriteByte('^')
		}
		for _, r := range el.Ranges {
			printRune(b, r.Lo)
			if r.Hi != r.Lo {
				b.WriteByte('-')
				printRune(b, r.Hi)
			}
		}
		b.WriteByte(']')

	case KindNonterminalRef:
		b.WriteString(g.Table.Name(el.Ref))

	case KindRepetition:
		printElement(b, g, el.Child)
		switch {
		case el.Min == 0 && el.Max == 1:
			b.WriteByte('?')
		case el.Min == 0 && el.Max == Unbounded:
			b.WriteByte('*')
		case el.Min == 1 && el.Max == Unbounded:
			b.WriteByte('+')
		default:
			b.WriteByte('{')
			b.WriteString(strconv.Itoa(el.Min))
			b.WriteByte(',')
			if el.Max != Unbounded {
				b.WriteString(strconv.Itoa(el.Max))
			}
			b.WriteByte('}')
		}

	case KindLookahead:
		b.WriteString("(= ")
		printSequence(b, g, el.Assertion)
		b.WriteByte(')')

	case KindTagDispatch:
		printTagDispatch(b, g, el)
	}
}

func printRune(b *strings.Builder, r rune) {
	if r >= 0x20 && r < 0x7f && r != '-' && r != ']' && r != '^' && r != '\\' {
		b.WriteRune(r)
	} else if r > 0xffff {
		fmt.Fprintf(b, "\\U%08x", r)
	} else {
		fmt.Fprintf(b, "\\u%04x", r)
	}
}

func printTagDispatch(b *strings.Builder, g *Grammar, el *Element) {
	b.WriteString("TagDispatch(")
	for _, t := range el.Triggers {
		fmt.Fprintf(b, "(%q, %s), ", t.Prefix, g.Table.Name(t.Body))
	}
	fmt.Fprintf(b, "stop_eos=%t, stop_str=(", el.StopEOS)
	for i, s := range el.StopStrs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%q", s)
	}
	fmt.Fprintf(b, "), loop_after_dispatch=%t, excludes=(", el.LoopAfterDispatch)
	for i, s := range el.Excludes {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%q", s)
	}
	b.WriteString("))")
}
