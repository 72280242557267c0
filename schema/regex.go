package schema

import (
	"fmt"
	"regexp/syntax"

	"github.com/ava12/sgrammar/grammar"
)

// RegexToEBNF lowers a regular expression pattern into a Fragment, walking
// the stdlib's own parsed regex AST (regexp/syntax) rather than
// hand-rolling a second regex parser — no pack library offers a regex AST,
// so this is the one lowering in this package grounded on the standard
// library rather than a third-party dependency (see DESIGN.md).
func RegexToEBNF(pattern string, table *grammar.NonterminalTable) (*Fragment, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("schema: invalid regex %q: %w", pattern, err)
	}
	re = re.Simplify()

	f := newFragment(table)
	start := f.lowerRegex(re)
	f.Start = start
	return f, nil
}

func (f *Fragment) lowerRegex(re *syntax.Regexp) int {
	switch re.Op {
	case syntax.OpLiteral:
		return f.addRule("regex_literal", grammar.Alt(grammar.Seq(grammar.Terminal(string(re.Rune)))))

	case syntax.OpCharClass:
		return f.addRule("regex_class", grammar.Alt(grammar.Seq(grammar.CharClass(false, runesToRanges(re.Rune)...))))

	case syntax.OpAnyChar:
		return f.addRule("regex_any_char", grammar.Alt(grammar.Seq(grammar.CharClass(true))))

	case syntax.OpAnyCharNotNL:
		return f.addRule("regex_any_char_not_nl", grammar.Alt(grammar.Seq(grammar.CharClass(true, grammar.CharRange{Lo: '\n', Hi: '\n'}))))

	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText, syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return f.addRule("regex_empty", grammar.Alt(grammar.Seq()))

	case syntax.OpCapture:
		return f.lowerRegex(re.Sub[0])

	case syntax.OpConcat:
		return f.lowerConcat(re.Sub)

	case syntax.OpAlternate:
		return f.lowerAlternate(re.Sub)

	case syntax.OpStar:
		return f.addRule("regex_star", grammar.Alt(grammar.Seq(grammar.Star(f.subElement(re.Sub[0])))))

	case syntax.OpPlus:
		return f.addRule("regex_plus", grammar.Alt(grammar.Seq(grammar.Plus(f.subElement(re.Sub[0])))))

	case syntax.OpQuest:
		return f.addRule("regex_quest", grammar.Alt(grammar.Seq(grammar.Opt(f.subElement(re.Sub[0])))))

	case syntax.OpRepeat:
		max := grammar.Unbounded
		if re.Max >= 0 {
			max = re.Max
		}
		return f.addRule("regex_repeat", grammar.Alt(grammar.Seq(grammar.Repeat(f.subElement(re.Sub[0]), re.Min, max))))

	default:
		// Exotic ops (back-references, look-around via OpXxx extensions) have
		// no EBNF-expressible equivalent; fall back to an unconstrained run
		// of text so the grammar stays well-formed rather than failing closed.
		return f.addRule("regex_unsupported", grammar.Alt(grammar.Seq(grammar.Star(grammar.CharClass(true)))))
	}
}

// subElement lowers re to a nonterminal reference suitable as a single
// Element (used under Star/Plus/Quest/Repeat, which all need one Element).
func (f *Fragment) subElement(re *syntax.Regexp) grammar.Element {
	id := f.lowerRegex(re)
	return grammar.NonterminalRef(id)
}

func (f *Fragment) lowerConcat(subs []*syntax.Regexp) int {
	var seq grammar.Sequence
	for _, sub := range subs {
		seq = append(seq, f.subElement(sub))
	}
	return f.addRule("regex_concat", grammar.Alt(seq))
}

func (f *Fragment) lowerAlternate(subs []*syntax.Regexp) int {
	var alts []grammar.Sequence
	for _, sub := range subs {
		alts = append(alts, grammar.Seq(f.subElement(sub)))
	}
	return f.addRule("regex_alt", grammar.RuleBody{Alternatives: alts})
}

// runesToRanges converts regexp/syntax's flat [lo,hi,lo,hi,...] rune-pair
// encoding of a character class into grammar.CharRange values.
func runesToRanges(runes []rune) []grammar.CharRange {
	ranges := make([]grammar.CharRange, 0, len(runes)/2)
	for i := 0; i+1 < len(runes); i += 2 {
		ranges = append(ranges, grammar.CharRange{Lo: runes[i], Hi: runes[i+1]})
	}
	return ranges
}
