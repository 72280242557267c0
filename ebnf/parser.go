/*
Package ebnf parses a textual EBNF surface (terminals, char classes,
repetition, lookahead, and a TagDispatch extension) into a grammar.Grammar,
the same role a langdef-style package plays for LL(*) grammar descriptions,
built the same way: a regexp-based lexer.Lexer over source.Source feeding a
recursive-descent parseContext.
*/
package ebnf

import (
	"strconv"

	"github.com/ava12/sgrammar/grammar"
	"github.com/ava12/sgrammar/lexer"
	"github.com/ava12/sgrammar/source"
)

// ParseString parses a grammar description held in a Go string.
func ParseString(name, content string) (*grammar.Grammar, error) {
	return Parse(source.New(name, []byte(content)))
}

// ParseBytes parses a grammar description held in a byte slice.
func ParseBytes(name string, content []byte) (*grammar.Grammar, error) {
	return Parse(source.New(name, content))
}

// Parse parses a grammar description and returns the resulting grammar.
func Parse(s *source.Source) (*grammar.Grammar, error) {
	c := newParseContext(s)
	return c.parse()
}

type parseContext struct {
	q       *source.Queue
	g       *grammar.Grammar
	ruleSet map[string]bool
	saved   []*lexer.Token // pushback stack, top = next token returned by next()
}

func newParseContext(s *source.Source) *parseContext {
	q := source.NewQueue()
	q.Append(s)
	return &parseContext{
		q:       q,
		g:       grammar.New(),
		ruleSet: map[string]bool{},
	}
}

// next returns the pending pushed-back token if any (most recently unread
// first), otherwise fetches the next token from the lexer. Multiple
// successive unread calls (e.g. a lookahead helper that peeks and restores
// more than one token before the caller also unreads its own) are restored
// in the correct stream order as long as each unread call happens after the
// corresponding next call that produced it, which is how every caller here
// is structured.
func (c *parseContext) next() (*lexer.Token, error) {
	if n := len(c.saved); n > 0 {
		t := c.saved[n-1]
		c.saved = c.saved[:n-1]
		return t, nil
	}
	return ebnfLexer.Next(c.q)
}

func (c *parseContext) unread(t *lexer.Token) {
	c.saved = append(c.saved, t)
}

func (c *parseContext) parse() (*grammar.Grammar, error) {
	first := true
	for {
		t, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.Type() == lexer.EofTokenType || t.Type() == lexer.EoiTokenType {
			break
		}
		if t.TypeName() != nameTok {
			return nil, unexpectedTokenError(t, "a rule name")
		}

		if err := c.parseRule(t, first); err != nil {
			return nil, err
		}
		first = false
	}

	if c.g.Root == grammar.NoRule {
		return nil, noRootRuleError()
	}
	for id := 0; id < c.g.Table.Len(); id++ {
		if _, ok := c.g.Rules[id]; !ok {
			return nil, undefinedNonterminalError(c.g.Table.Name(id))
		}
	}
	if err := c.g.Validate(); err != nil {
		return nil, err
	}
	return c.g, nil
}

func (c *parseContext) parseRule(nameTok_ *lexer.Token, isFirst bool) error {
	name := nameTok_.Text()
	if c.ruleSet[name] {
		return duplicateRuleError(nameTok_, name)
	}
	c.ruleSet[name] = true
	id := c.g.Table.Intern(name)
	if isFirst {
		c.g.Root = id
	}

	assign, err := c.next()
	if err != nil {
		return err
	}
	if assign.TypeName() != assignTok {
		return unexpectedTokenError(assign, `"::="`)
	}

	body, err := c.parseBody()
	if err != nil {
		return err
	}

	c.g.AddRule(id, body)
	return nil
}

func (c *parseContext) parseBody() (grammar.RuleBody, error) {
	var alts []grammar.Sequence
	for {
		seq, err := c.parseSequence()
		if err != nil {
			return grammar.RuleBody{}, err
		}
		alts = append(alts, seq)

		t, err := c.next()
		if err != nil {
			return grammar.RuleBody{}, err
		}
		if t.TypeName() == opTok && t.Text() == "|" {
			continue
		}
		c.unread(t)
		break
	}
	return grammar.RuleBody{Alternatives: alts}, nil
}

// parseSequence stops at "|", ")", a name token that starts a new rule, or EoF.
func (c *parseContext) parseSequence() (grammar.Sequence, error) {
	var seq grammar.Sequence
	for {
		t, err := c.next()
		if err != nil {
			return nil, err
		}

		if c.endsSequence(t) {
			c.unread(t)
			break
		}

		el, err := c.parseElement(t)
		if err != nil {
			return nil, err
		}
		el, err = c.parseRepetitionSuffix(el)
		if err != nil {
			return nil, err
		}
		seq = append(seq, el)
	}
	return seq, nil
}

func (c *parseContext) endsSequence(t *lexer.Token) bool {
	if t.Type() == lexer.EofTokenType || t.Type() == lexer.EoiTokenType {
		return true
	}
	if t.TypeName() == opTok && (t.Text() == "|" || t.Text() == ")") {
		return true
	}
	// A bare name token followed by "::=" starts the next rule; look ahead once.
	if t.TypeName() == nameTok {
		nt, err := c.next()
		if err == nil {
			isAssign := nt.TypeName() == assignTok
			c.unread(nt)
			if isAssign {
				return true
			}
		}
	}
	return false
}

func (c *parseContext) parseElement(t *lexer.Token) (grammar.Element, error) {
	switch t.TypeName() {
	case stringTok:
		body, err := quoteToken(t.Text())
		if err != nil {
			return grammar.Element{}, err
		}
		lit, err := unescapeString(t, body)
		if err != nil {
			return grammar.Element{}, err
		}
		return grammar.Terminal(lit), nil

	case charClassTok:
		text := t.Text()
		ranges, negated, err := parseCharClass(t, text[1:len(text)-1])
		if err != nil {
			return grammar.Element{}, err
		}
		return grammar.CharClass(negated, ranges...), nil

	case nameTok:
		if t.Text() == "TagDispatch" {
			return c.parseTagDispatch(t)
		}
		id := c.g.Table.Intern(t.Text())
		return grammar.NonterminalRef(id), nil

	case laOpenTok:
		seq, err := c.parseSequence()
		if err != nil {
			return grammar.Element{}, err
		}
		closeTok, err := c.next()
		if err != nil {
			return grammar.Element{}, err
		}
		if closeTok.TypeName() != opTok || closeTok.Text() != ")" {
			return grammar.Element{}, unexpectedTokenError(closeTok, `")"`)
		}
		return grammar.Lookahead(seq), nil

	case opTok:
		if t.Text() == "(" {
			body, err := c.parseBody()
			if err != nil {
				return grammar.Element{}, err
			}
			closeTok, err := c.next()
			if err != nil {
				return grammar.Element{}, err
			}
			if closeTok.TypeName() != opTok || closeTok.Text() != ")" {
				return grammar.Element{}, unexpectedTokenError(closeTok, `")"`)
			}
			return groupToElement(c.g, body), nil
		}
	}

	return grammar.Element{}, unexpectedTokenError(t, "a terminal, char class, nonterminal, or group")
}

// groupToElement lowers a parenthesized alternation into a fresh
// nonterminal when it has more than one alternative or more than one
// element, so that repetition suffixes ("(a b)*") have a single Element to
// attach to; a singleton (x) is inlined directly.
func groupToElement(g *grammar.Grammar, body grammar.RuleBody) grammar.Element {
	if len(body.Alternatives) == 1 && len(body.Alternatives[0]) == 1 {
		return body.Alternatives[0][0]
	}
	id, _ := g.Table.Fresh("group")
	g.AddRule(id, body)
	return grammar.NonterminalRef(id)
}

func (c *parseContext) parseRepetitionSuffix(el grammar.Element) (grammar.Element, error) {
	t, err := c.next()
	if err != nil {
		return grammar.Element{}, err
	}

	if t.TypeName() != opTok {
		c.unread(t)
		return el, nil
	}

	switch t.Text() {
	case "?":
		return grammar.Opt(el), nil
	case "*":
		return grammar.Star(el), nil
	case "+":
		return grammar.Plus(el), nil
	case "{":
		return c.parseBoundedRepetition(el, t)
	default:
		c.unread(t)
		return el, nil
	}
}

func (c *parseContext) parseBoundedRepetition(el grammar.Element, open *lexer.Token) (grammar.Element, error) {
	minTok, err := c.next()
	if err != nil {
		return grammar.Element{}, err
	}
	if minTok.TypeName() != numberTok {
		return grammar.Element{}, unexpectedTokenError(minTok, "a number")
	}
	min, _ := strconv.Atoi(minTok.Text())

	commaTok_, err := c.next()
	if err != nil {
		return grammar.Element{}, err
	}
	if commaTok_.TypeName() != opTok || commaTok_.Text() != "," {
		return grammar.Element{}, unexpectedTokenError(commaTok_, `","`)
	}

	max := grammar.Unbounded
	nt, err := c.next()
	if err != nil {
		return grammar.Element{}, err
	}
	if nt.TypeName() == numberTok {
		max, _ = strconv.Atoi(nt.Text())
		nt, err = c.next()
		if err != nil {
			return grammar.Element{}, err
		}
	}
	if nt.TypeName() != opTok || nt.Text() != "}" {
		return grammar.Element{}, unexpectedTokenError(nt, `"}"`)
	}
	if max != grammar.Unbounded && max < min {
		return grammar.Element{}, badRepetitionError(open)
	}

	return grammar.Repeat(el, min, max), nil
}
