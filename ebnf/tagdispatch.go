package ebnf

import (
	"github.com/ava12/sgrammar/grammar"
	"github.com/ava12/sgrammar/lexer"
)

// parseTagDispatch parses the textual TagDispatch(...) extension (§6.2):
//
//	TagDispatch(("trig", body), ..., stop_eos=<bool>, stop_str=(...), loop_after_dispatch=<bool>, excludes=(...))
//
// nameTok_ is the already-consumed "TagDispatch" identifier.
func (c *parseContext) parseTagDispatch(nameTok_ *lexer.Token) (grammar.Element, error) {
	open, err := c.next()
	if err != nil {
		return grammar.Element{}, err
	}
	if open.TypeName() != opTok || open.Text() != "(" {
		return grammar.Element{}, unexpectedTokenError(open, `"(" after TagDispatch`)
	}

	el := grammar.Element{Kind: grammar.KindTagDispatch}
	first := true
	for {
		t, err := c.next()
		if err != nil {
			return grammar.Element{}, err
		}
		if t.TypeName() == opTok && t.Text() == ")" {
			break
		}
		if !first {
			if t.TypeName() != opTok || t.Text() != "," {
				return grammar.Element{}, unexpectedTokenError(t, `","`)
			}
			t, err = c.next()
			if err != nil {
				return grammar.Element{}, err
			}
		}
		first = false

		if err := c.parseTagDispatchArg(&el, t); err != nil {
			return grammar.Element{}, err
		}
	}

	return el, nil
}

func (c *parseContext) parseTagDispatchArg(el *grammar.Element, t *lexer.Token) error {
	switch {
	case t.TypeName() == opTok && t.Text() == "(":
		return c.parseTrigger(el)

	case t.TypeName() == nameTok && t.Text() == "stop_eos":
		return c.parseBoolArg(func(v bool) { el.StopEOS = v })

	case t.TypeName() == nameTok && t.Text() == "loop_after_dispatch":
		return c.parseBoolArg(func(v bool) { el.LoopAfterDispatch = v })

	case t.TypeName() == nameTok && t.Text() == "stop_str":
		strs, err := c.parseStringTuple()
		if err != nil {
			return err
		}
		el.StopStrs = strs
		return nil

	case t.TypeName() == nameTok && t.Text() == "excludes":
		strs, err := c.parseStringTuple()
		if err != nil {
			return err
		}
		el.Excludes = strs
		return nil
	}

	return badTagDispatchError(t, "unknown argument "+t.Text())
}

func (c *parseContext) parseTrigger(el *grammar.Element) error {
	strTok, err := c.next()
	if err != nil {
		return err
	}
	if strTok.TypeName() != stringTok {
		return unexpectedTokenError(strTok, "a trigger string")
	}
	body, err := quoteToken(strTok.Text())
	if err != nil {
		return err
	}
	prefix, err := unescapeString(strTok, body)
	if err != nil {
		return err
	}

	comma, err := c.next()
	if err != nil {
		return err
	}
	if comma.TypeName() != opTok || comma.Text() != "," {
		return unexpectedTokenError(comma, `","`)
	}

	bodyNameTok, err := c.next()
	if err != nil {
		return err
	}
	if bodyNameTok.TypeName() != nameTok {
		return unexpectedTokenError(bodyNameTok, "a body nonterminal name")
	}
	bodyID := c.g.Table.Intern(bodyNameTok.Text())

	closeTok, err := c.next()
	if err != nil {
		return err
	}
	if closeTok.TypeName() != opTok || closeTok.Text() != ")" {
		return unexpectedTokenError(closeTok, `")"`)
	}

	el.Triggers = append(el.Triggers, grammar.Trigger{Prefix: prefix, Body: bodyID})
	return nil
}

func (c *parseContext) parseBoolArg(set func(bool)) error {
	eq, err := c.next()
	if err != nil {
		return err
	}
	if eq.TypeName() != opTok || eq.Text() != "=" {
		return unexpectedTokenError(eq, `"="`)
	}
	nt, err := c.next()
	if err != nil {
		return err
	}
	if nt.TypeName() != nameTok || (nt.Text() != "true" && nt.Text() != "false") {
		return unexpectedTokenError(nt, `"true" or "false"`)
	}
	set(nt.Text() == "true")
	return nil
}

func (c *parseContext) parseStringTuple() ([]string, error) {
	eq, err := c.next()
	if err != nil {
		return nil, err
	}
	if eq.TypeName() != opTok || eq.Text() != "=" {
		return nil, unexpectedTokenError(eq, `"="`)
	}
	open, err := c.next()
	if err != nil {
		return nil, err
	}
	if open.TypeName() != opTok || open.Text() != "(" {
		return nil, unexpectedTokenError(open, `"("`)
	}

	var result []string
	first := true
	for {
		t, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.TypeName() == opTok && t.Text() == ")" {
			break
		}
		if !first {
			if t.TypeName() != opTok || t.Text() != "," {
				return nil, unexpectedTokenError(t, `","`)
			}
			t, err = c.next()
			if err != nil {
				return nil, err
			}
		}
		first = false
		if t.TypeName() != stringTok {
			return nil, unexpectedTokenError(t, "a string")
		}
		body, err := quoteToken(t.Text())
		if err != nil {
			return nil, err
		}
		s, err := unescapeString(t, body)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}
