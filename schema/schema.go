/*
Package schema implements two external lowerings treated as standalone
collaborators: json_schema_to_ebnf and regex_to_ebnf. Both are pure
functions returning a Fragment (a subgraph of a grammar.Grammar plus its
start nonterminal) that the compiler package splices into the grammar it is
building — the same "collaborator returns a self-contained piece, caller
merges it" shape as lexer handing parser a *lexer.Token it didn't itself
construct.
*/
package schema

import (
	"github.com/ava12/sgrammar/grammar"
)

// Fragment is a self-contained piece of grammar: every rule it needs plus
// the id of its start nonterminal. Compile-time callers merge Rules into
// their own Grammar's Table/Rules and reference Start.
type Fragment struct {
	Start int
	Rules map[int]grammar.RuleBody
	Table *grammar.NonterminalTable
}

// Merge copies f's rules into g under their already-allocated ids (ids were
// allocated from g.Table to begin with, so no renaming is needed) and
// returns f.Start as the nonterminal to reference.
func (f *Fragment) Merge(g *grammar.Grammar) int {
	for id, body := range f.Rules {
		g.AddRule(id, body)
	}
	return f.Start
}

// newFragment allocates a Fragment that shares the destination grammar's
// nonterminal table, so collaborators never need a post-hoc renaming pass.
func newFragment(table *grammar.NonterminalTable) *Fragment {
	return &Fragment{Rules: map[int]grammar.RuleBody{}, Table: table}
}

func (f *Fragment) addRule(base string, body grammar.RuleBody) int {
	id, _ := f.Table.Fresh(base)
	f.Rules[id] = body
	return id
}
