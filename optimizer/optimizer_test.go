package optimizer

import (
	"testing"

	"github.com/ava12/sgrammar/grammar"
)

func TestEliminateDeadRules(t *testing.T) {
	g := grammar.New()
	root := g.Table.Intern("root")
	used := g.Table.Intern("used")
	dead := g.Table.Intern("dead")
	g.AddRule(used, grammar.Alt(grammar.Seq(grammar.Terminal("x"))))
	g.AddRule(dead, grammar.Alt(grammar.Seq(grammar.Terminal("y"))))
	g.AddRule(root, grammar.Alt(grammar.Seq(grammar.NonterminalRef(used))))
	g.Root = root

	changed := EliminateDeadRules(g)
	if !changed {
		t.Fatal("expected a change")
	}
	if _, ok := g.Rules[dead]; ok {
		t.Fatal("expected unreachable rule to be removed")
	}
	if _, ok := g.Rules[used]; !ok {
		t.Fatal("reachable rule must survive")
	}
}

func TestInlineUniqueUse(t *testing.T) {
	g := grammar.New()
	root := g.Table.Intern("root")
	helper := g.Table.Intern("helper")
	g.AddRule(helper, grammar.Alt(grammar.Seq(grammar.Terminal("a"), grammar.Terminal("b"))))
	g.AddRule(root, grammar.Alt(grammar.Seq(grammar.NonterminalRef(helper), grammar.Terminal("c"))))
	g.Root = root

	changed := InlineUniqueUse(g)
	if !changed {
		t.Fatal("expected inlining to happen")
	}
	if _, ok := g.Rules[helper]; ok {
		t.Fatal("expected helper rule to be spliced away")
	}
	seq := g.Rules[root].Body.Alternatives[0]
	if len(seq) != 3 || seq[0].Literal != "a" || seq[1].Literal != "b" || seq[2].Literal != "c" {
		t.Fatalf("unexpected spliced sequence: %+v", seq)
	}
}

func TestInlineSkipsMultiUse(t *testing.T) {
	g := grammar.New()
	root := g.Table.Intern("root")
	helper := g.Table.Intern("helper")
	g.AddRule(helper, grammar.Alt(grammar.Seq(grammar.Terminal("a"))))
	g.AddRule(root, grammar.Alt(grammar.Seq(grammar.NonterminalRef(helper), grammar.NonterminalRef(helper))))
	g.Root = root

	if InlineUniqueUse(g) {
		t.Fatal("must not inline a nonterminal referenced from two sites")
	}
	if _, ok := g.Rules[helper]; !ok {
		t.Fatal("helper rule must survive when not uniquely used")
	}
}

func TestFuseLookaheadRemovesVacuousAssertion(t *testing.T) {
	g := grammar.New()
	root := g.Table.Intern("root")
	g.AddRule(root, grammar.Alt(grammar.Seq(grammar.Terminal("x"), grammar.Lookahead(grammar.Seq()))))
	g.Root = root

	if !FuseLookahead(g) {
		t.Fatal("expected vacuous lookahead to be fused away")
	}
	seq := g.Rules[root].Body.Alternatives[0]
	if len(seq) != 1 {
		t.Fatalf("expected lookahead to be removed, got %+v", seq)
	}
}

func TestOptimizeFixedPoint(t *testing.T) {
	g := grammar.New()
	root := g.Table.Intern("root")
	helper := g.Table.Intern("helper")
	dead := g.Table.Intern("dead")
	g.AddRule(helper, grammar.Alt(grammar.Seq(grammar.Terminal("a"))))
	g.AddRule(dead, grammar.Alt(grammar.Seq(grammar.Terminal("z"))))
	g.AddRule(root, grammar.Alt(grammar.Seq(grammar.NonterminalRef(helper))))
	g.Root = root

	Optimize(g)
	if _, ok := g.Rules[helper]; ok {
		t.Fatal("expected helper to be inlined away")
	}
	if _, ok := g.Rules[dead]; ok {
		t.Fatal("expected dead rule to be eliminated")
	}
	seq := g.Rules[root].Body.Alternatives[0]
	if len(seq) != 1 || seq[0].Literal != "a" {
		t.Fatalf("unexpected root body after optimize: %+v", seq)
	}
}
