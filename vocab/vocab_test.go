package vocab

import (
	"context"
	"testing"

	"github.com/ava12/sgrammar/bitmask"
	"github.com/ava12/sgrammar/cache"
	"github.com/ava12/sgrammar/grammar"
	"github.com/ava12/sgrammar/matcher"
)

// fakeTokenSource is a small in-memory TokenSource for tests: ids
// 0..len(tokens)-1 map to tokens in order, plus one special stop token
// at the end.
type fakeTokenSource struct {
	tokens   []string
	stopID   int
}

func newFakeTokenSource(tokens ...string) *fakeTokenSource {
	return &fakeTokenSource{tokens: tokens, stopID: len(tokens)}
}

func (f *fakeTokenSource) VocabSize() int { return len(f.tokens) + 1 }

func (f *fakeTokenSource) BytesOf(id int) ([]byte, bool) {
	if id == f.stopID {
		return nil, true
	}
	return []byte(f.tokens[id]), false
}

func (f *fakeTokenSource) StopTokenIDs() map[int]bool {
	return map[int]bool{f.stopID: true}
}

// literalGrammar builds root ::= "ab".
func literalGrammar() *grammar.Grammar {
	g := grammar.New()
	root := g.Table.Intern("root")
	g.Root = root
	g.AddRule(root, grammar.Alt(grammar.Seq(grammar.Terminal("ab"))))
	return g
}

func TestFillMaskAcceptsMatchingPrefixTokens(t *testing.T) {
	src := newFakeTokenSource("a", "ab", "b", "xyz")
	v := Build(src)

	g := literalGrammar()
	st := matcher.New(g)
	mask := bitmask.New(v.VocabSize())

	needsApply := v.FillMask(st, mask)
	if !needsApply {
		t.Fatal("expected a non-trivial mask (not every token accepted)")
	}
	if !mask.Get(0) {
		t.Fatal("expected token \"a\" (a live prefix of \"ab\") to be accepted")
	}
	if !mask.Get(1) {
		t.Fatal("expected token \"ab\" (exactly the literal) to be accepted")
	}
	if mask.Get(2) {
		t.Fatal("expected token \"b\" to be rejected (grammar requires leading 'a')")
	}
	if mask.Get(3) {
		t.Fatal("expected token \"xyz\" to be rejected")
	}
	if mask.Get(src.stopID) {
		t.Fatal("matcher has not accepted yet, stop token must not be set")
	}
}

func TestFillMaskIncludesStopTokenWhenAccepting(t *testing.T) {
	src := newFakeTokenSource("ab")
	v := Build(src)

	g := literalGrammar()
	st := matcher.New(g)
	if !st.AcceptToken([]byte("ab")) {
		t.Fatal("expected \"ab\" to be accepted by the matcher")
	}

	mask := bitmask.New(v.VocabSize())
	v.FillMask(st, mask)
	if !mask.Get(src.stopID) {
		t.Fatal("expected stop token to be accepted once the matcher can accept")
	}
}

func TestFillMaskLeavesMatcherStateUnchanged(t *testing.T) {
	src := newFakeTokenSource("a", "ab", "b")
	v := Build(src)

	g := literalGrammar()
	st := matcher.New(g)
	mask := bitmask.New(v.VocabSize())
	v.FillMask(st, mask)

	if !st.AcceptToken([]byte("ab")) {
		t.Fatal("FillMask must roll back every byte it tried, matcher should still accept \"ab\" afterwards")
	}
}

func TestPartitionerCachesAcrossEquivalentStates(t *testing.T) {
	src := newFakeTokenSource("a", "ab", "b")
	v := Build(src)
	g := literalGrammar()
	store := cache.NewStore()
	p := NewPartitioner(store, v, g)

	st1 := matcher.New(g)
	part1 := p.Partition(st1)

	st2 := matcher.New(g)
	part2 := p.Partition(st2)

	if part1 != part2 {
		t.Fatal("expected two freshly-constructed matchers over the same grammar to share one cached partition")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 cached partition, got %d", store.Len())
	}
}

func TestBuildAllRunsConcurrently(t *testing.T) {
	sources := []TokenSource{
		newFakeTokenSource("a", "b"),
		newFakeTokenSource("x", "y", "z"),
		newFakeTokenSource("foo"),
	}
	vocabs, err := BuildAll(context.Background(), sources, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vocabs) != len(sources) {
		t.Fatalf("expected %d vocabularies, got %d", len(sources), len(vocabs))
	}
	for i, v := range vocabs {
		if v.VocabSize() != sources[i].VocabSize() {
			t.Fatalf("vocabulary %d: expected size %d, got %d", i, sources[i].VocabSize(), v.VocabSize())
		}
	}
}
