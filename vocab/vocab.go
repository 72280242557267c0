/*
Package vocab implements vocabulary pre-analysis. A Vocabulary is a
byte-trie built once per tokenizer over its token strings, using
internal/bmap.BMap as each node's child-byte table — bmap was built for
exactly "a small fixed set of []byte keys added once, never deleted",
which is precisely a trie node's child table after the vocabulary is
known.

FillMask walks that trie against a live matcher.State, using
State.Advance/State.Rollback to explore and backtrack one byte at a
time, setting one bitmask bit per accepted token id. Partitioner adds a
cache.Store in front of that walk, keyed by grammar fingerprint plus
the matcher state's own Signature, so repeated context classes across
requests reuse a previously computed partition instead of re-walking
the trie.
*/
package vocab

import (
	"context"
	"encoding/binary"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ava12/sgrammar/bitmask"
	"github.com/ava12/sgrammar/cache"
	"github.com/ava12/sgrammar/grammar"
	"github.com/ava12/sgrammar/internal/bmap"
	"github.com/ava12/sgrammar/matcher"
)

// TokenSource is the tokenizer collaborator contract: a vocabulary
// size, a byte-string (or special-token marker) per token id, and the
// set of token ids that terminate generation.
type TokenSource interface {
	VocabSize() int
	BytesOf(id int) (data []byte, special bool)
	StopTokenIDs() map[int]bool
}

// trieNode is one node of the immutable, already-built trie: children
// looked up by single byte through a bmap.BMap, plus a sorted
// childBytes slice so FillMask can enumerate them (BMap itself offers
// no iteration, by design - it is a lookup table, not an ordered map).
type trieNode struct {
	children   *bmap.BMap[*trieNode]
	childBytes []byte
	tokenIDs   []int
}

// Vocabulary is the compiled trie over one tokenizer's non-special
// token strings, plus the tokenizer's declared stop-token ids.
type Vocabulary struct {
	root         *trieNode
	size         int
	stopTokenIDs map[int]bool
}

// buildNode is the mutable scratch representation used only while
// inserting token strings; it is thrown away once Build finalizes each
// node into its immutable bmap-backed trieNode.
type buildNode struct {
	children map[byte]*buildNode
	tokenIDs []int
}

func newBuildNode() *buildNode {
	return &buildNode{children: map[byte]*buildNode{}}
}

// Build inserts every non-special token's bytes into a trie, then
// freezes it. Special (meta) tokens are never matched against grammar
// bytes so they are skipped here; FillMask handles them separately via
// StopTokenIDs.
func Build(src TokenSource) *Vocabulary {
	root := newBuildNode()
	size := src.VocabSize()
	for id := 0; id < size; id++ {
		data, special := src.BytesOf(id)
		if special {
			continue
		}
		n := root
		for _, b := range data {
			child, ok := n.children[b]
			if !ok {
				child = newBuildNode()
				n.children[b] = child
			}
			n = child
		}
		n.tokenIDs = append(n.tokenIDs, id)
	}
	return &Vocabulary{root: finalize(root), size: size, stopTokenIDs: src.StopTokenIDs()}
}

func finalize(n *buildNode) *trieNode {
	tn := &trieNode{tokenIDs: n.tokenIDs}
	if len(n.children) == 0 {
		return tn
	}

	tn.childBytes = make([]byte, 0, len(n.children))
	for b := range n.children {
		tn.childBytes = append(tn.childBytes, b)
	}
	sort.Slice(tn.childBytes, func(i, j int) bool { return tn.childBytes[i] < tn.childBytes[j] })

	tn.children = bmap.New[*trieNode](len(tn.childBytes))
	for _, b := range tn.childBytes {
		tn.children.Set([]byte{b}, finalize(n.children[b]))
	}
	return tn
}

// VocabSize returns the tokenizer's declared vocabulary size, the
// length every bitmask.Mask FillMask fills must be sized to.
func (v *Vocabulary) VocabSize() int {
	return v.size
}

// FillMask walks the trie against st, setting one bit per token id
// whose bytes st currently accepts, then folds in stop-token ids that
// are accepted iff st.CanAccept(). It reports whether the resulting
// mask needs to be applied at all: false iff every token id ended up
// accepted (the "trivially all-accept" signal), mirroring
// fill_next_token_bitmask's return contract.
func (v *Vocabulary) FillMask(st *matcher.State, mask *bitmask.Mask) bool {
	accepted := 0
	walk(v.root, st, mask, &accepted)
	for id := range v.stopTokenIDs {
		if mask.Get(id) {
			continue
		}
		if st.CanAccept() {
			mask.Set(id)
			accepted++
		}
	}
	return accepted != mask.Len()
}

func walk(n *trieNode, st *matcher.State, mask *bitmask.Mask, accepted *int) {
	for _, id := range n.tokenIDs {
		if !mask.Get(id) {
			mask.Set(id)
			*accepted++
		}
	}
	if n.children == nil {
		return
	}
	for _, b := range n.childBytes {
		child, ok := n.children.Get([]byte{b})
		if !ok {
			continue
		}
		if !st.Advance(b) {
			continue
		}
		walk(child, st, mask, accepted)
		st.Rollback(1)
	}
}

// Partitioner caches FillMask results across repeated context classes,
// keyed by a combination of the compiled grammar's fingerprint and the
// matcher state's own Signature ("context class identified by the
// canonical position-set signature"). A separate rule-level cache
// (top-of-stack-nonterminal-only reuse across grammars) is not
// implemented as a distinct cache here: this module's continuation
// stack (matcher.cont) does not carry a standalone "current
// nonterminal" identity per frame - frames are inlined sequence
// positions, not rule-call frames - so recovering it would mean
// threading extra bookkeeping through every closure step. The
// signature-keyed cache already subsumes its benefit for repeat
// traffic on the same grammar at the cost of one coarser key; see
// DESIGN.md.
type Partitioner struct {
	store              *cache.Store
	vocab              *Vocabulary
	grammarFingerprint uint64
}

// NewPartitioner builds a Partitioner over an already-compiled
// Vocabulary and grammar, sharing store across as many Partitioners as
// the caller wants (store is a process-wide, read-mostly cache).
func NewPartitioner(store *cache.Store, v *Vocabulary, g *grammar.Grammar) *Partitioner {
	return &Partitioner{store: store, vocab: v, grammarFingerprint: cache.GrammarFingerprint(g)}
}

// Partition returns the cached (or freshly computed) accept/reject
// partition for st's current context class.
func (p *Partitioner) Partition(st *matcher.State) *cache.Partition {
	key := cache.Fingerprint(uint64Bytes(p.grammarFingerprint), uint64Bytes(st.Signature()))
	return p.store.GetOrCompute(key, func() *cache.Partition {
		mask := bitmask.New(p.vocab.VocabSize())
		needsApply := p.vocab.FillMask(st, mask)
		return &cache.Partition{Mask: mask, Trivial: !needsApply}
	})
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// BuildAll compiles one Vocabulary per source concurrently, bounded by
// limit in-flight builds at once, via a golang.org/x/sync/errgroup
// worker pool, applied here to vocabulary construction (the other
// compile-time-heavy, parallelizable step alongside grammar
// compilation).
func BuildAll(ctx context.Context, sources []TokenSource, limit int) ([]*Vocabulary, error) {
	vocabs := make([]*Vocabulary, len(sources))
	g, _ := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			vocabs[i] = Build(src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vocabs, nil
}
