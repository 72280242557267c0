/*
Package cache implements process-wide, read-mostly caches: a
grammar-fingerprint keyed store of vocabulary partitions ("cache the
partition per signature"), guarded by a single sync.RWMutex discipline
since writes are rare (first compile / first time a context-class
signature is seen) and reads dominate.

Fingerprints use hash/maphash, the same hashing primitive internal/bmap
reaches for (maphash.Bytes over a seed created once at package init) —
justified stdlib use: no third-party library offers a
content-fingerprinting primitive any better suited to "hash some bytes
for a map key".
*/
package cache

import (
	"hash/maphash"
	"sync"

	"github.com/ava12/sgrammar/bitmask"
	"github.com/ava12/sgrammar/grammar"
)

var seed = maphash.MakeSeed()

// Fingerprint hashes an arbitrary sequence of byte blocks into one
// uint64 key, used to combine a grammar fingerprint with a per-state
// signature into a single cache key.
func Fingerprint(parts ...[]byte) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum64()
}

// GrammarFingerprint fingerprints a compiled grammar by its normative
// printed form (grammar.Print), so two structurally-equal grammars with
// different fresh-name suffixes still collide as intended... almost:
// Print renders nonterminal names verbatim, so this fingerprint is
// exact-text, not alpha-equivalence. Good enough for this cache's
// purpose (reusing a partition computed for the exact same compiled
// grammar), not claimed as a general grammar-equality test.
func GrammarFingerprint(g *grammar.Grammar) uint64 {
	return Fingerprint([]byte(g.Print()))
}

// Partition is one cached accept/reject decision: the packed mask plus
// whether it was trivially all-accept (mirrors fill_next_token_bitmask's
// own return contract, so a cache hit can skip recomputation work
// entirely, including the "was it trivial" check).
type Partition struct {
	Mask    *bitmask.Mask
	Trivial bool
}

// Store is a process-wide, concurrency-safe partition cache keyed by an
// opaque uint64. Its caller, vocab.Partitioner, builds the key from the
// grammar fingerprint and the matcher state signature only; no tokenizer
// fingerprint is part of it.
type Store struct {
	mu         sync.RWMutex
	partitions map[uint64]*Partition
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{partitions: map[uint64]*Partition{}}
}

// Get returns a previously-cached partition, if any.
func (s *Store) Get(key uint64) (*Partition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partitions[key]
	return p, ok
}

// GetOrCompute returns the cached partition for key, computing and
// storing it via compute if absent. compute runs outside the lock, so
// concurrent misses for the same key may race to compute; the loser's
// result is discarded, which is cheap relative to the lock contention a
// compute-under-lock discipline would add on the hot path.
func (s *Store) GetOrCompute(key uint64, compute func() *Partition) *Partition {
	if p, ok := s.Get(key); ok {
		return p
	}
	p := compute()
	s.mu.Lock()
	if existing, ok := s.partitions[key]; ok {
		p = existing
	} else {
		s.partitions[key] = p
	}
	s.mu.Unlock()
	return p
}

// Len reports how many partitions are currently cached.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.partitions)
}
