package cache

import (
	"testing"

	"github.com/ava12/sgrammar/bitmask"
)

func TestGetOrComputeCachesOnce(t *testing.T) {
	s := NewStore()
	calls := 0
	compute := func() *Partition {
		calls++
		return &Partition{Mask: bitmask.New(8)}
	}

	p1 := s.GetOrCompute(42, compute)
	p2 := s.GetOrCompute(42, compute)
	if calls != 1 {
		t.Fatalf("expected compute to run once, ran %d times", calls)
	}
	if p1 != p2 {
		t.Fatal("expected the same cached *Partition to be returned")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", s.Len())
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint([]byte("root ::= \"x\""))
	b := Fingerprint([]byte("root ::= \"x\""))
	if a != b {
		t.Fatal("expected identical input to fingerprint identically")
	}
	c := Fingerprint([]byte("root ::= \"y\""))
	if a == c {
		t.Fatal("expected different input to fingerprint differently (in practice)")
	}
}
