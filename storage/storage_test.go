package storage

import (
	"math/big"
	"testing"
)

func TestSLoadUnwrittenKeyIsZero(t *testing.T) {
	s := New()
	if got := s.SLoad(big.NewInt(7)); got.Sign() != 0 {
		t.Errorf("SLoad on unwritten key = %s, want 0", got)
	}
}

func TestSStoreSLoadRoundTrip(t *testing.T) {
	s := New()
	s.SStore(big.NewInt(0), big.NewInt(0x42))
	if got := s.SLoad(big.NewInt(0)); got.Cmp(big.NewInt(0x42)) != 0 {
		t.Errorf("SLoad(0) = %s, want 0x42", got)
	}
	// An unrelated key remains zero.
	if got := s.SLoad(big.NewInt(1)); got.Sign() != 0 {
		t.Errorf("SLoad(1) = %s, want 0", got)
	}
}

func TestSStoreZeroRemovesEntry(t *testing.T) {
	s := New()
	s.SStore(big.NewInt(5), big.NewInt(9))
	s.SStore(big.NewInt(5), big.NewInt(0))
	if s.Len() != 0 {
		t.Errorf("Len() after zero-store = %d, want 0", s.Len())
	}
	if got := s.SLoad(big.NewInt(5)); got.Sign() != 0 {
		t.Errorf("SLoad(5) after zero-store = %s, want 0", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	s.SStore(big.NewInt(1), big.NewInt(100))

	clone := s.Clone()
	clone.SStore(big.NewInt(2), big.NewInt(200))

	if s.Len() != 1 {
		t.Errorf("original Len() = %d, want 1 (clone mutation leaked)", s.Len())
	}
	if clone.Len() != 2 {
		t.Errorf("clone Len() = %d, want 2", clone.Len())
	}
}
