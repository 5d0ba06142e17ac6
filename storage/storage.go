// Package storage implements the sparse 256-bit key to 256-bit value
// mapping backing the SSTORE/SLOAD opcodes. Unknown keys read as zero;
// storing zero removes the entry, keeping the map's size a meaningful
// diagnostic without changing observable read behavior.
package storage

import "math/big"

// Storage is a sparse key/value map, keyed by the decimal string form
// of a 256-bit key so that equal big.Int values always hash the same
// regardless of which *big.Int instance produced them.
type Storage struct {
	slots map[string]*big.Int
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{slots: make(map[string]*big.Int)}
}

// Clone returns a deep-enough copy of s: a new map, but since stored
// values are never mutated in place, the *big.Int values themselves
// are shared structurally. Used when an emulation needs its own
// storage view seeded from a prior run's state, preserved across
// sequential emulations of the same contract instance.
func (s *Storage) Clone() *Storage {
	out := &Storage{slots: make(map[string]*big.Int, len(s.slots))}
	for k, v := range s.slots {
		out.slots[k] = v
	}
	return out
}

// SLoad returns the value stored at key k, or zero if k has never been
// written (or was most recently stored as zero).
func (s *Storage) SLoad(k *big.Int) *big.Int {
	if v, ok := s.slots[k.String()]; ok {
		return v
	}
	return new(big.Int)
}

// SStore records v at key k. Storing zero removes the entry.
func (s *Storage) SStore(k, v *big.Int) {
	if v.Sign() == 0 {
		delete(s.slots, k.String())
		return
	}
	s.slots[k.String()] = v
}

// Len returns the number of non-zero entries currently recorded.
func (s *Storage) Len() int { return len(s.slots) }

// Snapshot returns a shallow copy of the underlying key/value pairs,
// keyed by the same decimal string representation, for observability
// output alongside the SSA-annotated trace.
func (s *Storage) Snapshot() map[string]*big.Int {
	out := make(map[string]*big.Int, len(s.slots))
	for k, v := range s.slots {
		out[k] = v
	}
	return out
}
