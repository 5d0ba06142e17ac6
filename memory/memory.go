// Package memory implements the byte-addressed, zero-initialized,
// auto-extending memory buffer a stack-based 256-bit VM reads and
// writes 32-byte words against.
package memory

import (
	"math/big"

	"github.com/evmcfg/evmcfg/word256"
)

// Ceiling is the default implementation-defined memory size limit,
// 2^24 bytes. Callers that need a different ceiling should use
// NewWithCeiling.
const Ceiling = 1 << 24

// Memory is a growable, zero-filled byte buffer.
type Memory struct {
	buf     []byte
	ceiling int
}

// New returns an empty Memory bounded by the default ceiling.
func New() *Memory {
	return &Memory{ceiling: Ceiling}
}

// NewWithCeiling returns an empty Memory bounded by the given ceiling,
// in bytes.
func NewWithCeiling(ceiling int) *Memory {
	return &Memory{ceiling: ceiling}
}

// Len returns the current length of the buffer in bytes.
func (m *Memory) Len() int { return len(m.buf) }

// ErrLimitExceeded reports that extending memory to cover a requested
// range would exceed the configured ceiling.
type ErrLimitExceeded struct {
	Requested int
	Ceiling   int
}

func (e *ErrLimitExceeded) Error() string {
	return "memory: requested size exceeds configured ceiling"
}

// extend grows the buffer with zero fill so it covers at least `end`
// bytes, rounding up to a 32-byte-aligned length the way an EVM-shaped
// memory model does.
func (m *Memory) extend(end int) error {
	if end <= len(m.buf) {
		return nil
	}
	if end > m.ceiling {
		return &ErrLimitExceeded{Requested: end, Ceiling: m.ceiling}
	}
	aligned := ((end + 31) / 32) * 32
	grown := make([]byte, aligned)
	copy(grown, m.buf)
	m.buf = grown
	return nil
}

// MStore writes v as 32 big-endian bytes starting at byte offset p,
// extending the buffer first.
func (m *Memory) MStore(p int, v *big.Int) error {
	if err := m.extend(p + 32); err != nil {
		return err
	}
	b := word256.Bytes32(v)
	copy(m.buf[p:p+32], b[:])
	return nil
}

// MStore8 writes the low 8 bits of v at byte offset p, extending the
// buffer first.
func (m *Memory) MStore8(p int, v byte) error {
	if err := m.extend(p + 1); err != nil {
		return err
	}
	m.buf[p] = v
	return nil
}

// MLoad reads 32 big-endian bytes starting at byte offset p,
// zero-filling past the current end.
func (m *Memory) MLoad(p int) (*big.Int, error) {
	if err := m.extend(p + 32); err != nil {
		return nil, err
	}
	return word256.FromBytes(m.buf[p : p+32]), nil
}

// ReadRange returns a copy of n bytes starting at byte offset p,
// zero-filled past the current end.
func (m *Memory) ReadRange(p, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if err := m.extend(p + n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.buf[p:p+n])
	return out, nil
}

// WriteZeros writes n zero bytes starting at byte offset p, extending
// the buffer first.
func (m *Memory) WriteZeros(p, n int) error {
	if n == 0 {
		return nil
	}
	if err := m.extend(p + n); err != nil {
		return err
	}
	for i := p; i < p+n; i++ {
		m.buf[i] = 0
	}
	return nil
}

// WriteBytes copies src into the buffer starting at byte offset p,
// extending the buffer first. Used by the *COPY opcodes: CODECOPY
// passes the program bytes, the others a zero-filled source.
func (m *Memory) WriteBytes(p int, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	if err := m.extend(p + len(src)); err != nil {
		return err
	}
	copy(m.buf[p:], src)
	return nil
}
