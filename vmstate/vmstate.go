// Package vmstate owns the mutable state one emulation run threads
// through the dispatch loop: the program counter, the dual
// concrete/SSA stacks kept in lock-step, memory, storage, and the
// ordered set of visited instruction offsets.
package vmstate

import (
	"math/big"

	"github.com/evmcfg/evmcfg/memory"
	"github.com/evmcfg/evmcfg/ssa"
	"github.com/evmcfg/evmcfg/storage"
)

// MaxStackDepth is the maximum number of items either stack may hold.
const MaxStackDepth = 1024

// ErrStackUnderflow reports a pop on an empty stack.
type ErrStackUnderflow struct{ Op string }

func (e *ErrStackUnderflow) Error() string { return "stack underflow during " + e.Op }

// ErrStackOverflow reports a push that would exceed MaxStackDepth.
type ErrStackOverflow struct{ Op string }

func (e *ErrStackOverflow) Error() string { return "stack overflow during " + e.Op }

// CallInfo carries the transaction-shaped context an emulation is
// seeded with.
type CallInfo struct {
	Calldata  []byte
	CallValue *big.Int
}

// VMState is created fresh per emulation entry point. Storage may be
// seeded from a prior run of the same contract instance.
type VMState struct {
	PC int

	concreteStack []*big.Int
	ssaStack      []*ssa.Value

	Memory  *memory.Memory
	Storage *storage.Storage

	LastReturned []byte
	Gas          uint64

	visited     []int
	visitedSeen map[int]bool
}

// New returns a fresh VMState with empty stacks, empty memory, and
// fresh storage.
func New() *VMState {
	return &VMState{
		Memory:      memory.New(),
		Storage:     storage.New(),
		Gas:         1_000_000,
		visitedSeen: make(map[int]bool),
	}
}

// NewWithStorage returns a fresh VMState that shares the given storage
// instead of starting empty — storage is the one piece of state
// carried across sequential emulations of the same contract instance.
func NewWithStorage(s *storage.Storage) *VMState {
	st := New()
	st.Storage = s
	return st
}

// Depth returns the current stack depth. Stack parity between the
// concrete and SSA stacks is an external property the emulator
// maintains by always pushing/popping both together; VMState itself
// just exposes the two slices.
func (s *VMState) Depth() int { return len(s.concreteStack) }

// Push pushes a concrete value and its SSA record onto the matching
// stacks. Fails if doing so would exceed MaxStackDepth.
func (s *VMState) Push(op string, val *big.Int, sv *ssa.Value) error {
	if len(s.concreteStack) >= MaxStackDepth {
		return &ErrStackOverflow{Op: op}
	}
	s.concreteStack = append(s.concreteStack, val)
	s.ssaStack = append(s.ssaStack, sv)
	return nil
}

// Pop pops the top concrete value and its SSA record. Fails on an
// empty stack.
func (s *VMState) Pop(op string) (*big.Int, *ssa.Value, error) {
	n := len(s.concreteStack)
	if n == 0 {
		return nil, nil, &ErrStackUnderflow{Op: op}
	}
	v := s.concreteStack[n-1]
	sv := s.ssaStack[n-1]
	s.concreteStack = s.concreteStack[:n-1]
	s.ssaStack = s.ssaStack[:n-1]
	return v, sv, nil
}

// Peek returns the concrete value n items from the top (0 = top)
// without popping. Fails if n is out of range.
func (s *VMState) Peek(op string, n int) (*big.Int, *ssa.Value, error) {
	idx := len(s.concreteStack) - 1 - n
	if idx < 0 {
		return nil, nil, &ErrStackUnderflow{Op: op}
	}
	return s.concreteStack[idx], s.ssaStack[idx], nil
}

// DupFromTop duplicates the n-th item from the top (1 = the top
// itself, matching DUP1) onto both stacks.
func (s *VMState) DupFromTop(op string, n int) error {
	idx := len(s.concreteStack) - n
	if idx < 0 {
		return &ErrStackUnderflow{Op: op}
	}
	return s.Push(op, s.concreteStack[idx], s.ssaStack[idx])
}

// SwapWithTop swaps the top of the stack with the (n+1)-th item from
// the top (n = 1 for SWAP1) on both stacks.
func (s *VMState) SwapWithTop(op string, n int) error {
	top := len(s.concreteStack) - 1
	other := top - n
	if other < 0 {
		return &ErrStackUnderflow{Op: op}
	}
	s.concreteStack[top], s.concreteStack[other] = s.concreteStack[other], s.concreteStack[top]
	s.ssaStack[top], s.ssaStack[other] = s.ssaStack[other], s.ssaStack[top]
	return nil
}

// ConcreteStack returns a read-only snapshot of the concrete stack,
// top-last (index len-1 is top-of-stack), for observability output.
func (s *VMState) ConcreteStack() []*big.Int {
	out := make([]*big.Int, len(s.concreteStack))
	copy(out, s.concreteStack)
	return out
}

// MarkVisited records offset as reached during this execution,
// preserving first-visit order.
func (s *VMState) MarkVisited(offset int) {
	if s.visitedSeen[offset] {
		return
	}
	s.visitedSeen[offset] = true
	s.visited = append(s.visited, offset)
}

// Visited returns the ordered set of instruction offsets reached so far.
func (s *VMState) Visited() []int {
	out := make([]int, len(s.visited))
	copy(out, s.visited)
	return out
}
