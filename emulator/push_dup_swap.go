package emulator

import (
	"github.com/evmcfg/evmcfg/instruction"
	"github.com/evmcfg/evmcfg/ssa"
	"github.com/evmcfg/evmcfg/vmstate"
	"github.com/evmcfg/evmcfg/word256"
)

// execPush implements PUSH1..PUSH32: the immediate bytes become a
// Constant SSA leaf, the root of every expression the indirect-jump
// resolver in package ssa is able to fold.
func (e *Emulator) execPush(inst *instruction.Instruction, state *vmstate.VMState) (bool, HaltKind, error) {
	val := word256.FromBytes(inst.Immediate)
	sv := ssa.NewConstant(val)
	if err := state.Push(inst.Mnemonic, val, sv); err != nil {
		return true, HaltStackUnderflow, err
	}
	return false, "", nil
}

// execDup implements DUP1..DUP16: duplicate the n-th stack item (1 =
// top) onto both stacks, sharing the same SSA node rather than
// allocating a new one — a DUPed value's provenance is identical to
// its source.
func (e *Emulator) execDup(inst *instruction.Instruction, state *vmstate.VMState) (bool, HaltKind, error) {
	n := inst.Pops // DUPn has arity n, duplicating the n-th-from-top item
	if err := state.DupFromTop(inst.Mnemonic, n); err != nil {
		return true, HaltStackUnderflow, err
	}
	return false, "", nil
}

// execSwap implements SWAP1..SWAP16: exchange the top with the
// (n+1)-th item from the top on both stacks.
func (e *Emulator) execSwap(inst *instruction.Instruction, state *vmstate.VMState) (bool, HaltKind, error) {
	n := inst.Pops - 1 // SWAPn has arity n+1
	if err := state.SwapWithTop(inst.Mnemonic, n); err != nil {
		return true, HaltStackUnderflow, err
	}
	return false, "", nil
}
