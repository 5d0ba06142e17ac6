package emulator

import (
	"math/big"

	"github.com/evmcfg/evmcfg/instruction"
	"github.com/evmcfg/evmcfg/ssa"
	"github.com/evmcfg/evmcfg/vmstate"
)

// execBlockInfo implements BLOCKHASH/COINBASE/TIMESTAMP/NUMBER/
// DIFFICULTY/GASLIMIT. None of these have modeled chain state, so each
// pops its declared operands (only BLOCKHASH takes one) and pushes the
// Sentinel value behind an Input SSA node.
func (e *Emulator) execBlockInfo(inst *instruction.Instruction, state *vmstate.VMState) (bool, HaltKind, error) {
	for i := 0; i < inst.Pops; i++ {
		if _, _, err := state.Pop(inst.Mnemonic); err != nil {
			return true, HaltStackUnderflow, err
		}
	}
	sv := ssa.NewInput(inst.Mnemonic)
	if err := state.Push(inst.Mnemonic, new(big.Int).Set(Sentinel), sv); err != nil {
		return true, HaltStackUnderflow, err
	}
	return false, "", nil
}
