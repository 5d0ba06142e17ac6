package emulator

import (
	"math/big"

	"github.com/evmcfg/evmcfg/instruction"
	"github.com/evmcfg/evmcfg/ssa"
	"github.com/evmcfg/evmcfg/vmstate"
)

// execSystem implements CREATE/CALL/CALLCODE/RETURN/DELEGATECALL/
// STATICCALL/REVERT/INVALID/SELFDESTRUCT. This emulator never recurses
// into a callee, so CREATE/CALL/CALLCODE/DELEGATECALL/STATICCALL just
// pop their declared operands and push the Sentinel placeholder result;
// RETURN/REVERT capture the returned memory range and halt;
// SELFDESTRUCT and INVALID halt outright.
func (e *Emulator) execSystem(inst *instruction.Instruction, state *vmstate.VMState, res *Result) (bool, HaltKind, error) {
	switch inst.Mnemonic {
	case "RETURN":
		data, kind, err := e.popReturnRange(inst, state)
		if err != nil {
			return true, kind, err
		}
		state.LastReturned = data
		return true, HaltReturn, nil

	case "REVERT":
		data, kind, err := e.popReturnRange(inst, state)
		if err != nil {
			return true, kind, err
		}
		state.LastReturned = data
		return true, HaltRevert, nil

	case "SELFDESTRUCT":
		if _, _, err := state.Pop(inst.Mnemonic); err != nil {
			return true, HaltStackUnderflow, err
		}
		return true, HaltSelfDestruct, nil

	case "INVALID":
		return true, HaltInvalid, nil

	case "CREATE", "CALL", "CALLCODE", "DELEGATECALL", "STATICCALL":
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

	default:
		return true, HaltInvalid, nil
	}
}

// popReturnRange pops (offset, length) and reads that memory range, the
// shared shape of RETURN and REVERT. On failure it also returns the
// HaltKind matching the error.
func (e *Emulator) popReturnRange(inst *instruction.Instruction, state *vmstate.VMState) ([]byte, HaltKind, error) {
	offV, _, err := state.Pop(inst.Mnemonic)
	if err != nil {
		return nil, HaltStackUnderflow, err
	}
	lengthV, _, err := state.Pop(inst.Mnemonic)
	if err != nil {
		return nil, HaltStackUnderflow, err
	}
	data, err := state.Memory.ReadRange(toInt(offV), toInt(lengthV))
	if err != nil {
		return nil, HaltMemoryLimit, err
	}
	return data, "", nil
}
