package emulator

import (
	"math/big"

	"github.com/evmcfg/evmcfg/instruction"
	"github.com/evmcfg/evmcfg/ssa"
	"github.com/evmcfg/evmcfg/vmstate"
	"github.com/evmcfg/evmcfg/word256"
)

// execEnvironmental implements the environmental opcodes. Some of
// them are grounded in data this emulator actually has —
// CALLDATASIZE, CALLVALUE, CALLDATALOAD read CallInfo, CODESIZE reports
// the program length and CODECOPY copies the program bytes — because
// calldata-driven branching is the entire point of reconstructing a
// dispatcher's CFG. CALLDATALOAD's word is concrete, but its SSA node
// is an Input, since it depends on the call rather than the program.
// ADDRESS, BALANCE, ORIGIN, CALLER, GASPRICE, EXTCODESIZE and
// RETURNDATASIZE have no modeled chain state to draw on, so they push
// the fixed Sentinel value behind an Input SSA node, keeping any jump
// that depends on them correctly unresolved rather than silently
// wrong. CALLDATACOPY, RETURNDATACOPY and EXTCODECOPY pop their
// operands and write zeros into memory.
func (e *Emulator) execEnvironmental(callinfo *vmstate.CallInfo, inst *instruction.Instruction, state *vmstate.VMState) (bool, HaltKind, error) {
	switch inst.Mnemonic {
	case "CALLDATASIZE":
		return e.pushConcrete(inst, state, word256.FromUint64(uint64(len(callinfo.Calldata))))

	case "CALLVALUE":
		v := callinfo.CallValue
		if v == nil {
			v = word256.Zero()
		}
		return e.pushConcrete(inst, state, new(big.Int).Set(v))

	case "CALLDATALOAD":
		offV, _, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		word := readPadded(callinfo.Calldata, toInt(offV), 32)
		sv := ssa.NewInput(inst.Mnemonic)
		if err := state.Push(inst.Mnemonic, word256.FromBytes(word), sv); err != nil {
			return true, HaltStackUnderflow, err
		}
		return false, "", nil

	case "CALLDATACOPY":
		return e.execCopyOp(inst, state, nil)

	case "CODESIZE":
		return e.pushConcrete(inst, state, word256.FromUint64(uint64(len(e.Program.Bytes()))))

	case "CODECOPY":
		return e.execCopyOp(inst, state, e.Program.Bytes())

	case "RETURNDATACOPY":
		return e.execCopyOp(inst, state, nil)

	case "EXTCODECOPY":
		// address, destOffset, offset, length; no modeled external code,
		// so the copied range is always zero-filled.
		if _, _, err := state.Pop(inst.Mnemonic); err != nil {
			return true, HaltStackUnderflow, err
		}
		return e.execCopyOp(inst, state, nil)

	default:
		// ADDRESS, BALANCE, ORIGIN, CALLER, GASPRICE, EXTCODESIZE,
		// RETURNDATASIZE: pop any declared operands, push the Input sentinel.
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
}

// pushConcrete pushes val with a fresh Computed SSA node carrying no
// operands, for opcodes whose result is concretely known but not a
// literal PUSH: the CALLDATASIZE/CALLVALUE/CODESIZE treatment.
func (e *Emulator) pushConcrete(inst *instruction.Instruction, state *vmstate.VMState, val *big.Int) (bool, HaltKind, error) {
	sv := e.ssaCounter.NewComputed(inst.Mnemonic)
	if err := state.Push(inst.Mnemonic, val, sv); err != nil {
		return true, HaltStackUnderflow, err
	}
	return false, "", nil
}

// execCopyOp implements the *COPY family's shared (destOffset, offset,
// length) pop-three/write-memory shape, reading from src (nil src
// behaves as all-zero).
func (e *Emulator) execCopyOp(inst *instruction.Instruction, state *vmstate.VMState, src []byte) (bool, HaltKind, error) {
	destV, _, err := state.Pop(inst.Mnemonic)
	if err != nil {
		return true, HaltStackUnderflow, err
	}
	offV, _, err := state.Pop(inst.Mnemonic)
	if err != nil {
		return true, HaltStackUnderflow, err
	}
	lengthV, _, err := state.Pop(inst.Mnemonic)
	if err != nil {
		return true, HaltStackUnderflow, err
	}

	n := toInt(lengthV)
	data := readPadded(src, toInt(offV), n)
	if err := state.Memory.WriteBytes(toInt(destV), data); err != nil {
		return true, HaltMemoryLimit, err
	}
	return false, "", nil
}

// readPadded returns the n bytes of src starting at offset, zero-padded
// past src's end or a negative/out-of-range offset.
func readPadded(src []byte, offset, n int) []byte {
	out := make([]byte, n)
	if offset < 0 || offset >= len(src) {
		return out
	}
	copy(out, src[offset:])
	return out
}
