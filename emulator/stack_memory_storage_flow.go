package emulator

import (
	"math/big"

	"github.com/evmcfg/evmcfg/instruction"
	"github.com/evmcfg/evmcfg/ssa"
	"github.com/evmcfg/evmcfg/vmstate"
	"github.com/evmcfg/evmcfg/word256"
)

// execStackMemoryStorageFlow implements POP, MLOAD/MSTORE/MSTORE8,
// SLOAD/SSTORE, PC/MSIZE/GAS, JUMPDEST, and the two control-flow
// opcodes JUMP/JUMPI. The jump-resolution shape is the same as a
// branch handler resolving a fixed-register target, generalized here
// to an SSA expression that may or may not fold to a constant.
func (e *Emulator) execStackMemoryStorageFlow(inst *instruction.Instruction, state *vmstate.VMState, res *Result) (bool, HaltKind, error) {
	switch inst.Mnemonic {
	case "POP":
		if _, _, err := state.Pop(inst.Mnemonic); err != nil {
			return true, HaltStackUnderflow, err
		}
		return false, "", nil

	case "MLOAD":
		offV, offSV, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		v, err := state.Memory.MLoad(toInt(offV))
		if err != nil {
			return true, HaltMemoryLimit, err
		}
		sv := e.ssaCounter.NewComputed(inst.Mnemonic, offSV)
		if err := state.Push(inst.Mnemonic, v, sv); err != nil {
			return true, HaltStackUnderflow, err
		}
		return false, "", nil

	case "MSTORE":
		offV, _, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		valV, _, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		if err := state.Memory.MStore(toInt(offV), valV); err != nil {
			return true, HaltMemoryLimit, err
		}
		return false, "", nil

	case "MSTORE8":
		offV, _, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		valV, _, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		b := word256.Bytes32(valV)
		if err := state.Memory.MStore8(toInt(offV), b[31]); err != nil {
			return true, HaltMemoryLimit, err
		}
		return false, "", nil

	case "SLOAD":
		keyV, keySV, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		v := state.Storage.SLoad(keyV)
		sv := e.ssaCounter.NewComputed(inst.Mnemonic, keySV)
		if err := state.Push(inst.Mnemonic, v, sv); err != nil {
			return true, HaltStackUnderflow, err
		}
		return false, "", nil

	case "SSTORE":
		keyV, _, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		valV, _, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		state.Storage.SStore(keyV, valV)
		return false, "", nil

	case "PC":
		sv := e.ssaCounter.NewComputed(inst.Mnemonic)
		if err := state.Push(inst.Mnemonic, word256.FromUint64(uint64(inst.Offset)), sv); err != nil {
			return true, HaltStackUnderflow, err
		}
		return false, "", nil

	case "MSIZE":
		sv := e.ssaCounter.NewComputed(inst.Mnemonic)
		if err := state.Push(inst.Mnemonic, word256.FromUint64(uint64(state.Memory.Len())), sv); err != nil {
			return true, HaltStackUnderflow, err
		}
		return false, "", nil

	case "GAS":
		sv := ssa.NewInput(inst.Mnemonic)
		if err := state.Push(inst.Mnemonic, new(big.Int).Set(Sentinel), sv); err != nil {
			return true, HaltStackUnderflow, err
		}
		return false, "", nil

	case "JUMPDEST":
		return false, "", nil

	case "JUMP":
		return e.execJump(inst, state, res)

	case "JUMPI":
		return e.execJumpi(inst, state, res)

	default:
		return true, HaltInvalid, nil
	}
}

// resolveTarget pops nothing; it takes an already-popped SSA operand
// and attempts to reduce it to the integer byte offset a jump names.
// Failure means the target depends on an unmodeled input
// (UnresolvedIndirectJump).
func resolveTarget(sv *ssa.Value) (int, bool) {
	resolved, ok := ssa.Resolve(sv)
	if !ok {
		return 0, false
	}
	return toInt(resolved), true
}

// execJump implements JUMP: resolve the popped SSA target expression
// to a constant, verify it names a JUMPDEST, and redirect PC.
func (e *Emulator) execJump(inst *instruction.Instruction, state *vmstate.VMState, res *Result) (bool, HaltKind, error) {
	_, targetSV, err := state.Pop(inst.Mnemonic)
	if err != nil {
		return true, HaltStackUnderflow, err
	}

	target, ok := resolveTarget(targetSV)
	if !ok {
		return true, HaltUnresolvedJump, &UnresolvedJumpError{Offset: inst.Offset, Mnemonic: inst.Mnemonic, Expr: targetSV.Format()}
	}

	dest, found := e.Program.InstructionAt(target)
	if !found || !dest.IsJumpdest() {
		return true, HaltBadJump, &BadJumpError{Offset: inst.Offset, Mnemonic: inst.Mnemonic, Target: target}
	}

	idx, _ := e.Program.IndexAt(target)
	state.PC = idx
	res.Edges = append(res.Edges, Edge{FromOffset: inst.Offset, ToOffset: target, Kind: Unconditional})
	return false, "", nil
}

// execJumpi implements JUMPI: the branch condition is evaluated
// concretely (it is frequently calldata-derived, which this emulator
// does model concretely via CALLDATALOAD), while the destination still
// goes through the same constant-folding resolution JUMP uses. Both
// outgoing edges — conditional-true to the resolved target,
// conditional-false to the fallthrough instruction — are recorded
// whenever the target resolves to a JUMPDEST, regardless of which way
// the concrete condition actually goes; only the concrete condition
// decides which block pc continues into.
func (e *Emulator) execJumpi(inst *instruction.Instruction, state *vmstate.VMState, res *Result) (bool, HaltKind, error) {
	_, destSV, err := state.Pop(inst.Mnemonic)
	if err != nil {
		return true, HaltStackUnderflow, err
	}
	condV, _, err := state.Pop(inst.Mnemonic)
	if err != nil {
		return true, HaltStackUnderflow, err
	}

	targetIdx := -1
	if target, ok := resolveTarget(destSV); ok {
		if dest, found := e.Program.InstructionAt(target); found && dest.IsJumpdest() {
			idx, _ := e.Program.IndexAt(target)
			targetIdx = idx
			res.Edges = append(res.Edges, Edge{FromOffset: inst.Offset, ToOffset: target, Kind: CondTrue})
		}
	}
	res.Edges = append(res.Edges, Edge{FromOffset: inst.Offset, ToOffset: inst.OffsetEnd, Kind: CondFalse})

	// Unlike JUMP, an unresolved or invalid target does not halt the
	// path: the branch is simply not taken. Only a nonzero condition AND
	// a resolved JUMPDEST target together cause the branch to be taken.
	if condV.Sign() != 0 && targetIdx >= 0 {
		state.PC = targetIdx
	}
	return false, "", nil
}
