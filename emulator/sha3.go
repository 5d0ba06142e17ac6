package emulator

import (
	"math/big"

	"github.com/evmcfg/evmcfg/instruction"
	"github.com/evmcfg/evmcfg/vmstate"
	"github.com/evmcfg/evmcfg/word256"
	"golang.org/x/crypto/sha3"
)

// execSHA3 implements the SHA3 opcode: pop (offset, length), read that
// memory range, and push the Keccak-256 digest as a word.
//
// The digest is pushed as a Computed SSA node rather than a Constant:
// even when offset/length are themselves constant, hashing isn't in
// ssa's pureEvaluable table, so it never participates in indirect-jump
// constant folding, which is scoped to arithmetic/bitwise/comparison
// ops only.
func (e *Emulator) execSHA3(inst *instruction.Instruction, state *vmstate.VMState) (bool, HaltKind, error) {
	offsetV, offsetSV, err := state.Pop(inst.Mnemonic)
	if err != nil {
		return true, HaltStackUnderflow, err
	}
	lengthV, lengthSV, err := state.Pop(inst.Mnemonic)
	if err != nil {
		return true, HaltStackUnderflow, err
	}

	data, err := state.Memory.ReadRange(toInt(offsetV), toInt(lengthV))
	if err != nil {
		return true, HaltMemoryLimit, err
	}

	digest := sha3.NewLegacyKeccak256()
	digest.Write(data)
	sum := digest.Sum(nil)
	result := word256.FromBytes(sum)

	sv := e.ssaCounter.NewComputed(inst.Mnemonic, offsetSV, lengthSV)
	if err := state.Push(inst.Mnemonic, result, sv); err != nil {
		return true, HaltStackUnderflow, err
	}
	return false, "", nil
}

// toInt clamps a 256-bit word to an int suitable for indexing Go
// slices. Values that don't fit are clamped to a number safely larger
// than any realistic memory ceiling, so the memory package's own
// ceiling check is what actually rejects them (ErrLimitExceeded)
// rather than this conversion overflowing.
func toInt(v *big.Int) int {
	const clampAt = 1 << 32
	if !v.IsInt64() {
		return clampAt
	}
	n := v.Int64()
	if n < 0 || n > clampAt {
		return clampAt
	}
	return int(n)
}
