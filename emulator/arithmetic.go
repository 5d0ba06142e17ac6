package emulator

import (
	"math/big"

	"github.com/evmcfg/evmcfg/instruction"
	"github.com/evmcfg/evmcfg/ssa"
	"github.com/evmcfg/evmcfg/vmstate"
	"github.com/evmcfg/evmcfg/word256"
)

// init registers the pure SSA evaluators package ssa's constant-folding
// walk relies on to resolve indirect jump targets. Kept here, next to
// the word256 semantics they wrap, rather than in package ssa, which
// must not depend on opcode semantics.
func init() {
	ssa.Register("ADD", func(a []*big.Int) *big.Int { return word256.Add(a[0], a[1]) })
	ssa.Register("SUB", func(a []*big.Int) *big.Int { return word256.Sub(a[0], a[1]) })
	ssa.Register("MUL", func(a []*big.Int) *big.Int { return word256.Mul(a[0], a[1]) })
	ssa.Register("DIV", func(a []*big.Int) *big.Int { return word256.Div(a[0], a[1]) })
	ssa.Register("MOD", func(a []*big.Int) *big.Int { return word256.Rem(a[0], a[1]) })
	ssa.Register("SDIV", func(a []*big.Int) *big.Int { return word256.SDiv(a[0], a[1]) })
	ssa.Register("SMOD", func(a []*big.Int) *big.Int { return word256.SMod(a[0], a[1]) })
	ssa.Register("ADDMOD", func(a []*big.Int) *big.Int { return word256.AddMod(a[0], a[1], a[2]) })
	ssa.Register("MULMOD", func(a []*big.Int) *big.Int { return word256.MulMod(a[0], a[1], a[2]) })
	ssa.Register("EXP", func(a []*big.Int) *big.Int { return word256.Exp(a[0], a[1]) })
	ssa.Register("SIGNEXTEND", func(a []*big.Int) *big.Int { return word256.SignExtend(a[0], a[1]) })

	ssa.Register("LT", func(a []*big.Int) *big.Int { return word256.Lt(a[0], a[1]) })
	ssa.Register("GT", func(a []*big.Int) *big.Int { return word256.Gt(a[0], a[1]) })
	ssa.Register("SLT", func(a []*big.Int) *big.Int { return word256.Slt(a[0], a[1]) })
	ssa.Register("SGT", func(a []*big.Int) *big.Int { return word256.Sgt(a[0], a[1]) })
	ssa.Register("EQ", func(a []*big.Int) *big.Int { return word256.Eq(a[0], a[1]) })
	ssa.Register("ISZERO", func(a []*big.Int) *big.Int { return word256.IsZero(a[0]) })
	ssa.Register("AND", func(a []*big.Int) *big.Int { return word256.And(a[0], a[1]) })
	ssa.Register("OR", func(a []*big.Int) *big.Int { return word256.Or(a[0], a[1]) })
	ssa.Register("XOR", func(a []*big.Int) *big.Int { return word256.Xor(a[0], a[1]) })
	ssa.Register("NOT", func(a []*big.Int) *big.Int { return word256.Not(a[0]) })
	ssa.Register("BYTE", func(a []*big.Int) *big.Int { return word256.Byte(a[0], a[1]) })
}

// execArithmetic implements ADD/SUB/MUL/DIV/MOD/SDIV/SMOD/ADDMOD/
// MULMOD/EXP/SIGNEXTEND: pop the declared operands from both stacks,
// compute the concrete result, and push a matching SSA Computed node
// recording the mnemonic and its SSA operand list.
//
// EVM operand order is top-of-stack-first, e.g. for SUB the result is
// stack[0] - stack[1] where stack[0] is the value popped first.
func (e *Emulator) execArithmetic(inst *instruction.Instruction, state *vmstate.VMState) (bool, HaltKind, error) {
	n := inst.Pops
	concreteArgs := make([]*big.Int, n)
	ssaArgs := make([]*ssa.Value, n)
	for i := 0; i < n; i++ {
		v, sv, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		concreteArgs[i] = v
		ssaArgs[i] = sv
	}

	var result *big.Int
	switch inst.Mnemonic {
	case "ADD":
		result = word256.Add(concreteArgs[0], concreteArgs[1])
	case "SUB":
		result = word256.Sub(concreteArgs[0], concreteArgs[1])
	case "MUL":
		result = word256.Mul(concreteArgs[0], concreteArgs[1])
	case "DIV":
		result = word256.Div(concreteArgs[0], concreteArgs[1])
	case "MOD":
		result = word256.Rem(concreteArgs[0], concreteArgs[1])
	case "SDIV":
		result = word256.SDiv(concreteArgs[0], concreteArgs[1])
	case "SMOD":
		result = word256.SMod(concreteArgs[0], concreteArgs[1])
	case "ADDMOD":
		result = word256.AddMod(concreteArgs[0], concreteArgs[1], concreteArgs[2])
	case "MULMOD":
		result = word256.MulMod(concreteArgs[0], concreteArgs[1], concreteArgs[2])
	case "EXP":
		result = word256.Exp(concreteArgs[0], concreteArgs[1])
	case "SIGNEXTEND":
		result = word256.SignExtend(concreteArgs[0], concreteArgs[1])
	}

	sv := e.ssaCounter.NewComputed(inst.Mnemonic, ssaArgs...)
	if err := state.Push(inst.Mnemonic, result, sv); err != nil {
		return true, HaltStackUnderflow, err
	}
	return false, "", nil
}

// execComparisonLogic implements LT/GT/SLT/SGT/EQ/ISZERO/AND/OR/XOR/
// NOT/BYTE.
func (e *Emulator) execComparisonLogic(inst *instruction.Instruction, state *vmstate.VMState) (bool, HaltKind, error) {
	n := inst.Pops
	concreteArgs := make([]*big.Int, n)
	ssaArgs := make([]*ssa.Value, n)
	for i := 0; i < n; i++ {
		v, sv, err := state.Pop(inst.Mnemonic)
		if err != nil {
			return true, HaltStackUnderflow, err
		}
		concreteArgs[i] = v
		ssaArgs[i] = sv
	}

	var result *big.Int
	switch inst.Mnemonic {
	case "LT":
		result = word256.Lt(concreteArgs[0], concreteArgs[1])
	case "GT":
		result = word256.Gt(concreteArgs[0], concreteArgs[1])
	case "SLT":
		result = word256.Slt(concreteArgs[0], concreteArgs[1])
	case "SGT":
		result = word256.Sgt(concreteArgs[0], concreteArgs[1])
	case "EQ":
		result = word256.Eq(concreteArgs[0], concreteArgs[1])
	case "ISZERO":
		result = word256.IsZero(concreteArgs[0])
	case "AND":
		result = word256.And(concreteArgs[0], concreteArgs[1])
	case "OR":
		result = word256.Or(concreteArgs[0], concreteArgs[1])
	case "XOR":
		result = word256.Xor(concreteArgs[0], concreteArgs[1])
	case "NOT":
		result = word256.Not(concreteArgs[0])
	case "BYTE":
		result = word256.Byte(concreteArgs[0], concreteArgs[1])
	}

	sv := e.ssaCounter.NewComputed(inst.Mnemonic, ssaArgs...)
	if err := state.Push(inst.Mnemonic, result, sv); err != nil {
		return true, HaltStackUnderflow, err
	}
	return false, "", nil
}
