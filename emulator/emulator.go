// Package emulator implements the hybrid concrete/SSA dispatch loop:
// it executes each instruction against a concrete VMState while
// simultaneously building an SSA value for every produced stack slot,
// so indirect jump targets can be resolved by evaluating their SSA
// expression. The main fetch-decode-dispatch loop and its per-category
// opcode handlers follow the same shape as a register machine's
// executor, generalized from a 32-bit register machine to a 256-bit
// stack machine.
package emulator

import (
	"fmt"
	"math/big"

	"github.com/evmcfg/evmcfg/disasm"
	"github.com/evmcfg/evmcfg/instruction"
	"github.com/evmcfg/evmcfg/ssa"
	"github.com/evmcfg/evmcfg/vmstate"
)

// Sentinel is the fixed placeholder value pushed for environmental/
// block-info opcodes this emulator does not model (ADDRESS, CALLER,
// TIMESTAMP, GAS, ...), so dependent control flow stays driven by
// calldata and pushed constants instead of invented chain state.
var Sentinel = big.NewInt(0xBADBEEF)

// EdgeKind classifies a CFG edge recorded during emulation.
type EdgeKind int

const (
	Fallthrough EdgeKind = iota
	CondTrue
	CondFalse
	Unconditional
	CallReturn
)

func (k EdgeKind) String() string {
	switch k {
	case Fallthrough:
		return "fallthrough"
	case CondTrue:
		return "conditional-true"
	case CondFalse:
		return "conditional-false"
	case Unconditional:
		return "unconditional"
	case CallReturn:
		return "call-return"
	default:
		return "unknown"
	}
}

// Edge is a lightweight, package-local edge record; package cfg
// translates these into its own offset-based Edge type. Defined
// here (rather than imported from cfg) so emulator has no dependency
// on cfg, which in turn depends on emulator to drive dynamic analysis.
type Edge struct {
	FromOffset int
	ToOffset   int
	Kind       EdgeKind
}

// TraceStep is one entry of the SSA-annotated trace exposed to
// observability tooling.
type TraceStep struct {
	Step     int
	PC       int
	Offset   int
	Mnemonic string
	Stack    []string // hex, lowercase, 0x-prefixed, bottom-to-top
	Storage  map[string]string
}

// HaltKind names why an emulation path stopped.
type HaltKind string

const (
	HaltStop               HaltKind = "STOP"
	HaltReturn             HaltKind = "RETURN"
	HaltRevert             HaltKind = "REVERT"
	HaltSelfDestruct       HaltKind = "SELFDESTRUCT"
	HaltInvalid            HaltKind = "INVALID"
	HaltEndOfProgram       HaltKind = "end-of-program"
	HaltStackUnderflow     HaltKind = "stack-underflow"
	HaltBadJump            HaltKind = "bad-jump"
	HaltUnresolvedJump     HaltKind = "unresolved-indirect-jump"
	HaltMemoryLimit        HaltKind = "memory-limit-exceeded"
)

// Result is the outcome of one emulation run.
type Result struct {
	State     *vmstate.VMState
	Trace     []TraceStep
	Edges     []Edge
	HaltKind  HaltKind
	// Err is non-nil for every HaltKind except the natural-termination
	// set (STOP/RETURN/REVERT/SELFDESTRUCT/INVALID/end-of-program).
	Err error
}

// BadJumpError reports a resolved jump target that is not a JUMPDEST.
type BadJumpError struct {
	Offset   int
	Mnemonic string
	Target   int
}

func (e *BadJumpError) Error() string {
	return fmt.Sprintf("bad jump at offset 0x%x (%s): target 0x%x is not a JUMPDEST", e.Offset, e.Mnemonic, e.Target)
}

// UnresolvedJumpError reports an indirect jump whose SSA expression
// could not be reduced to a constant. The SSA expression string is
// carried for diagnostics.
type UnresolvedJumpError struct {
	Offset   int
	Mnemonic string
	Expr     string
}

func (e *UnresolvedJumpError) Error() string {
	return fmt.Sprintf("unresolved indirect jump at offset 0x%x (%s): %s", e.Offset, e.Mnemonic, e.Expr)
}

// Emulator holds the immutable, shareable disassembly and the SSA
// assignment counter for Computed nodes. Running two emulations over
// the same Program concurrently is not supported: the per-instruction
// SSA annotation slot would race.
type Emulator struct {
	Program  *disasm.Program
	MaxDepth int // advisory only; this emulator never recurses into sub-calls

	ssaCounter ssa.Counter
}

// New returns an Emulator over program with the default max-depth
// (20).
func New(program *disasm.Program) *Emulator {
	return &Emulator{Program: program, MaxDepth: 20}
}

// Emulate runs the dispatch loop from state.PC until a halt condition
// is reached.
func (e *Emulator) Emulate(callinfo *vmstate.CallInfo, state *vmstate.VMState) *Result {
	res := &Result{State: state}
	step := 0

	for {
		if state.PC < 0 || state.PC >= len(e.Program.Instructions) {
			res.HaltKind = HaltEndOfProgram
			return res
		}

		inst := e.Program.Instructions[state.PC]
		state.MarkVisited(inst.Offset)

		res.Trace = append(res.Trace, TraceStep{
			Step:     step,
			PC:       state.PC,
			Offset:   inst.Offset,
			Mnemonic: inst.Mnemonic,
			Stack:    stackHex(state.ConcreteStack()),
			Storage:  storageHex(state.Storage.Snapshot()),
		})
		step++

		nextPC := state.PC + 1
		state.PC = nextPC

		halted, haltKind, err := e.dispatch(callinfo, inst, state, res)
		if err != nil {
			res.HaltKind = haltKind
			res.Err = err
			return res
		}
		if inst.Pushes > 0 {
			if _, sv, err := state.Peek(inst.Mnemonic, 0); err == nil {
				inst.SSA = sv
			}
		}
		if halted {
			res.HaltKind = haltKind
			return res
		}
	}
}

func stackHex(stack []*big.Int) []string {
	out := make([]string, len(stack))
	for i, v := range stack {
		out[i] = fmt.Sprintf("0x%x", v)
	}
	return out
}

func storageHex(snap map[string]*big.Int) map[string]string {
	out := make(map[string]string, len(snap))
	for k, v := range snap {
		out[k] = fmt.Sprintf("0x%x", v)
	}
	return out
}

// dispatch routes one instruction to its category handler via an
// if/else-if chain over the instruction's Category flags.
func (e *Emulator) dispatch(callinfo *vmstate.CallInfo, inst *instruction.Instruction, state *vmstate.VMState, res *Result) (halted bool, kind HaltKind, err error) {
	cat := inst.Category

	switch {
	case inst.Mnemonic == "STOP":
		return true, HaltStop, nil

	case cat.Arithmetic:
		return e.execArithmetic(inst, state)

	case cat.ComparisonLogic:
		return e.execComparisonLogic(inst, state)

	case cat.SHA3:
		return e.execSHA3(inst, state)

	case cat.Environmental:
		return e.execEnvironmental(callinfo, inst, state)

	case cat.BlockInfo:
		return e.execBlockInfo(inst, state)

	case cat.StackMemoryStorageFlow:
		return e.execStackMemoryStorageFlow(inst, state, res)

	case cat.Push:
		return e.execPush(inst, state)

	case cat.Dup:
		return e.execDup(inst, state)

	case cat.Swap:
		return e.execSwap(inst, state)

	case cat.Log:
		return e.execLog(inst, state)

	case cat.System:
		return e.execSystem(inst, state, res)

	default:
		// INVALID and any opcode the disassembler couldn't classify.
		return true, HaltInvalid, nil
	}
}
