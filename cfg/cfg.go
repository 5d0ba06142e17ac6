// Package cfg reconstructs control flow from a disassembled program:
// basic-block segmentation, static dispatcher-pattern function
// discovery, and dynamic edge recording driven by running the hybrid
// emulator. Block/function bookkeeping follows a symbol-table-keyed
// static analysis pass over decoded instructions, and Function's
// offset-keyed identity follows an address-keyed-map-with-IDs pattern.
package cfg

import (
	"sort"

	"github.com/evmcfg/evmcfg/disasm"
	"github.com/evmcfg/evmcfg/emulator"
	"github.com/evmcfg/evmcfg/instruction"
	"github.com/evmcfg/evmcfg/signature"
	"github.com/evmcfg/evmcfg/vmstate"
)

// EdgeKind mirrors emulator.EdgeKind, translated into this package's
// own vocabulary so callers of cfg never need to import emulator
// directly for edge classification.
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

func fromEmulatorKind(k emulator.EdgeKind) EdgeKind {
	switch k {
	case emulator.Fallthrough:
		return Fallthrough
	case emulator.CondTrue:
		return CondTrue
	case emulator.CondFalse:
		return CondFalse
	case emulator.Unconditional:
		return Unconditional
	case emulator.CallReturn:
		return CallReturn
	default:
		return Fallthrough
	}
}

// Edge is one control-flow transfer between two byte offsets.
type Edge struct {
	FromOffset int
	ToOffset   int
	Kind       EdgeKind
}

// BasicBlock is a maximal straight-line run of instructions.
type BasicBlock struct {
	StartOffset  int
	EndOffset    int // one past the last byte of the block's last instruction
	Instructions []*instruction.Instruction
}

// Function is a dispatcher-discovered entry point.
type Function struct {
	Selector     uint32 // zero for the synthetic Dispatcher function
	EntryOffset  int
	Name         string // func_<hex(selector)>, or the Dispatcher's fixed name
	PreferredName string // from the signature lookup, empty if unknown
	IsDispatcher bool
}

// Graph is the full reconstructed CFG.
type Graph struct {
	Program   *disasm.Program
	Blocks    []*BasicBlock
	Functions []*Function
	Edges     []Edge
}

// BuildStatic segments basic blocks and discovers dispatcher functions
// without running any code.
func BuildStatic(program *disasm.Program, sigs signature.Lookup) *Graph {
	g := &Graph{Program: program}
	g.Blocks = segmentBlocks(program)
	g.Functions = discoverFunctions(program, sigs)
	return g
}

// segmentBlocks partitions program's instructions into basic blocks: a
// block ends at JUMP, JUMPI, a halt opcode, the instruction immediately
// before a JUMPDEST, or the last instruction of the sequence.
func segmentBlocks(program *disasm.Program) []*BasicBlock {
	var blocks []*BasicBlock
	insts := program.Instructions
	if len(insts) == 0 {
		return blocks
	}

	start := 0
	for i, inst := range insts {
		isLast := i == len(insts)-1
		terminates := inst.Category.BranchUnconditional ||
			inst.Category.BranchConditional ||
			inst.Category.Halt ||
			isLast ||
			(i+1 < len(insts) && insts[i+1].IsJumpdest())

		if terminates {
			block := &BasicBlock{
				StartOffset:  insts[start].Offset,
				EndOffset:    inst.OffsetEnd,
				Instructions: insts[start : i+1],
			}
			blocks = append(blocks, block)
			start = i + 1
		}
	}
	return blocks
}

// discoverFunctions implements the static dispatcher heuristic: scan
// for four consecutive instructions matching
// PUSH4 S · EQ · PUSH1|PUSH2 X · JUMPI.
func discoverFunctions(program *disasm.Program, sigs signature.Lookup) []*Function {
	var functions []*Function
	insts := program.Instructions

	if len(insts) > 0 && insts[0].Offset == 0 {
		functions = append(functions, &Function{
			EntryOffset:  0,
			Name:         "Dispatcher",
			IsDispatcher: true,
		})
	}

	for i := 0; i+3 < len(insts); i++ {
		a, b, c, d := insts[i], insts[i+1], insts[i+2], insts[i+3]
		if a.Mnemonic != "PUSH4" {
			continue
		}
		if b.Mnemonic != "EQ" {
			continue
		}
		if c.Mnemonic != "PUSH1" && c.Mnemonic != "PUSH2" {
			continue
		}
		if d.Mnemonic != "JUMPI" {
			continue
		}

		selector := uint32(0)
		for _, by := range a.Immediate {
			selector = selector<<8 | uint32(by)
		}
		entry := 0
		for _, by := range c.Immediate {
			entry = entry<<8 | int(by)
		}

		name := hexSelectorName(selector)
		preferred := ""
		if sigs != nil {
			if n, ok := sigs.Lookup(selector); ok {
				preferred = n
			}
		}

		functions = append(functions, &Function{
			Selector:      selector,
			EntryOffset:   entry,
			Name:          name,
			PreferredName: preferred,
		})
	}

	return functions
}

func hexSelectorName(selector uint32) string {
	const hexdigits = "0123456789abcdef"
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = hexdigits[selector&0xf]
		selector >>= 4
	}
	return "func_" + string(b)
}

// BuildDynamic runs the hybrid emulator from offset 0 with callinfo and
// merges the resulting trace's edges into a Graph built by BuildStatic.
// Running it again with a different callinfo (e.g. a flipped calldata
// selector) discovers additional edges on top of the same static
// skeleton — callers drive exploration breadth, cfg only merges.
func BuildDynamic(g *Graph, callinfo *vmstate.CallInfo) *emulator.Result {
	return BuildDynamicWithState(g, callinfo, vmstate.New())
}

// BuildDynamicWithState is BuildDynamic with caller-supplied VMState, so
// a long-lived session can carry its storage across successive calls.
func BuildDynamicWithState(g *Graph, callinfo *vmstate.CallInfo, state *vmstate.VMState) *emulator.Result {
	em := emulator.New(g.Program)
	result := em.Emulate(callinfo, state)
	MergeDynamicEdges(g, result)
	return result
}

// MergeDynamicEdges appends result's edges onto g, translated into cfg's
// own EdgeKind vocabulary. Exposed separately so callers that already
// hold a Result (e.g. after streaming trace steps to a client) don't
// need to re-run the emulator just to merge edges.
func MergeDynamicEdges(g *Graph, result *emulator.Result) {
	for _, e := range result.Edges {
		g.Edges = append(g.Edges, Edge{FromOffset: e.FromOffset, ToOffset: e.ToOffset, Kind: fromEmulatorKind(e.Kind)})
	}
}

// BlockAt returns the basic block starting at offset, if any.
func (g *Graph) BlockAt(offset int) (*BasicBlock, bool) {
	for _, b := range g.Blocks {
		if b.StartOffset == offset {
			return b, true
		}
	}
	return nil, false
}

// SortedFunctions returns Functions ordered by entry offset, Dispatcher
// first.
func (g *Graph) SortedFunctions() []*Function {
	out := make([]*Function, len(g.Functions))
	copy(out, g.Functions)
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDispatcher != out[j].IsDispatcher {
			return out[i].IsDispatcher
		}
		return out[i].EntryOffset < out[j].EntryOffset
	})
	return out
}
