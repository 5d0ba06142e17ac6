// Package disasm implements a linear byte-to-instruction decoder: given
// hex-encoded bytecode, it produces an ordered, immutable instruction
// sequence plus a side map from byte offset to sequence index for
// jump-target resolution.
package disasm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/evmcfg/evmcfg/instruction"
)

// MalformedBytecodeError reports non-hex input or a truncated PUSH
// immediate.
type MalformedBytecodeError struct {
	Reason string
}

func (e *MalformedBytecodeError) Error() string {
	return fmt.Sprintf("malformed bytecode: %s", e.Reason)
}

// Program is the immutable output of disassembly: the ordered
// instruction sequence and the offset->index side map.
type Program struct {
	Instructions []*instruction.Instruction
	byOffset     map[int]int // byte offset -> index into Instructions
	raw          []byte
}

// Bytes returns the raw decoded program bytes (used by CODECOPY).
func (p *Program) Bytes() []byte { return p.raw }

// IndexAt returns the instruction index whose byte offset equals
// offset, and whether one exists.
func (p *Program) IndexAt(offset int) (int, bool) {
	idx, ok := p.byOffset[offset]
	return idx, ok
}

// InstructionAt returns the instruction whose byte offset equals
// offset, and whether one exists.
func (p *Program) InstructionAt(offset int) (*instruction.Instruction, bool) {
	idx, ok := p.byOffset[offset]
	if !ok {
		return nil, false
	}
	return p.Instructions[idx], true
}

// Disassemble decodes hex-encoded bytecode (tolerant of a leading 0x)
// into a Program. Length must be even and characters must be valid hex
// digits; PUSH opcodes that run off the end of the program are a
// MalformedBytecodeError.
func Disassemble(hexBytecode string) (*Program, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(hexBytecode, "0x"), "0X")
	if len(s)%2 != 0 {
		return nil, &MalformedBytecodeError{Reason: "odd-length hex string"}
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, &MalformedBytecodeError{Reason: err.Error()}
	}

	p := &Program{byOffset: make(map[int]int), raw: raw}

	offset := 0
	for offset < len(raw) {
		op := instruction.Opcode(raw[offset])
		info, ok := instruction.Lookup(op)

		var inst *instruction.Instruction
		if !ok {
			inst = &instruction.Instruction{
				Offset:    offset,
				OffsetEnd: offset + 1,
				Opcode:    op,
				Mnemonic:  "INVALID",
				Category:  instruction.CategoryFor("INVALID"),
			}
			offset++
		} else if info.ImmediateLen > 0 {
			immStart := offset + 1
			immEnd := immStart + info.ImmediateLen
			if immEnd > len(raw) {
				return nil, &MalformedBytecodeError{
					Reason: fmt.Sprintf("truncated immediate for %s at offset %d", info.Mnemonic, offset),
				}
			}
			imm := make([]byte, info.ImmediateLen)
			copy(imm, raw[immStart:immEnd])

			inst = &instruction.Instruction{
				Offset:                offset,
				OffsetEnd:             immEnd,
				Opcode:                op,
				Mnemonic:              info.Mnemonic,
				Category:              instruction.CategoryFor(info.Mnemonic),
				Pops:                  info.Pops,
				Pushes:                info.Pushes,
				Immediate:             imm,
				HasImmediateValue:     true,
				OperandInterpretation: imm,
			}
			offset = immEnd
		} else {
			inst = &instruction.Instruction{
				Offset:    offset,
				OffsetEnd: offset + 1,
				Opcode:    op,
				Mnemonic:  info.Mnemonic,
				Category:  instruction.CategoryFor(info.Mnemonic),
				Pops:      info.Pops,
				Pushes:    info.Pushes,
			}
			offset++
		}

		p.byOffset[inst.Offset] = len(p.Instructions)
		p.Instructions = append(p.Instructions, inst)
	}

	return p, nil
}
