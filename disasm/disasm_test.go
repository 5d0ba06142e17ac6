package disasm

import "testing"

func TestDisassembleSimpleArithmetic(t *testing.T) {
	// PUSH1 3; PUSH1 5; ADD
	p, err := Disassemble("0x6003600501")
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(p.Instructions) != 3 {
		t.Fatalf("got %d instructions, want 3", len(p.Instructions))
	}
	if p.Instructions[0].Mnemonic != "PUSH1" || p.Instructions[0].OperandInterpretation[0] != 3 {
		t.Errorf("instr 0 = %+v", p.Instructions[0])
	}
	if p.Instructions[2].Mnemonic != "ADD" {
		t.Errorf("instr 2 mnemonic = %s, want ADD", p.Instructions[2].Mnemonic)
	}
}

func TestDisassembleTolerates0xPrefix(t *testing.T) {
	withPrefix, err := Disassemble("0x00")
	if err != nil {
		t.Fatalf("Disassemble with prefix: %v", err)
	}
	without, err := Disassemble("00")
	if err != nil {
		t.Fatalf("Disassemble without prefix: %v", err)
	}
	if len(withPrefix.Instructions) != len(without.Instructions) {
		t.Errorf("prefix handling mismatch")
	}
}

func TestDisassembleOddLengthIsMalformed(t *testing.T) {
	_, err := Disassemble("0x0")
	if err == nil {
		t.Fatal("expected error for odd-length hex")
	}
	if _, ok := err.(*MalformedBytecodeError); !ok {
		t.Errorf("expected *MalformedBytecodeError, got %T", err)
	}
}

func TestDisassembleNonHexIsMalformed(t *testing.T) {
	_, err := Disassemble("0xzz")
	if err == nil {
		t.Fatal("expected error for non-hex input")
	}
}

func TestDisassembleTruncatedPushIsMalformed(t *testing.T) {
	// PUSH4 but only 2 bytes follow.
	_, err := Disassemble("0x63aabb")
	if err == nil {
		t.Fatal("expected error for truncated PUSH immediate")
	}
}

func TestDisassembleUnknownOpcodeIsInvalid(t *testing.T) {
	// 0x0c is undefined.
	p, err := Disassemble("0x0c")
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if p.Instructions[0].Mnemonic != "INVALID" {
		t.Errorf("mnemonic = %s, want INVALID", p.Instructions[0].Mnemonic)
	}
}

func TestIndexAtAndInstructionAt(t *testing.T) {
	// PUSH1 5; JUMP; STOP; JUMPDEST; STOP
	p, err := Disassemble("0x600556005b00")
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	idx, ok := p.IndexAt(4)
	if !ok {
		t.Fatal("expected instruction at offset 4")
	}
	if p.Instructions[idx].Mnemonic != "JUMPDEST" {
		t.Errorf("offset 4 mnemonic = %s, want JUMPDEST", p.Instructions[idx].Mnemonic)
	}
	inst, ok := p.InstructionAt(2)
	if !ok || inst.Mnemonic != "JUMP" {
		t.Errorf("offset 2 = %+v, want JUMP", inst)
	}
}
