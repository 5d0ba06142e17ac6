package emulator

import (
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/evmcfg/evmcfg/disasm"
	"github.com/evmcfg/evmcfg/vmstate"
)

func run(t *testing.T, hexBytecode string, callinfo *vmstate.CallInfo) *Result {
	t.Helper()
	prog, err := disasm.Disassemble(hexBytecode)
	if err != nil {
		t.Fatalf("Disassemble(%q) failed: %v", hexBytecode, err)
	}
	em := New(prog)
	if callinfo == nil {
		callinfo = &vmstate.CallInfo{CallValue: big.NewInt(0)}
	}
	state := vmstate.New()
	return em.Emulate(callinfo, state)
}

func TestArithmeticScenario(t *testing.T) {
	// PUSH1 3; PUSH1 5; ADD
	res := run(t, "0x6003600501", nil)
	if res.HaltKind != HaltEndOfProgram {
		t.Fatalf("HaltKind = %v, want end-of-program", res.HaltKind)
	}
	stack := res.State.ConcreteStack()
	if len(stack) != 1 || stack[0].Cmp(big.NewInt(8)) != 0 {
		t.Fatalf("final stack = %v, want [8]", stack)
	}
}

func TestWraparoundScenario(t *testing.T) {
	maxWord := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	// PUSH1 1; PUSH32 2^256-1; ADD
	bytecode := "0x6001" + "7f" + maxWord.Text(16) + "01"
	res := run(t, bytecode, nil)
	stack := res.State.ConcreteStack()
	if len(stack) != 1 || stack[0].Sign() != 0 {
		t.Fatalf("final stack = %v, want [0]", stack)
	}
}

func TestStorageRoundTripScenario(t *testing.T) {
	// PUSH1 0x42; PUSH1 0; SSTORE; PUSH1 0; SLOAD
	res := run(t, "0x6042600055600054", nil)
	if res.HaltKind != HaltEndOfProgram {
		t.Fatalf("HaltKind = %v (err=%v), want end-of-program", res.HaltKind, res.Err)
	}
	stack := res.State.ConcreteStack()
	if len(stack) != 1 || stack[0].Cmp(big.NewInt(0x42)) != 0 {
		t.Fatalf("final stack = %v, want [0x42]", stack)
	}
	snap := res.State.Storage.Snapshot()
	v, ok := snap["0"]
	if !ok || v.Cmp(big.NewInt(0x42)) != 0 {
		t.Fatalf("storage[0] = %v (ok=%v), want 0x42", v, ok)
	}
}

func TestJumpToJumpdestSucceeds(t *testing.T) {
	// PUSH1 4; JUMP; STOP; JUMPDEST; STOP — offset 4 is JUMPDEST in this layout.
	res := run(t, "0x600456005b00", nil)
	if res.HaltKind != HaltStop {
		t.Fatalf("HaltKind = %v, want STOP (err=%v)", res.HaltKind, res.Err)
	}
	want := []int{0, 2, 4, 5}
	got := res.State.Visited()
	if len(got) != len(want) {
		t.Fatalf("visited = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visited = %v, want %v", got, want)
		}
	}
	if len(res.Edges) != 1 || res.Edges[0].ToOffset != 4 || res.Edges[0].Kind != Unconditional {
		t.Fatalf("edges = %+v, want one Unconditional edge to offset 4", res.Edges)
	}
}

func TestJumpToNonJumpdestIsBadJump(t *testing.T) {
	// PUSH1 3; JUMP; STOP; JUMPDEST; STOP — offset 3 is STOP, not JUMPDEST.
	res := run(t, "0x600356005b00", nil)
	if res.HaltKind != HaltBadJump {
		t.Fatalf("HaltKind = %v, want bad-jump", res.HaltKind)
	}
	var badJump *BadJumpError
	if !errors.As(res.Err, &badJump) {
		t.Fatalf("Err = %v, want *BadJumpError", res.Err)
	}
	if badJump.Target != 3 {
		t.Fatalf("BadJumpError.Target = %d, want 3", badJump.Target)
	}
}

func TestJumpiOnCalldataDrivenCondition(t *testing.T) {
	// PUSH1 0; CALLDATALOAD; PUSH1 7; JUMPI; STOP; JUMPDEST; STOP
	// JUMPDEST sits at offset 7 in this layout.
	bytecode := "0x600035600757005b00"
	calldata, err := hex.DecodeString("01")
	if err != nil {
		t.Fatal(err)
	}
	res := run(t, bytecode, &vmstate.CallInfo{Calldata: calldata, CallValue: big.NewInt(0)})
	if res.HaltKind != HaltStop {
		t.Fatalf("HaltKind = %v (err=%v), want STOP", res.HaltKind, res.Err)
	}
	if len(res.Edges) != 2 {
		t.Fatalf("edges = %+v, want 2 edges (both JUMPI outcomes)", res.Edges)
	}
	if res.Edges[0].Kind != CondTrue || res.Edges[0].ToOffset != 7 {
		t.Errorf("edges[0] = %+v, want CondTrue to offset 7", res.Edges[0])
	}
	if res.Edges[1].Kind != CondFalse || res.Edges[1].ToOffset != 6 {
		t.Errorf("edges[1] = %+v, want CondFalse to offset 6", res.Edges[1])
	}
}

func TestJumpiFalseFallsThrough(t *testing.T) {
	bytecode := "0x600035600757005b00"
	calldata, err := hex.DecodeString("00")
	if err != nil {
		t.Fatal(err)
	}
	res := run(t, bytecode, &vmstate.CallInfo{Calldata: calldata, CallValue: big.NewInt(0)})
	if res.HaltKind != HaltStop {
		t.Fatalf("HaltKind = %v (err=%v), want STOP", res.HaltKind, res.Err)
	}
	if len(res.Edges) != 2 {
		t.Fatalf("edges = %+v, want 2 edges (both JUMPI outcomes)", res.Edges)
	}
	if res.Edges[0].Kind != CondTrue || res.Edges[0].ToOffset != 7 {
		t.Errorf("edges[0] = %+v, want CondTrue to offset 7", res.Edges[0])
	}
	if res.Edges[1].Kind != CondFalse || res.Edges[1].ToOffset != 6 {
		t.Errorf("edges[1] = %+v, want CondFalse to offset 6", res.Edges[1])
	}
}

func TestIndirectJumpOnEnvironmentalInputIsUnresolved(t *testing.T) {
	// ADDRESS; JUMP — the target is an Input sentinel, never foldable.
	res := run(t, "0x3056", nil)
	if res.HaltKind != HaltUnresolvedJump {
		t.Fatalf("HaltKind = %v, want unresolved-indirect-jump", res.HaltKind)
	}
	var unresolved *UnresolvedJumpError
	if !errors.As(res.Err, &unresolved) {
		t.Fatalf("Err = %v, want *UnresolvedJumpError", res.Err)
	}
}

func TestStackUnderflowOnBareAdd(t *testing.T) {
	res := run(t, "0x01", nil)
	if res.HaltKind != HaltStackUnderflow {
		t.Fatalf("HaltKind = %v, want stack-underflow", res.HaltKind)
	}
}

func TestDupAndSwapPreserveConcreteValues(t *testing.T) {
	// PUSH1 1; PUSH1 2; SWAP1; DUP2; ADD
	// [1,2] -SWAP1-> [2,1] -DUP2-> [2,1,2] -ADD-> [2,3]
	res := run(t, "0x60016002908101", nil)
	stack := res.State.ConcreteStack()
	want := []int64{2, 3}
	if len(stack) != len(want) {
		t.Fatalf("final stack = %v, want %v", stack, want)
	}
	for i, w := range want {
		if stack[i].Cmp(big.NewInt(w)) != 0 {
			t.Fatalf("final stack = %v, want %v", stack, want)
		}
	}
}

func TestSha3OfEmptyRangeIsKeccakEmpty(t *testing.T) {
	// PUSH1 0; PUSH1 0; SHA3 — keccak256("") is a well-known constant.
	res := run(t, "0x6000600020", nil)
	stack := res.State.ConcreteStack()
	if len(stack) != 1 {
		t.Fatalf("final stack = %v, want one value", stack)
	}
	want, _ := new(big.Int).SetString("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", 16)
	if stack[0].Cmp(want) != 0 {
		t.Fatalf("SHA3(\"\") = %x, want %x", stack[0], want)
	}
}

func TestMemoryStoreLoadRoundTrip(t *testing.T) {
	// PUSH1 0x42; PUSH1 0; MSTORE; PUSH1 0; MLOAD
	res := run(t, "0x6042600052600051", nil)
	stack := res.State.ConcreteStack()
	if len(stack) != 1 || stack[0].Cmp(big.NewInt(0x42)) != 0 {
		t.Fatalf("final stack = %v, want [0x42]", stack)
	}
}
