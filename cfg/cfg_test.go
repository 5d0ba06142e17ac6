package cfg

import (
	"math/big"
	"testing"

	"github.com/evmcfg/evmcfg/disasm"
	"github.com/evmcfg/evmcfg/signature"
	"github.com/evmcfg/evmcfg/vmstate"
)

func TestDispatcherPatternDiscovery(t *testing.T) {
	// PUSH4 0xaabbccdd; EQ; PUSH1 0x0c; JUMPI
	prog, err := disasm.Disassemble("0x63aabbccdd14600c57")
	if err != nil {
		t.Fatal(err)
	}
	g := BuildStatic(prog, signature.Empty())

	var found *Function
	for _, f := range g.Functions {
		if !f.IsDispatcher {
			found = f
		}
	}
	if found == nil {
		t.Fatal("expected a discovered function besides Dispatcher")
	}
	if found.Selector != 0xaabbccdd {
		t.Errorf("Selector = 0x%x, want 0xaabbccdd", found.Selector)
	}
	if found.EntryOffset != 0x0c {
		t.Errorf("EntryOffset = 0x%x, want 0x0c", found.EntryOffset)
	}
	if found.Name != "func_aabbccdd" {
		t.Errorf("Name = %q, want func_aabbccdd", found.Name)
	}

	var dispatcher *Function
	for _, f := range g.Functions {
		if f.IsDispatcher {
			dispatcher = f
		}
	}
	if dispatcher == nil || dispatcher.EntryOffset != 0 {
		t.Fatal("expected a Dispatcher function at offset 0")
	}
}

func TestDispatcherUnknownSignatureLeavesPreferredNameEmpty(t *testing.T) {
	prog, err := disasm.Disassemble("0x63aabbccdd14600c57")
	if err != nil {
		t.Fatal(err)
	}
	m := signature.Empty()
	g := BuildStatic(prog, m)
	for _, f := range g.Functions {
		if !f.IsDispatcher && f.PreferredName != "" {
			t.Errorf("PreferredName = %q, want empty for an untracked signature set", f.PreferredName)
		}
	}
}

func TestBlockSegmentationOnJumpTerminatedProgram(t *testing.T) {
	// PUSH1 4; JUMP; STOP; JUMPDEST; STOP
	prog, err := disasm.Disassemble("0x600456005b00")
	if err != nil {
		t.Fatal(err)
	}
	g := BuildStatic(prog, signature.Empty())

	if len(g.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3: %+v", len(g.Blocks), g.Blocks)
	}
	// Block 1: PUSH1 4; JUMP (terminates on JUMP)
	if g.Blocks[0].StartOffset != 0 || g.Blocks[0].EndOffset != 3 {
		t.Errorf("block0 = [%d,%d), want [0,3)", g.Blocks[0].StartOffset, g.Blocks[0].EndOffset)
	}
	// Block 2: STOP alone (terminates because next is JUMPDEST)
	if g.Blocks[1].StartOffset != 3 || g.Blocks[1].EndOffset != 4 {
		t.Errorf("block1 = [%d,%d), want [3,4)", g.Blocks[1].StartOffset, g.Blocks[1].EndOffset)
	}
	// Block 3: JUMPDEST; STOP
	if g.Blocks[2].StartOffset != 4 || g.Blocks[2].EndOffset != 6 {
		t.Errorf("block2 = [%d,%d), want [4,6)", g.Blocks[2].StartOffset, g.Blocks[2].EndOffset)
	}

	var total int
	for _, b := range g.Blocks {
		total += len(b.Instructions)
	}
	if total != len(prog.Instructions) {
		t.Errorf("block instruction total = %d, want %d (block disjointness)", total, len(prog.Instructions))
	}
}

func TestBuildDynamicRecordsUnconditionalEdge(t *testing.T) {
	prog, err := disasm.Disassemble("0x600456005b00")
	if err != nil {
		t.Fatal(err)
	}
	g := BuildStatic(prog, signature.Empty())
	res := BuildDynamic(g, &vmstate.CallInfo{CallValue: big.NewInt(0)})

	if res.Err != nil {
		t.Fatalf("unexpected emulation error: %v", res.Err)
	}
	if len(g.Edges) != 1 {
		t.Fatalf("got %d edges, want 1: %+v", len(g.Edges), g.Edges)
	}
	e := g.Edges[0]
	if e.ToOffset != 4 || e.Kind != Unconditional {
		t.Errorf("edge = %+v, want Unconditional to offset 4", e)
	}

	for _, e := range g.Edges {
		if e.Kind != CondTrue && e.Kind != Unconditional {
			continue
		}
		dest, ok := g.BlockAt(e.ToOffset)
		if !ok || len(dest.Instructions) == 0 || !dest.Instructions[0].IsJumpdest() {
			t.Errorf("edge %+v does not target a block starting with JUMPDEST", e)
		}
	}
}
