package tui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/evmcfg/evmcfg/cfg"
	"github.com/evmcfg/evmcfg/disasm"
	"github.com/evmcfg/evmcfg/signature"
)

func newTestTUI(t *testing.T) *TUI {
	t.Helper()
	prog, err := disasm.Disassemble("0x600456005b00")
	if err != nil {
		t.Fatal(err)
	}
	graph := cfg.BuildStatic(prog, signature.Empty())

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	t.Cleanup(screen.Fini)

	return NewTUIWithScreen(graph, screen)
}

func TestExecuteCommandHelpDoesNotBlock(t *testing.T) {
	tuiInst := newTestTUI(t)

	done := make(chan bool, 1)
	go func() {
		tuiInst.executeCommand("help")
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("executeCommand blocked for more than 2 seconds")
	}
}

func TestHandleCommandReturnsImmediately(t *testing.T) {
	tuiInst := newTestTUI(t)
	tuiInst.CommandInput.SetText("help")

	done := make(chan bool, 1)
	go func() {
		tuiInst.handleCommand(tcell.KeyEnter)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("handleCommand blocked for more than 100ms - should return immediately")
	}
}

func TestGotoUpdatesCurrentOffset(t *testing.T) {
	tuiInst := newTestTUI(t)
	tuiInst.executeCommand("goto 4")

	tuiInst.mu.Lock()
	offset := tuiInst.currentOffset
	tuiInst.mu.Unlock()

	if offset != 4 {
		t.Errorf("currentOffset = %d, want 4", offset)
	}
}

func TestRunCommandRecordsResult(t *testing.T) {
	tuiInst := newTestTUI(t)
	tuiInst.executeCommand("run")

	tuiInst.mu.Lock()
	result := tuiInst.lastResult
	tuiInst.mu.Unlock()

	if result == nil {
		t.Fatal("expected lastResult to be set after run")
	}
	if result.HaltKind != "STOP" {
		t.Errorf("HaltKind = %q, want STOP", result.HaltKind)
	}
}

func TestFunctionsViewListsDispatcher(t *testing.T) {
	tuiInst := newTestTUI(t)
	tuiInst.RefreshAll()

	text := tuiInst.FunctionsView.GetText(true)
	if text == "" {
		t.Error("expected functions view to list the seeded Dispatcher entry")
	}
}
