// Package tui implements an interactive terminal browser over a
// reconstructed control-flow graph: disassembly, discovered functions,
// edges, and the stack/storage snapshot left behind by the last dynamic
// run. Panel layout, command-input-driven refresh loop, and F-key
// shortcuts follow the same shape as a source-level debugger TUI,
// generalized from register/memory/breakpoint panels to
// disassembly/function/edge panels over a cfg.Graph.
package tui

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/evmcfg/evmcfg/cfg"
	"github.com/evmcfg/evmcfg/emulator"
	"github.com/evmcfg/evmcfg/loader"
	"github.com/evmcfg/evmcfg/storage"
	"github.com/evmcfg/evmcfg/vmstate"
)

// TUI is the interactive CFG/trace browser.
type TUI struct {
	Graph *cfg.Graph

	App   *tview.Application
	Pages *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	DisassemblyView *tview.TextView
	FunctionsView   *tview.TextView
	EdgesView       *tview.TextView
	StackView       *tview.TextView
	StorageView     *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	mu            sync.Mutex
	currentOffset int
	lastResult    *emulator.Result
	storage       *storage.Storage
}

// NewTUI creates a TUI over graph, using the real terminal screen.
func NewTUI(graph *cfg.Graph) *TUI {
	return newTUI(graph, tview.NewApplication())
}

// NewTUIWithScreen creates a TUI bound to an explicit tcell.Screen (a
// tcell.NewSimulationScreen in tests), so command dispatch is testable
// without a real terminal.
func NewTUIWithScreen(graph *cfg.Graph, screen tcell.Screen) *TUI {
	app := tview.NewApplication().SetScreen(screen)
	return newTUI(graph, app)
}

func newTUI(graph *cfg.Graph, app *tview.Application) *TUI {
	t := &TUI{
		Graph:   graph,
		App:     app,
		storage: storage.New(),
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.FunctionsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.FunctionsView.SetBorder(true).SetTitle(" Functions ")

	t.EdgesView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.EdgesView.SetBorder(true).SetTitle(" Edges ")

	t.StackView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Stack ")

	t.StorageView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.StorageView.SetBorder(true).SetTitle(" Storage ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.DisassemblyView, 0, 3, false).
		AddItem(t.FunctionsView, 0, 2, false).
		AddItem(t.EdgesView, 0, 2, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.StackView, 0, 1, false).
		AddItem(t.StorageView, 0, 1, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.dispatchCommand("help")
			return nil
		case tcell.KeyF5:
			t.dispatchCommand("run")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

// handleCommand is tview's InputField done callback: it must return
// immediately, so the actual command runs on a goroutine (matching the
// teacher's async-dispatch pattern for long-running debugger commands).
func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd == "" {
		return
	}
	t.CommandInput.SetText("")
	go t.executeCommand(cmd)
}

func (t *TUI) dispatchCommand(cmd string) {
	go t.executeCommand(cmd)
}

// executeCommand runs one command line and refreshes every panel.
// Exported indirectly via handleCommand/dispatchCommand; kept
// unexported itself since it's always reached through a goroutine.
func (t *TUI) executeCommand(cmd string) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "help":
		t.WriteOutput("commands: run [calldata] [callvalue] | goto <offset> | functions | edges | quit\n")
	case "goto":
		if len(fields) < 2 {
			t.WriteOutput("goto requires an offset\n")
			break
		}
		var offset int
		if _, err := fmt.Sscanf(fields[1], "0x%x", &offset); err != nil {
			if _, err := fmt.Sscanf(fields[1], "%d", &offset); err != nil {
				t.WriteOutput(fmt.Sprintf("invalid offset %q\n", fields[1]))
				break
			}
		}
		t.mu.Lock()
		t.currentOffset = offset
		t.mu.Unlock()
	case "run":
		t.runCommand(fields[1:])
	case "functions", "edges":
		// no-op: panels always reflect current graph state
	case "quit":
		t.App.Stop()
		return
	default:
		t.WriteOutput(fmt.Sprintf("unknown command: %s\n", fields[0]))
	}

	t.RefreshAll()
}

func (t *TUI) runCommand(args []string) {
	var calldataHex, callValueHex string
	if len(args) > 0 {
		calldataHex = args[0]
	}
	if len(args) > 1 {
		callValueHex = args[1]
	}

	ci, err := parseInlineCallInfo(calldataHex, callValueHex)
	if err != nil {
		t.WriteOutput(fmt.Sprintf("run: %v\n", err))
		return
	}

	t.mu.Lock()
	state := vmstate.NewWithStorage(t.storage)
	result := cfg.BuildDynamicWithState(t.Graph, ci, state)
	t.lastResult = result
	t.storage = state.Storage
	t.mu.Unlock()

	t.WriteOutput(fmt.Sprintf("run: halted with %s\n", result.HaltKind))
}

func parseInlineCallInfo(calldataHex, callValueHex string) (*vmstate.CallInfo, error) {
	if calldataHex == "" && callValueHex == "" {
		return loader.DefaultCallInfo(), nil
	}

	calldata, err := hexBytes(calldataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid calldata: %w", err)
	}

	callValue := big.NewInt(0)
	if callValueHex != "" {
		v, ok := new(big.Int).SetString(strings.TrimPrefix(callValueHex, "0x"), 16)
		if !ok {
			return nil, fmt.Errorf("invalid call value %q", callValueHex)
		}
		callValue = v
	}

	return &vmstate.CallInfo{Calldata: calldata, CallValue: callValue}, nil
}

func hexBytes(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(trimmed) == 0 {
		return nil, nil
	}
	return hex.DecodeString(trimmed)
}

// WriteOutput appends text to the output panel.
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
	if t.App != nil {
		t.App.Draw()
	}
}

// RefreshAll redraws every panel from current state.
func (t *TUI) RefreshAll() {
	t.updateDisassemblyView()
	t.updateFunctionsView()
	t.updateEdgesView()
	t.updateStackView()
	t.updateStorageView()
	if t.App != nil {
		t.App.Draw()
	}
}

func (t *TUI) updateDisassemblyView() {
	t.mu.Lock()
	offset := t.currentOffset
	t.mu.Unlock()

	insts := t.Graph.Program.Instructions
	idx, ok := t.Graph.Program.IndexAt(offset)
	if !ok {
		idx = 0
	}

	var lines []string
	for i := idx; i < len(insts) && i < idx+24; i++ {
		inst := insts[i]
		marker := "  "
		color := "white"
		if inst.Offset == offset {
			marker = "->"
			color = "yellow"
		}
		if inst.IsJumpdest() {
			color = "green"
		}
		lines = append(lines, fmt.Sprintf("[%s]%s %s[white]", color, marker, inst.String()))
	}
	t.DisassemblyView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateFunctionsView() {
	var lines []string
	for _, f := range t.Graph.SortedFunctions() {
		if f.IsDispatcher {
			lines = append(lines, fmt.Sprintf("0x%04x: %s", f.EntryOffset, f.Name))
			continue
		}
		name := f.Name
		if f.PreferredName != "" {
			name = f.PreferredName
		}
		lines = append(lines, fmt.Sprintf("0x%04x: %s (selector 0x%08x)", f.EntryOffset, name, f.Selector))
	}
	t.FunctionsView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateEdgesView() {
	var lines []string
	for _, e := range t.Graph.Edges {
		lines = append(lines, fmt.Sprintf("0x%04x -> 0x%04x  %s", e.FromOffset, e.ToOffset, e.Kind))
	}
	t.EdgesView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateStackView() {
	t.mu.Lock()
	result := t.lastResult
	t.mu.Unlock()

	if result == nil {
		t.StackView.SetText("[yellow]no run yet[white]")
		return
	}

	var lines []string
	for _, v := range result.State.ConcreteStack() {
		lines = append(lines, fmt.Sprintf("0x%x", v))
	}
	t.StackView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateStorageView() {
	t.mu.Lock()
	result := t.lastResult
	t.mu.Unlock()

	if result == nil {
		t.StorageView.SetText("[yellow]no run yet[white]")
		return
	}

	var lines []string
	for k, v := range result.State.Storage.Snapshot() {
		lines = append(lines, fmt.Sprintf("%s: 0x%x", k, v))
	}
	t.StorageView.SetText(strings.Join(lines, "\n"))
}

// Run starts the TUI application.
func (t *TUI) Run() error {
	t.RefreshAll()
	t.WriteOutput("[green]evmcfg control-flow browser[white]\n")
	t.WriteOutput("Press F1 for help, F5 to run with no calldata, Ctrl-C to quit\n\n")
	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop stops the TUI application.
func (t *TUI) Stop() { t.App.Stop() }
