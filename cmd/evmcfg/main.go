// Command evmcfg is the CLI front-end: disassemble bytecode, reconstruct
// its static/dynamic CFG, run one emulation pass, serve the HTTP/WebSocket
// API, or browse a contract interactively in the TUI. Grounded on the
// teacher's root main.go: stdlib flag sets, a first-positional-arg mode
// switch, and the same graceful-shutdown wiring for the serve mode.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/evmcfg/evmcfg/api"
	"github.com/evmcfg/evmcfg/cfg"
	"github.com/evmcfg/evmcfg/config"
	"github.com/evmcfg/evmcfg/disasm"
	"github.com/evmcfg/evmcfg/loader"
	"github.com/evmcfg/evmcfg/signature"
	"github.com/evmcfg/evmcfg/tui"
	"github.com/evmcfg/evmcfg/vmstate"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "-help", "--help", "help":
		printHelp()
		os.Exit(0)
	case "-version", "--version", "version":
		fmt.Printf("evmcfg %s (%s)\n", Version, Commit)
		os.Exit(0)
	case "disasm":
		runDisasm(os.Args[2:])
	case "cfg":
		runCFG(os.Args[2:])
	case "run":
		runDynamic(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "tui":
		runTUI(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func loadSigs(path string) signature.Lookup {
	if path == "" {
		return signature.Empty()
	}
	sigs, err := signature.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading signatures file %s: %v\n", path, err)
		os.Exit(1)
	}
	return sigs
}

func loadProgram(bytecodePath string) *disasm.Program {
	hexBytecode, err := loader.LoadBytecode(bytecodePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	program, err := disasm.Disassemble(hexBytecode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: disassembling %s: %v\n", bytecodePath, err)
		os.Exit(1)
	}
	return program
}

func runDisasm(args []string) {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: evmcfg disasm <bytecode-file>")
		os.Exit(1)
	}

	program := loadProgram(fs.Arg(0))
	for _, inst := range program.Instructions {
		fmt.Println(inst.String())
	}
}

func runCFG(args []string) {
	fs := flag.NewFlagSet("cfg", flag.ExitOnError)
	sigsFile := fs.String("sigs", "", "Signature file (selector -> name JSON)")
	fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: evmcfg cfg [-sigs file] <bytecode-file>")
		os.Exit(1)
	}

	program := loadProgram(fs.Arg(0))
	graph := cfg.BuildStatic(program, loadSigs(*sigsFile))

	fmt.Printf("Blocks: %d\n", len(graph.Blocks))
	for _, b := range graph.Blocks {
		fmt.Printf("  [0x%04x, 0x%04x) %d instructions\n", b.StartOffset, b.EndOffset, len(b.Instructions))
	}

	fmt.Printf("Functions: %d\n", len(graph.Functions))
	for _, f := range graph.SortedFunctions() {
		if f.IsDispatcher {
			fmt.Printf("  0x%04x Dispatcher\n", f.EntryOffset)
			continue
		}
		name := f.Name
		if f.PreferredName != "" {
			name = f.PreferredName
		}
		fmt.Printf("  0x%04x %s (selector 0x%08x)\n", f.EntryOffset, name, f.Selector)
	}
}

func runDynamic(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	sigsFile := fs.String("sigs", "", "Signature file (selector -> name JSON)")
	callInfoFile := fs.String("callinfo", "", "JSON call context file (calldata + call_value)")
	fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: evmcfg run [-sigs file] [-callinfo file] <bytecode-file>")
		os.Exit(1)
	}

	program := loadProgram(fs.Arg(0))
	graph := cfg.BuildStatic(program, loadSigs(*sigsFile))

	var callinfo *vmstate.CallInfo
	if *callInfoFile != "" {
		ci, err := loader.LoadCallInfo(*callInfoFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		callinfo = ci
	} else {
		callinfo = loader.DefaultCallInfo()
	}

	result := cfg.BuildDynamic(graph, callinfo)

	fmt.Printf("Halt: %s\n", result.HaltKind)
	if result.Err != nil {
		fmt.Printf("Error: %v\n", result.Err)
	}
	fmt.Printf("Steps: %d\n", len(result.Trace))
	fmt.Printf("New edges: %d\n", len(result.Edges))
	for _, e := range result.Edges {
		fmt.Printf("  0x%04x -> 0x%04x (%s)\n", e.FromOffset, e.ToOffset, e.Kind)
	}
}

func runTUI(args []string) {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	sigsFile := fs.String("sigs", "", "Signature file (selector -> name JSON)")
	fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: evmcfg tui [-sigs file] <bytecode-file>")
		os.Exit(1)
	}

	program := loadProgram(fs.Arg(0))
	graph := cfg.BuildStatic(program, loadSigs(*sigsFile))

	t := tui.NewTUI(graph)
	if err := t.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: tui: %v\n", err)
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 8080, "API server port")
	configFile := fs.String("config", "", "Config file path (default: platform config dir)")
	fs.Parse(args)

	var cfgVal *config.Config
	if *configFile != "" {
		c, err := config.LoadFrom(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading config %s: %v\n", *configFile, err)
			os.Exit(1)
		}
		cfgVal = c
	} else {
		c, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
			os.Exit(1)
		}
		cfgVal = c
	}

	server := api.NewServer(*port, cfgVal)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down API server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("API server stopped")
			os.Exit(0)
		})
	}

	monitor := api.NewProcessMonitor(performShutdown)
	monitor.Start()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	fmt.Printf("evmcfg API server listening on 127.0.0.1:%d\n", *port)
	<-sigChan
	performShutdown()
}

func printHelp() {
	fmt.Printf(`evmcfg %s

Usage: evmcfg <command> [options] [arguments]

Commands:
  disasm <bytecode-file>                  Print a linear disassembly listing
  cfg [-sigs file] <bytecode-file>        Print reconstructed static CFG (blocks, functions)
  run [-sigs file] [-callinfo file] <bytecode-file>
                                           Run one dynamic emulation pass and print the trace summary
  tui [-sigs file] <bytecode-file>        Browse a contract's CFG interactively
  serve [-port N] [-config file]          Start the HTTP/WebSocket API server

Global:
  -help, help        Show this help message
  -version, version  Show version information

<bytecode-file> holds hex-encoded bytecode, optionally 0x-prefixed.
<callinfo-file> is JSON: {"calldata": "0x...", "call_value": "0x..."}.
`, Version)
}
