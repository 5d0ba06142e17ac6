// Package ssa implements the SSA value DAG that names the provenance
// of every stack slot produced during emulation, and the bottom-up
// constant evaluator used to resolve indirect jump targets. The
// recursive-descent shape of the evaluator mirrors a debugger's
// expression evaluator resolving watch expressions: walk a tree, fail
// gracefully on a leaf that cannot be reduced to a literal.
package ssa

import "math/big"

// Kind tags which of the three SSA value variants a Value holds.
type Kind int

const (
	// Constant carries a literal 256-bit value, produced by PUSH.
	Constant Kind = iota
	// Computed carries a unique assignment index, the producing
	// mnemonic, and its ordered operand list.
	Computed
	// Input marks an abstract input to the program (e.g.
	// CALLDATALOAD, ADDRESS) whose value is not known statically.
	Input
)

// Value is a node in the SSA DAG. The DAG is acyclic by construction:
// Computed assignment indices strictly increase, so a node can never
// reference a node created after it.
type Value struct {
	Kind     Kind
	Literal  *big.Int // valid when Kind == Constant
	Assign   int       // valid when Kind == Computed; globally unique, monotonically increasing
	Mnemonic string    // valid when Kind == Computed or Kind == Input
	Args     []*Value  // operands, in opcode-defined order
}

// NewConstant returns a Constant SSA value.
func NewConstant(v *big.Int) *Value {
	return &Value{Kind: Constant, Literal: v}
}

// NewInput returns an Input (function sentinel) SSA value for an
// opcode the emulator treats as an abstract input (environmental
// opcodes other than CALLDATASIZE/CALLVALUE/CODESIZE, block-info
// opcodes, GAS, and the CREATE/CALL family results).
func NewInput(mnemonic string) *Value {
	return &Value{Kind: Input, Mnemonic: mnemonic}
}

// Counter issues strictly increasing assignment indices for Computed
// nodes, keeping the DAG acyclic by construction. The zero value is
// ready to use.
type Counter struct {
	next int
}

// NewComputed allocates a Computed SSA value with the next assignment
// index from c.
func (c *Counter) NewComputed(mnemonic string, args ...*Value) *Value {
	v := &Value{Kind: Computed, Assign: c.next, Mnemonic: mnemonic, Args: args}
	c.next++
	return v
}

// Format renders v as a human-readable expression string, e.g.
// "ADD(Constant 5, Constant 3)", for diagnostics on jump-resolution
// errors.
func (v *Value) Format() string {
	switch v.Kind {
	case Constant:
		return "Constant " + v.Literal.String()
	case Input:
		return v.Mnemonic
	default:
		s := v.Mnemonic + "("
		for i, a := range v.Args {
			if i > 0 {
				s += ", "
			}
			s += a.Format()
		}
		return s + ")"
	}
}

// pureEvaluable lists the mnemonics the constant-folding evaluator
// below is willing to step through on its way down to the leaves.
// Everything else (most importantly any Input node) stops the walk.
var pureEvaluable = map[string]func(args []*big.Int) *big.Int{}

// Register installs an evaluation function for a Computed mnemonic.
// Called once at program start by package emulator, which owns the
// word256 arithmetic semantics; keeping the table here (rather than
// importing word256 from this package) avoids ssa depending on the
// opcode semantics it is merely asked to fold.
func Register(mnemonic string, fn func(args []*big.Int) *big.Int) {
	pureEvaluable[mnemonic] = fn
}

// Resolve attempts to evaluate v to a single constant by walking the
// DAG bottom-up. It succeeds only when every leaf reached is a
// Constant and every internal node along the way has a registered
// pure evaluator — i.e. the subtree consists entirely of Constant
// leaves and pure arithmetic/bitwise/comparison ops. Input nodes, and
// any Computed node without a registered evaluator, make resolution
// fail.
func Resolve(v *Value) (*big.Int, bool) {
	switch v.Kind {
	case Constant:
		return v.Literal, true
	case Input:
		return nil, false
	case Computed:
		fn, ok := pureEvaluable[v.Mnemonic]
		if !ok {
			return nil, false
		}
		args := make([]*big.Int, len(v.Args))
		for i, a := range v.Args {
			resolved, ok := Resolve(a)
			if !ok {
				return nil, false
			}
			args[i] = resolved
		}
		return fn(args), true
	default:
		return nil, false
	}
}
