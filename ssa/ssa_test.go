package ssa

import (
	"math/big"
	"testing"
)

func TestResolveConstant(t *testing.T) {
	v := NewConstant(big.NewInt(7))
	got, ok := Resolve(v)
	if !ok || got.Cmp(big.NewInt(7)) != 0 {
		t.Errorf("Resolve(Constant 7) = (%v, %v), want (7, true)", got, ok)
	}
}

func TestResolveInputFails(t *testing.T) {
	v := NewInput("CALLDATALOAD")
	if _, ok := Resolve(v); ok {
		t.Error("Resolve(Input) should fail")
	}
}

func TestResolveComputedOverConstants(t *testing.T) {
	Register("TESTADD", func(args []*big.Int) *big.Int {
		return new(big.Int).Add(args[0], args[1])
	})

	var c Counter
	node := c.NewComputed("TESTADD", NewConstant(big.NewInt(2)), NewConstant(big.NewInt(3)))

	got, ok := Resolve(node)
	if !ok || got.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("Resolve(TESTADD(2,3)) = (%v, %v), want (5, true)", got, ok)
	}
}

func TestResolveComputedWithInputOperandFails(t *testing.T) {
	Register("TESTADD", func(args []*big.Int) *big.Int {
		return new(big.Int).Add(args[0], args[1])
	})

	var c Counter
	node := c.NewComputed("TESTADD", NewConstant(big.NewInt(2)), NewInput("CALLER"))

	if _, ok := Resolve(node); ok {
		t.Error("Resolve should fail when a subtree contains an Input node")
	}
}

func TestCounterMonotonic(t *testing.T) {
	var c Counter
	a := c.NewComputed("ADD")
	b := c.NewComputed("SUB")
	if b.Assign <= a.Assign {
		t.Errorf("assignment indices not strictly increasing: %d then %d", a.Assign, b.Assign)
	}
}

func TestFormat(t *testing.T) {
	var c Counter
	node := c.NewComputed("ADD", NewConstant(big.NewInt(5)), NewConstant(big.NewInt(3)))
	got := node.Format()
	want := "ADD(Constant 5, Constant 3)"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}
