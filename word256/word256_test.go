package word256

import (
	"math/big"
	"testing"
)

func big256(hex string) *big.Int {
	v, ok := new(big.Int).SetString(hex, 0)
	if !ok {
		panic("bad literal: " + hex)
	}
	return Mod(v)
}

func TestAddWraparound(t *testing.T) {
	// PUSH1 1; PUSH32 2^256-1; ADD -> 0
	max := Sub(Zero(), big.NewInt(1))
	got := Add(big.NewInt(1), max)
	if got.Sign() != 0 {
		t.Errorf("Add wraparound = %s, want 0", got)
	}
}

func TestArithmeticScenarioS1(t *testing.T) {
	// PUSH1 3; PUSH1 5; ADD -> 8
	got := Add(big.NewInt(5), big.NewInt(3))
	if got.Cmp(big.NewInt(8)) != 0 {
		t.Errorf("Add(5,3) = %s, want 8", got)
	}
}

func TestDivByZero(t *testing.T) {
	if got := Div(big.NewInt(10), Zero()); got.Sign() != 0 {
		t.Errorf("Div by zero = %s, want 0", got)
	}
	if got := Rem(big.NewInt(10), Zero()); got.Sign() != 0 {
		t.Errorf("Rem by zero = %s, want 0", got)
	}
}

func TestSDivByZero(t *testing.T) {
	if got := SDiv(big.NewInt(10), Zero()); got.Sign() != 0 {
		t.Errorf("SDiv by zero = %s, want 0", got)
	}
}

func TestSDivMinByMinusOne(t *testing.T) {
	// -2^255 / -1 == -2^255 (does not overflow into 2^255)
	minVal := FromSigned(new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255)))
	minusOne := FromSigned(big.NewInt(-1))

	got := SDiv(minVal, minusOne)
	if got.Cmp(minVal) != 0 {
		t.Errorf("SDiv(minInt, -1) = %s, want %s", got, minVal)
	}
}

func TestAddModMulModZeroModulus(t *testing.T) {
	if got := AddMod(big.NewInt(3), big.NewInt(4), Zero()); got.Sign() != 0 {
		t.Errorf("AddMod with m=0 = %s, want 0", got)
	}
	if got := MulMod(big.NewInt(3), big.NewInt(4), Zero()); got.Sign() != 0 {
		t.Errorf("MulMod with m=0 = %s, want 0", got)
	}
}

func TestSignExtendNoOpAboveThreshold(t *testing.T) {
	x := big.NewInt(0x7f)
	got := SignExtend(big.NewInt(31), x)
	if got.Cmp(Mod(x)) != 0 {
		t.Errorf("SignExtend(31, x) = %s, want unchanged %s", got, x)
	}
}

func TestSignExtendNegativeByte(t *testing.T) {
	// byte 0 is 0xff -> sign-extends to all-ones
	got := SignExtend(Zero(), big.NewInt(0xff))
	want := Sub(Zero(), big.NewInt(1))
	if got.Cmp(want) != 0 {
		t.Errorf("SignExtend(0, 0xff) = %x, want %x", got, want)
	}
}

func TestByteOutOfRange(t *testing.T) {
	if got := Byte(big.NewInt(32), big.NewInt(0xdead)); got.Sign() != 0 {
		t.Errorf("Byte(32, x) = %s, want 0", got)
	}
}

func TestComparisons(t *testing.T) {
	if Lt(big.NewInt(1), big.NewInt(2)).Cmp(big.NewInt(1)) != 0 {
		t.Error("Lt(1,2) should be 1")
	}
	if Gt(big.NewInt(2), big.NewInt(1)).Cmp(big.NewInt(1)) != 0 {
		t.Error("Gt(2,1) should be 1")
	}
	if IsZero(Zero()).Cmp(big.NewInt(1)) != 0 {
		t.Error("IsZero(0) should be 1")
	}
}

func TestSignedComparisonDiffersFromUnsigned(t *testing.T) {
	negOne := FromSigned(big.NewInt(-1))
	one := big.NewInt(1)

	// Unsigned: negOne (2^256-1) is far greater than 1.
	if Lt(negOne, one).Sign() != 0 {
		t.Error("unsigned Lt(-1 as uint, 1) should be 0")
	}
	// Signed: -1 < 1.
	if Slt(negOne, one).Cmp(big.NewInt(1)) != 0 {
		t.Error("signed Slt(-1, 1) should be 1")
	}
}

func TestBytes32RoundTrip(t *testing.T) {
	x := big256("0xdeadbeef")
	b := Bytes32(x)
	got := FromBytes(b[:])
	if got.Cmp(x) != 0 {
		t.Errorf("Bytes32 round-trip = %s, want %s", got, x)
	}
}
