// Package word256 implements unsigned 256-bit modular arithmetic over
// math/big, the way a stack-based 256-bit VM's ALU needs it: every
// result wraps silently at 2^256, division and modulus by zero yield
// zero rather than a panic, and signed operations reinterpret the wire
// value as two's-complement only at the operation boundary.
package word256

import "math/big"

// Bits is the word width of the virtual machine's arithmetic.
const Bits = 256

var (
	// mod is 2^256, the modulus every arithmetic result wraps against.
	mod = new(big.Int).Lsh(big.NewInt(1), Bits)
	// signBit is 2^255, used to detect the two's-complement sign.
	signBit = new(big.Int).Lsh(big.NewInt(1), Bits-1)
)

// Zero returns a fresh zero-valued word. Never share the result between
// callers that might mutate it in place via math/big methods.
func Zero() *big.Int { return new(big.Int) }

// FromUint64 returns v widened to a 256-bit word.
func FromUint64(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

// FromBytes interprets b as a big-endian unsigned integer, reduced mod 2^256.
func FromBytes(b []byte) *big.Int {
	return Mod(new(big.Int).SetBytes(b))
}

// Bytes32 renders x as a big-endian 32-byte array, the stack/memory
// word encoding.
func Bytes32(x *big.Int) [32]byte {
	var out [32]byte
	reduced := Mod(x).Bytes()
	copy(out[32-len(reduced):], reduced)
	return out
}

// Mod reduces x into [0, 2^256) without mutating x.
func Mod(x *big.Int) *big.Int {
	r := new(big.Int).Mod(x, mod)
	if r.Sign() < 0 {
		r.Add(r, mod)
	}
	return r
}

// Add returns (x+y) mod 2^256.
func Add(x, y *big.Int) *big.Int {
	return Mod(new(big.Int).Add(x, y))
}

// Sub returns (x-y) mod 2^256.
func Sub(x, y *big.Int) *big.Int {
	return Mod(new(big.Int).Sub(x, y))
}

// Mul returns (x*y) mod 2^256.
func Mul(x, y *big.Int) *big.Int {
	return Mod(new(big.Int).Mul(x, y))
}

// Div returns x/y truncating toward zero; division by zero yields zero.
func Div(x, y *big.Int) *big.Int {
	if y.Sign() == 0 {
		return Zero()
	}
	return Mod(new(big.Int).Quo(x, y))
}

// Rem returns x%y; modulus by zero yields zero.
func Rem(x, y *big.Int) *big.Int {
	if y.Sign() == 0 {
		return Zero()
	}
	return Mod(new(big.Int).Rem(x, y))
}

// ToSigned reinterprets an unsigned word as its two's-complement signed value.
func ToSigned(x *big.Int) *big.Int {
	u := Mod(x)
	if u.Cmp(signBit) >= 0 {
		return new(big.Int).Sub(u, mod)
	}
	return new(big.Int).Set(u)
}

// FromSigned reduces a (possibly negative) signed value back to its
// unsigned 2^256-wide wire representation.
func FromSigned(x *big.Int) *big.Int {
	return Mod(x)
}

// SDiv performs two's-complement signed division; division by zero
// yields zero. -2^255 / -1 yields -2^255 (the one case where the
// magnitude of the mathematical result does not fit back in range,
// so it wraps to itself rather than overflowing).
func SDiv(x, y *big.Int) *big.Int {
	sy := ToSigned(y)
	if sy.Sign() == 0 {
		return Zero()
	}
	sx := ToSigned(x)
	q := new(big.Int).Quo(sx, sy)
	return FromSigned(q)
}

// SMod performs two's-complement signed modulus; modulus by zero yields
// zero. The result carries the sign of the dividend, matching Go's Rem.
func SMod(x, y *big.Int) *big.Int {
	sy := ToSigned(y)
	if sy.Sign() == 0 {
		return Zero()
	}
	sx := ToSigned(x)
	r := new(big.Int).Rem(sx, sy)
	return FromSigned(r)
}

// AddMod returns (x+y) mod m, computed at full width before the final
// reduction; m == 0 yields zero.
func AddMod(x, y, m *big.Int) *big.Int {
	if m.Sign() == 0 {
		return Zero()
	}
	sum := new(big.Int).Add(x, y)
	return Mod(new(big.Int).Mod(sum, m))
}

// MulMod returns (x*y) mod m, computed at full width before the final
// reduction; m == 0 yields zero.
func MulMod(x, y, m *big.Int) *big.Int {
	if m.Sign() == 0 {
		return Zero()
	}
	prod := new(big.Int).Mul(x, y)
	return Mod(new(big.Int).Mod(prod, m))
}

// Exp computes b^e mod 2^256 by repeated squaring.
func Exp(b, e *big.Int) *big.Int {
	return Mod(new(big.Int).Exp(b, e, mod))
}

// SignExtend sign-extends the byte at position k (0 = least-significant
// byte) of x out to the full 256 bits. k >= 31 leaves x unchanged.
func SignExtend(k, x *big.Int) *big.Int {
	if !k.IsUint64() || k.Uint64() >= 31 {
		return Mod(x)
	}
	kk := k.Uint64()
	b := Bytes32(x)
	signByteIdx := 31 - int(kk)
	signed := b[signByteIdx]&0x80 != 0
	out := make([]byte, 32)
	for i := 0; i < signByteIdx; i++ {
		if signed {
			out[i] = 0xff
		}
	}
	copy(out[signByteIdx:], b[signByteIdx:])
	return FromBytes(out)
}

// Lt returns 1 if x < y (unsigned), else 0.
func Lt(x, y *big.Int) *big.Int { return boolWord(Mod(x).Cmp(Mod(y)) < 0) }

// Gt returns 1 if x > y (unsigned), else 0.
func Gt(x, y *big.Int) *big.Int { return boolWord(Mod(x).Cmp(Mod(y)) > 0) }

// Slt returns 1 if x < y under two's-complement signed comparison, else 0.
func Slt(x, y *big.Int) *big.Int { return boolWord(ToSigned(x).Cmp(ToSigned(y)) < 0) }

// Sgt returns 1 if x > y under two's-complement signed comparison, else 0.
func Sgt(x, y *big.Int) *big.Int { return boolWord(ToSigned(x).Cmp(ToSigned(y)) > 0) }

// Eq returns 1 if x == y, else 0.
func Eq(x, y *big.Int) *big.Int { return boolWord(Mod(x).Cmp(Mod(y)) == 0) }

// IsZero returns 1 if x == 0, else 0.
func IsZero(x *big.Int) *big.Int { return boolWord(Mod(x).Sign() == 0) }

// And returns the bitwise AND of x and y.
func And(x, y *big.Int) *big.Int { return Mod(new(big.Int).And(x, y)) }

// Or returns the bitwise OR of x and y.
func Or(x, y *big.Int) *big.Int { return Mod(new(big.Int).Or(x, y)) }

// Xor returns the bitwise XOR of x and y.
func Xor(x, y *big.Int) *big.Int { return Mod(new(big.Int).Xor(x, y)) }

// Not returns the bitwise complement of x within 256 bits.
func Not(x *big.Int) *big.Int {
	return Mod(new(big.Int).Xor(Mod(x), new(big.Int).Sub(mod, big.NewInt(1))))
}

// Byte returns the n-th most-significant byte of x as an integer in
// [0,255]; n >= 32 yields zero.
func Byte(n, x *big.Int) *big.Int {
	if !n.IsUint64() || n.Uint64() >= 32 {
		return Zero()
	}
	b := Bytes32(x)
	return FromUint64(uint64(b[n.Uint64()]))
}

func boolWord(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return Zero()
}
