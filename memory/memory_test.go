package memory

import (
	"math/big"
	"testing"
)

func TestMLoadZeroFillOnNeverWritten(t *testing.T) {
	m := New()
	v, err := m.MLoad(0)
	if err != nil {
		t.Fatalf("MLoad: %v", err)
	}
	if v.Sign() != 0 {
		t.Errorf("MLoad on never-written memory = %s, want 0", v)
	}
}

func TestMStoreMLoadRoundTrip(t *testing.T) {
	m := New()
	want := big.NewInt(0x42)
	if err := m.MStore(0, want); err != nil {
		t.Fatalf("MStore: %v", err)
	}
	got, err := m.MLoad(0)
	if err != nil {
		t.Fatalf("MLoad: %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("MLoad after MStore = %s, want %s", got, want)
	}
}

func TestMStore8(t *testing.T) {
	m := New()
	if err := m.MStore8(5, 0xab); err != nil {
		t.Fatalf("MStore8: %v", err)
	}
	b, err := m.ReadRange(5, 1)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if b[0] != 0xab {
		t.Errorf("byte at 5 = %#x, want 0xab", b[0])
	}
}

func TestReadRangeZeroFillsPastEnd(t *testing.T) {
	m := New()
	b, err := m.ReadRange(100, 4)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	for _, by := range b {
		if by != 0 {
			t.Fatalf("ReadRange past end should be zero, got %v", b)
		}
	}
}

func TestExtendRespectsCeiling(t *testing.T) {
	m := NewWithCeiling(64)
	_, err := m.MLoad(1000)
	if err == nil {
		t.Fatal("expected ErrLimitExceeded, got nil")
	}
	if _, ok := err.(*ErrLimitExceeded); !ok {
		t.Errorf("expected *ErrLimitExceeded, got %T", err)
	}
}

func TestWriteBytes(t *testing.T) {
	m := New()
	if err := m.WriteBytes(10, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	got, err := m.ReadRange(10, 3)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	want := []byte{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ReadRange = %v, want %v", got, want)
		}
	}
}
