package signature

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAndLookup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigs.json")
	content := `{"0xaabbccdd": "transfer(address,uint256)"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	name, ok := m.Lookup(0xaabbccdd)
	if !ok || name != "transfer(address,uint256)" {
		t.Fatalf("Lookup(0xaabbccdd) = (%q, %v), want (\"transfer(address,uint256)\", true)", name, ok)
	}
	if _, ok := m.Lookup(0x11111111); ok {
		t.Error("Lookup of an unknown selector should miss")
	}
}

func TestLoadMalformedKeyFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigs.json")
	if err := os.WriteFile(path, []byte(`{"not-hex": "x"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load with a malformed selector key should fail")
	}
}

func TestEmptyAlwaysMisses(t *testing.T) {
	m := Empty()
	if _, ok := m.Lookup(0xaabbccdd); ok {
		t.Error("Empty().Lookup should always miss")
	}
}
