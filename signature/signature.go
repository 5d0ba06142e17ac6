// Package signature implements an opaque mapping from hexadecimal
// selector strings to human-readable names; missing entries yield no
// preferred name. Reads the mapping once at startup, failing loudly on
// a malformed file, and carries the already-parsed state in a small
// struct rather than re-reading on every lookup.
package signature

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Lookup resolves a 4-byte function selector to a human-readable name.
type Lookup interface {
	Lookup(selector uint32) (name string, ok bool)
}

// Map is a JSON-file-backed Lookup: a flat object of
// "0xaabbccdd" -> "transfer(address,uint256)" entries.
type Map struct {
	byName map[uint32]string
}

// Empty returns a Map with no entries; every Lookup call misses.
func Empty() *Map { return &Map{byName: make(map[uint32]string)} }

// Load reads a JSON signature file from path. Keys are 4-byte hex
// selectors, with or without a 0x prefix; malformed keys are a load error.
func Load(path string) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("signature: reading %s: %w", path, err)
	}

	var entries map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("signature: parsing %s: %w", path, err)
	}

	m := &Map{byName: make(map[uint32]string, len(entries))}
	for key, name := range entries {
		sel, err := parseSelector(key)
		if err != nil {
			return nil, fmt.Errorf("signature: entry %q: %w", key, err)
		}
		m.byName[sel] = name
	}
	return m, nil
}

func parseSelector(key string) (uint32, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(key, "0x"), "0X")
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("not valid hex: %w", err)
	}
	if len(b) != 4 {
		return 0, fmt.Errorf("want 4 bytes, got %d", len(b))
	}
	var sel uint32
	for _, by := range b {
		sel = sel<<8 | uint32(by)
	}
	return sel, nil
}

// Lookup implements Lookup.
func (m *Map) Lookup(selector uint32) (string, bool) {
	name, ok := m.byName[selector]
	return name, ok
}

// Len reports how many entries are loaded.
func (m *Map) Len() int { return len(m.byName) }
