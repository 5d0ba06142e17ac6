// Package loader reads a contract's bytecode and its optional call
// context from disk: read once at startup, fail loudly on malformed
// input.
package loader

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/evmcfg/evmcfg/vmstate"
)

// callContextFile mirrors the on-disk JSON shape for call context:
// hex calldata and a decimal or hex call value.
type callContextFile struct {
	Calldata  string `json:"calldata"`
	CallValue string `json:"call_value"`
}

// LoadBytecode reads a file containing hex-encoded bytecode (optionally
// 0x-prefixed, optionally with surrounding whitespace) and returns the
// raw hex string, ready for disasm.Disassemble.
func LoadBytecode(path string) (string, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- user-supplied bytecode file
	if err != nil {
		return "", fmt.Errorf("loader: reading bytecode file %s: %w", path, err)
	}
	s := strings.TrimSpace(string(raw))
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(trimmed)%2 != 0 {
		return "", fmt.Errorf("loader: bytecode file %s has odd-length hex content", path)
	}
	if _, err := hex.DecodeString(trimmed); err != nil {
		return "", fmt.Errorf("loader: bytecode file %s is not valid hex: %w", path, err)
	}
	return s, nil
}

// LoadCallInfo reads a JSON call-context file and returns the
// vmstate.CallInfo it describes. A missing calldata field means empty
// calldata; a missing call_value field means zero value.
func LoadCallInfo(path string) (*vmstate.CallInfo, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- user-supplied call context file
	if err != nil {
		return nil, fmt.Errorf("loader: reading call context file %s: %w", path, err)
	}

	var cf callContextFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("loader: parsing call context file %s: %w", path, err)
	}

	calldata, err := decodeHexField(cf.Calldata)
	if err != nil {
		return nil, fmt.Errorf("loader: call context %s: calldata: %w", path, err)
	}

	callValue := big.NewInt(0)
	if cf.CallValue != "" {
		v, ok := parseCallValue(cf.CallValue)
		if !ok {
			return nil, fmt.Errorf("loader: call context %s: invalid call_value %q", path, cf.CallValue)
		}
		callValue = v
	}

	return &vmstate.CallInfo{Calldata: calldata, CallValue: callValue}, nil
}

// DefaultCallInfo returns an empty-calldata, zero-value CallInfo, used
// when no call context file is supplied.
func DefaultCallInfo() *vmstate.CallInfo {
	return &vmstate.CallInfo{Calldata: nil, CallValue: big.NewInt(0)}
}

func decodeHexField(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(trimmed)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	return hex.DecodeString(trimmed)
}

func parseCallValue(s string) (*big.Int, bool) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	base := 10
	if trimmed != s {
		base = 16
	}
	v, ok := new(big.Int).SetString(trimmed, base)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}
