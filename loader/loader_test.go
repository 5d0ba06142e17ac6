package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBytecodeTrimsPrefixAndWhitespace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bytecode.hex")
	require.NoError(t, os.WriteFile(path, []byte("  0x600456005b00\n"), 0o644))

	s, err := LoadBytecode(path)
	require.NoError(t, err)
	assert.Equal(t, "0x600456005b00", s)
}

func TestLoadBytecodeRejectsOddLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bytecode.hex")
	require.NoError(t, os.WriteFile(path, []byte("0x600"), 0o644))

	_, err := LoadBytecode(path)
	assert.Error(t, err, "expected error for odd-length hex")
}

func TestLoadBytecodeRejectsNonHex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bytecode.hex")
	require.NoError(t, os.WriteFile(path, []byte("0xzz"), 0o644))

	_, err := LoadBytecode(path)
	assert.Error(t, err, "expected error for non-hex content")
}

func TestLoadCallInfoParsesCalldataAndValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "call.json")
	content := `{"calldata": "0xaabbccdd", "call_value": "0x10"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ci, err := LoadCallInfo(path)
	require.NoError(t, err)
	require.Len(t, ci.Calldata, 4)
	assert.Equal(t, byte(0xaa), ci.Calldata[0])
	assert.Equal(t, int64(16), ci.CallValue.Int64())
}

func TestLoadCallInfoParsesDecimalValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "call.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"call_value": "42"}`), 0o644))

	ci, err := LoadCallInfo(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ci.CallValue.Int64())
	assert.Empty(t, ci.Calldata)
}

func TestLoadCallInfoRejectsMalformedValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "call.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"call_value": "not-a-number"}`), 0o644))

	_, err := LoadCallInfo(path)
	assert.Error(t, err, "expected error for malformed call_value")
}

func TestDefaultCallInfoIsEmptyAndZero(t *testing.T) {
	ci := DefaultCallInfo()
	assert.Empty(t, ci.Calldata)
	assert.Zero(t, ci.CallValue.Sign())
}
