package core

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseAddress decodes a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(trimmed) != 40 {
		return addr, fmt.Errorf("address must be 20 bytes of hex, got %q", s)
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("decode address %q: %w", s, err)
	}
	copy(addr[:], decoded)
	return addr, nil
}

// FormatAddress renders an address as 0x-prefixed lowercase hex.
func FormatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}
