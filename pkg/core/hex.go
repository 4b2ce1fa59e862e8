package core

import (
	"encoding/hex"
	"strings"
)

// HexToBytes decodes a loosely formatted hex string. A 0x prefix and any
// non-hex characters are dropped and an odd digit count is left-padded with
// a zero nibble. When expectedLen > 0 the result is truncated or zero-padded
// to exactly that many bytes.
func HexToBytes(s string, expectedLen int) []byte {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	var digits strings.Builder
	for _, r := range s {
		if isHexDigit(r) {
			digits.WriteRune(r)
		}
	}
	clean := digits.String()
	if len(clean)%2 == 1 {
		clean = "0" + clean
	}
	out, err := hex.DecodeString(clean)
	if err != nil {
		out = nil
	}
	if expectedLen <= 0 || len(out) == expectedLen {
		return out
	}
	fixed := make([]byte, expectedLen)
	copy(fixed, out)
	return fixed
}

// BytesToHex renders b as upper-case hex without separators.
func BytesToHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
