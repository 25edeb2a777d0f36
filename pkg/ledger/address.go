package ledger

import "strings"

const (
	// AddressBytes is the length of an account address in bytes
	AddressBytes = 20

	// AddressHexLen is the number of hex characters after the 0x prefix
	AddressHexLen = AddressBytes * 2
)

// IsAddress reports whether s looks like a well-formed account address:
// 0x prefix followed by exactly 40 hex characters. The service remains the
// authority on validity; this is only used to annotate diagnostics.
func IsAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	hex := s[2:]
	if len(hex) != AddressHexLen {
		return false
	}
	for i := 0; i < len(hex); i++ {
		c := hex[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ShortAddress abbreviates an address to its first 8 characters for display.
func ShortAddress(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8] + "..."
}
