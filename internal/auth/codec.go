package auth

import (
	"encoding/base64"
	"strings"
)

// EncodeSegment returns the URL-safe, unpadded base64 form of b.
func EncodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeSegment reverses EncodeSegment. Padded input is accepted.
func DecodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
