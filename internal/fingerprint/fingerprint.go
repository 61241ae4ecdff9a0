// Package fingerprint computes stable content digests used to compare byte
// payloads across storage backends without transferring both in full.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Prefix identifies the digest algorithm in rendered fingerprints.
const Prefix = "sha256:"

// Sum returns the SHA-256 digest of data rendered as "sha256:<hex>".
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return Prefix + hex.EncodeToString(h[:])
}

// Equal reports whether two rendered fingerprints denote the same content.
// Empty fingerprints never match anything, including each other.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b
}

// Valid reports whether s looks like a fingerprint produced by Sum.
func Valid(s string) bool {
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	raw := s[len(Prefix):]
	if len(raw) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(raw)
	return err == nil
}
