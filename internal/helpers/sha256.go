package helpers

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256 returns the hex encoded SHA-256 digest of a string.
func SHA256(input string) string {
	return SHA256Bytes([]byte(input))
}

// SHA256Bytes returns the hex encoded SHA-256 digest of a byte slice.
func SHA256Bytes(input []byte) string {
	hash := sha256.Sum256(input)
	return hex.EncodeToString(hash[:])
}

// ShortHash returns the first n hex characters of the SHA-256 digest.
// A non-positive or oversized n returns the full digest.
func ShortHash(input string, n int) string {
	sum := SHA256(input)
	if n <= 0 || n >= len(sum) {
		return sum
	}
	return sum[:n]
}
