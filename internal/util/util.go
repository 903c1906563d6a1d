// Package util holds small helpers shared by the token handling code.
package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// SHA256Hex returns the hex encoded SHA256 digest of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))

	return hex.EncodeToString(sum[:])
}

// RandomHex reads n bytes from crypto/rand and hex encodes them, so the result has 2n characters.
func RandomHex(n int) (string, error) {
	if n <= 0 {
		return "", errors.Errorf("invalid random length %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return hex.EncodeToString(buf), nil
}
