package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateOpaqueToken returns a 64-character hex token from 32 random bytes.
// Used for single-use re-opt-in confirmation links.
func GenerateOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
