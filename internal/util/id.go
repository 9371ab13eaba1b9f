package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewToken returns a random hex string used as an opaque session token.
func NewToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
