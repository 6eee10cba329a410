package nano

import (
	"encoding/hex"
	"fmt"
)

// SecretBytes is 32 bytes of secret material. Holders are expected to call
// Zero once the value is no longer needed.
type SecretBytes [32]byte

// SecretFromHex parses 64 hex characters into secret bytes.
func SecretFromHex(s string) (SecretBytes, error) {
	var out SecretBytes
	if len(s) != 64 {
		return out, fmt.Errorf("%w: wrong length", ErrInvalidSeed)
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return out, nil
}

// Hex renders the secret as lowercase hex.
func (s *SecretBytes) Hex() string {
	return hex.EncodeToString(s[:])
}

// Zero overwrites the secret with zeros.
func (s *SecretBytes) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// zero overwrites a byte slice with zeros.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
