package nano

import (
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// addressAlphabet is the base32 alphabet used by textual addresses. It omits
// characters that are easily confused (0, 2, l, v).
const addressAlphabet = "13456789abcdefghijkmnopqrstuwxyz"

var addressDigit [256]int8

func init() {
	for i := range addressDigit {
		addressDigit[i] = -1
	}
	for i := 0; i < len(addressAlphabet); i++ {
		addressDigit[addressAlphabet[i]] = int8(i)
	}
}

// encodeBase32 encodes data as exactly digits base32 characters, interpreting
// the bytes as one big-endian integer and padding on the left with the zero
// digit.
func encodeBase32(data []byte, digits int) string {
	n := new(big.Int).SetBytes(data)
	out := make([]byte, digits)
	rem := new(big.Int)
	base := big.NewInt(32)
	for i := digits - 1; i >= 0; i-- {
		n.QuoRem(n, base, rem)
		out[i] = addressAlphabet[rem.Int64()]
	}
	return string(out)
}

// decodeBase32 decodes a base32 string into size bytes. It fails if the
// string contains characters outside the alphabet or encodes a value wider
// than size bytes.
func decodeBase32(s string, size int) ([]byte, error) {
	n := new(big.Int)
	base := big.NewInt(32)
	for i := 0; i < len(s); i++ {
		d := addressDigit[s[i]]
		if d < 0 {
			return nil, ErrInvalidAddress
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(d)))
	}
	if n.BitLen() > size*8 {
		return nil, ErrInvalidAddress
	}
	out := make([]byte, size)
	n.FillBytes(out)
	return out, nil
}

// addressChecksum returns the 5-byte blake2b checksum of data, reversed, as
// appended to textual addresses.
func addressChecksum(data []byte) []byte {
	h, err := blake2b.New(5, nil)
	if err != nil {
		panic(err)
	}
	h.Write(data)
	sum := h.Sum(nil)
	for i, j := 0, len(sum)-1; i < j; i, j = i+1, j-1 {
		sum[i], sum[j] = sum[j], sum[i]
	}
	return sum
}

// encodeAddress renders prefix + base32(data) + base32(checksum).
func encodeAddress(prefix string, data []byte, digits int) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(encodeBase32(data, digits))
	b.WriteString(encodeBase32(addressChecksum(data), 8))
	return b.String()
}

// decodeAddress parses a textual address of the given prefix, payload size
// and payload digit count, verifying the trailing checksum.
func decodeAddress(s, prefix string, size, digits int) ([]byte, error) {
	if !strings.HasPrefix(s, prefix) || len(s) != len(prefix)+digits+8 {
		return nil, ErrInvalidAddress
	}
	body := s[len(prefix):]
	data, err := decodeBase32(body[:digits], size)
	if err != nil {
		return nil, err
	}
	sum, err := decodeBase32(body[digits:], 5)
	if err != nil {
		return nil, err
	}
	want := addressChecksum(data)
	for i := range want {
		if sum[i] != want[i] {
			return nil, ErrInvalidAddress
		}
	}
	return data, nil
}
