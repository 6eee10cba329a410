package nano

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"strings"
)

// Raw is a 128-bit unsigned amount of raw currency units. One whole coin is
// 10^30 raw. The zero value is a zero amount.
type Raw struct {
	hi, lo uint64
}

var (
	// ErrAmountOutOfRange is returned when a parsed amount does not fit in
	// 128 bits or is negative.
	ErrAmountOutOfRange = errors.New("amount out of range")

	// ErrInvalidAmount is returned when an amount string cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
)

var two64 = new(big.Int).Lsh(big.NewInt(1), 64)

// NewRaw returns a Raw holding the given 64-bit value.
func NewRaw(v uint64) Raw {
	return Raw{lo: v}
}

// RawFromBytes16 decodes a big-endian 16-byte amount.
func RawFromBytes16(b [16]byte) Raw {
	var r Raw
	for i := 0; i < 8; i++ {
		r.hi = r.hi<<8 | uint64(b[i])
		r.lo = r.lo<<8 | uint64(b[8+i])
	}
	return r
}

// Bytes16 encodes the amount as big-endian 16 bytes.
func (r Raw) Bytes16() [16]byte {
	var b [16]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(r.hi >> (56 - 8*i))
		b[8+i] = byte(r.lo >> (56 - 8*i))
	}
	return b
}

// AddChecked returns r+o and whether the addition overflowed.
func (r Raw) AddChecked(o Raw) (Raw, bool) {
	lo, carry := bits.Add64(r.lo, o.lo, 0)
	hi, carry2 := bits.Add64(r.hi, o.hi, carry)
	return Raw{hi: hi, lo: lo}, carry2 != 0
}

// SubChecked returns r-o and whether the subtraction underflowed.
func (r Raw) SubChecked(o Raw) (Raw, bool) {
	lo, borrow := bits.Sub64(r.lo, o.lo, 0)
	hi, borrow2 := bits.Sub64(r.hi, o.hi, borrow)
	return Raw{hi: hi, lo: lo}, borrow2 != 0
}

// Cmp compares r and o, returning -1, 0 or 1.
func (r Raw) Cmp(o Raw) int {
	switch {
	case r.hi < o.hi:
		return -1
	case r.hi > o.hi:
		return 1
	case r.lo < o.lo:
		return -1
	case r.lo > o.lo:
		return 1
	}
	return 0
}

// IsZero reports whether the amount is zero.
func (r Raw) IsZero() bool {
	return r.hi == 0 && r.lo == 0
}

func (r Raw) toBig() *big.Int {
	b := new(big.Int).SetUint64(r.hi)
	b.Mul(b, two64)
	return b.Add(b, new(big.Int).SetUint64(r.lo))
}

func rawFromBig(b *big.Int) (Raw, error) {
	if b.Sign() < 0 || b.BitLen() > 128 {
		return Raw{}, ErrAmountOutOfRange
	}
	var r Raw
	r.lo = new(big.Int).Mod(b, two64).Uint64()
	r.hi = new(big.Int).Rsh(b, 64).Uint64()
	return r, nil
}

// String returns the amount as a decimal string of raw units.
func (r Raw) String() string {
	return r.toBig().String()
}

// ParseRaw parses a decimal string of raw units.
func ParseRaw(s string) (Raw, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Raw{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return rawFromBig(b)
}

// MustRaw parses a decimal raw string and panics on failure. It is intended
// for package-level constants and tests.
func MustRaw(s string) Raw {
	r, err := ParseRaw(s)
	if err != nil {
		panic(fmt.Sprintf("invalid raw constant %q: %v", s, err))
	}
	return r
}

// ParseNanoAmount parses a decimal coin amount with up to 30 fractional
// digits, where "1" denotes 10^30 raw.
func ParseNanoAmount(s string) (Raw, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) == 1 {
		parts = append(parts, "0")
	}
	if parts[0] == "" || len(parts[1]) > 30 {
		return Raw{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	whole, ok := new(big.Int).SetString(parts[0], 10)
	if !ok || whole.Sign() < 0 {
		return Raw{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	// Right-pad the fractional part to a full 30 digits of raw.
	frac, ok := new(big.Int).SetString(parts[1]+strings.Repeat("0", 30-len(parts[1])), 10)
	if !ok || frac.Sign() < 0 {
		return Raw{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	total := whole.Mul(whole, OneNano.toBig())
	total.Add(total, frac)
	return rawFromBig(total)
}

// NanoString formats the amount as a decimal coin string, trimming trailing
// fractional zeros.
func (r Raw) NanoString() string {
	b := r.toBig()
	one := OneNano.toBig()
	whole, frac := new(big.Int).QuoRem(b, one, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	s := whole.String() + "." + fmt.Sprintf("%030s", frac.String())
	return strings.TrimRight(s, "0")
}

// MarshalJSON encodes the amount as a decimal string of raw units.
func (r Raw) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes an amount from a decimal string of raw units.
func (r *Raw) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRaw(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
