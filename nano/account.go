// Package nano implements the on-chain primitives of the network: accounts
// and their textual encoding, ed25519-blake2b keys and signatures, blocks,
// proof-of-work checks, 128-bit amounts, and the camo stealth-address
// protocol.
package nano

// Account is the 32-byte public key of an on-chain account. Equality is
// byte-level.
type Account [32]byte

// accountDigits is the number of base32 characters encoding the 32-byte key.
const accountDigits = 52

// AccountPrefix is the textual prefix of ordinary account addresses.
const AccountPrefix = "nano_"

// ParseAccount parses a textual "nano_" address.
func ParseAccount(s string) (Account, error) {
	data, err := decodeAddress(s, AccountPrefix, 32, accountDigits)
	if err != nil {
		return Account{}, err
	}
	var a Account
	copy(a[:], data)
	return a, nil
}

// String renders the account as a "nano_" address.
func (a Account) String() string {
	return encodeAddress(AccountPrefix, a[:], accountDigits)
}

// Bytes returns the raw public key bytes.
func (a Account) Bytes() [32]byte {
	return [32]byte(a)
}

// MarshalText implements encoding.TextMarshaler, so accounts serialize as
// textual addresses in JSON maps and config files.
func (a Account) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Account) UnmarshalText(text []byte) error {
	parsed, err := ParseAccount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
