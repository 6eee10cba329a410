package nano

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSeed(fill byte) *SecretBytes {
	var seed SecretBytes
	for i := range seed {
		seed[i] = fill
	}
	return &seed
}

func TestAccountAddressRoundTrip(t *testing.T) {
	for _, index := range []uint32{0, 1, 91, 0xffffffff} {
		account := KeyFromSeed(testSeed(0xc8), index).Account()
		addr := account.String()

		require.Len(t, addr, len(AccountPrefix)+accountDigits+8)
		require.Equal(t, AccountPrefix, addr[:len(AccountPrefix)])

		parsed, err := ParseAccount(addr)
		require.NoError(t, err)
		require.Equal(t, account, parsed)
	}
}

func TestParseAccountRejectsCorruption(t *testing.T) {
	addr := KeyFromSeed(testSeed(1), 0).Account().String()

	// Flip one payload character.
	corrupted := []byte(addr)
	pos := len(AccountPrefix) + 3
	if corrupted[pos] == '1' {
		corrupted[pos] = '3'
	} else {
		corrupted[pos] = '1'
	}
	_, err := ParseAccount(string(corrupted))
	require.ErrorIs(t, err, ErrInvalidAddress)

	_, err = ParseAccount("nano_short")
	require.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseAccount("wrong_" + addr[len(AccountPrefix):])
	require.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseAccount("")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAccountTextMarshaling(t *testing.T) {
	account := KeyFromSeed(testSeed(7), 3).Account()
	text, err := account.MarshalText()
	require.NoError(t, err)

	var decoded Account
	require.NoError(t, decoded.UnmarshalText(text))
	require.Equal(t, account, decoded)
}

func TestKeyDerivationDeterministic(t *testing.T) {
	a := KeyFromSeed(testSeed(9), 42)
	b := KeyFromSeed(testSeed(9), 42)
	require.Equal(t, a.Account(), b.Account())

	// Different index, different seed: different accounts.
	require.NotEqual(t, a.Account(), KeyFromSeed(testSeed(9), 43).Account())
	require.NotEqual(t, a.Account(), KeyFromSeed(testSeed(10), 42).Account())
}

func TestSignVerify(t *testing.T) {
	key := KeyFromSeed(testSeed(0x2a), 0)
	msg := []byte("a message to sign")

	sig := key.Sign(msg)
	require.True(t, key.Account().Verify(msg, sig))

	// Wrong message.
	require.False(t, key.Account().Verify([]byte("another message"), sig))

	// Wrong account.
	other := KeyFromSeed(testSeed(0x2a), 1)
	require.False(t, other.Account().Verify(msg, sig))

	// Corrupted signature.
	sig[0] ^= 0xff
	require.False(t, key.Account().Verify(msg, sig))
}
