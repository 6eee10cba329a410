package keychain

import (
	"strings"
	"testing"

	"github.com/CamoNano/camonanowallet/nano"
	"github.com/stretchr/testify/require"
)

func testSeed(t *testing.T) Seed {
	t.Helper()
	seed, err := SeedFromHex(strings.Repeat("c8", 32))
	require.NoError(t, err)
	return seed
}

func camoV1() nano.CamoVersions {
	return nano.NewCamoVersions([]nano.CamoVersion{nano.CamoVersionOne})
}

func TestSeedHexRoundTrip(t *testing.T) {
	hex := "d9c8c8c8c8c8c8c8c8c8c8c8c8eac8c8c8c8c8c8c8c8c8c8c8c8c8c8c8c8c8b7"
	seed, err := SeedFromHex(hex)
	require.NoError(t, err)
	require.Equal(t, hex, seed.Hex())

	_, err = SeedFromHex("tooshort")
	require.ErrorIs(t, err, ErrInvalidSeed)
	_, err = SeedFromHex(strings.Repeat("zz", 32))
	require.ErrorIs(t, err, ErrInvalidSeed)
}

func TestKeyMatchesInfo(t *testing.T) {
	seed := testSeed(t)
	for _, index := range []uint32{0, 1, 91, 1 << 20} {
		key, info := seed.Key(index)
		require.Equal(t, index, info.Index)
		require.Equal(t, key.Account(), info.Account)
	}
}

func TestCamoKeyMatchesInfo(t *testing.T) {
	seed := testSeed(t)
	keys, info, err := seed.CamoKey(99, camoV1())
	require.NoError(t, err)
	require.Equal(t, uint32(99), info.Index)
	require.Equal(t, keys.CamoAccount(), info.Account)

	// The camo signer account is the ordinary account at the same index.
	key, _ := seed.Key(99)
	require.Equal(t, key.Account(), info.Account.SignerAccount())

	_, _, err = seed.CamoKey(99, nano.NewCamoVersions(nil))
	require.ErrorIs(t, err, nano.ErrIncompatibleCamoVersions)
}

func TestDeriveKeyRoundTrip(t *testing.T) {
	seed := testSeed(t)
	_, masterInfo, err := seed.CamoKey(7, camoV1())
	require.NoError(t, err)

	senderKey := nano.KeyFromSeed(seedBytesFor(0x63), 9999)
	secret, notification, err := masterInfo.Account.SenderECDH(senderKey, [32]byte{29: 0x1d})
	require.NoError(t, err)

	key, info, err := seed.DeriveKey(&masterInfo, notification)
	require.NoError(t, err)
	require.Equal(t, uint32(7), info.MasterIndex)
	require.Equal(t, uint32(0), info.Index)
	require.Equal(t, secret, info.Secret)
	require.Equal(t, key.Account(), info.Account)

	// Matches the sender's view of the one-time account.
	derived, err := masterInfo.Account.DeriveAccount(secret)
	require.NoError(t, err)
	require.Equal(t, derived, info.Account)

	// DeriveKeyFromSecret is the same computation given the secret.
	key2, info2 := seed.DeriveKeyFromSecret(&masterInfo, secret)
	require.Equal(t, key.Account(), key2.Account())
	require.Equal(t, info, info2)
}

func seedBytesFor(fill byte) *nano.SecretBytes {
	var b nano.SecretBytes
	for i := range b {
		b[i] = fill
	}
	return &b
}
