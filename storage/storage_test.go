package storage

import (
	"strings"
	"testing"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/keychain"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/CamoNano/camonanowallet/wallet"
	"github.com/CamoNano/camonanowallet/walletdb"
	"github.com/stretchr/testify/require"
)

// testWalletData builds a snapshot with 3 normal accounts, 1 camo account,
// 2 derived accounts, frontiers and a non-empty receivable map.
func testWalletData(t *testing.T) *WalletData {
	t.Helper()

	seed, err := keychain.SeedFromHex(strings.Repeat("c8", 32))
	require.NoError(t, err)

	db := walletdb.NewDB()
	var accounts []nano.Account
	for _, index := range []uint32{0, 1, 91} {
		_, info := seed.Key(index)
		_, err := db.Accounts.Insert(20, info)
		require.NoError(t, err)
		accounts = append(accounts, info.Account)
	}

	versions := nano.NewCamoVersions([]nano.CamoVersion{nano.CamoVersionOne})
	_, camoInfo, err := seed.CamoKey(99, versions)
	require.NoError(t, err)
	_, err = db.CamoAccounts.Insert(20, camoInfo)
	require.NoError(t, err)

	var senderSeed nano.SecretBytes
	senderSeed[0] = 0x63
	for i := byte(1); i <= 2; i++ {
		senderKey := nano.KeyFromSeed(&senderSeed, uint32(i))
		_, notification, err := camoInfo.Account.SenderECDH(senderKey, [32]byte{i})
		require.NoError(t, err)
		_, info, err := seed.DeriveKey(&camoInfo, notification)
		require.NoError(t, err)
		db.DerivedAccounts.Insert(info)
	}

	frontierDB := frontiers.NewDB()
	var batch frontiers.NewFrontiers
	work := nano.Work{1, 2, 3, 4, 5, 6, 7, 8}
	for i, account := range accounts {
		frontier := frontiers.NewUnopened(account)
		frontier.Block.Balance = nano.NewRaw(uint64(i) * 7)
		if i == 0 {
			batch.New = append(batch.New, frontiers.NewFrontierInfo(frontier.Block, &work))
		} else {
			batch.New = append(batch.New, frontier)
		}
	}
	require.NoError(t, frontierDB.Insert(batch))

	receivable := map[[32]byte]rpc.Receivable{
		{0x01}: {Recipient: accounts[0], BlockHash: [32]byte{0x01}, Amount: nano.OneNano},
		{0x02}: {Recipient: accounts[1], BlockHash: [32]byte{0x02}, Amount: nano.NewRaw(5)},
	}

	history := []wallet.CamoTxSummary{{
		Recipient:    camoInfo.Account,
		CamoAmount:   nano.NewRaw(100),
		TotalAmount:  nano.NewRaw(101),
		Notification: [32]byte{0xaa},
	}}

	return &WalletData{
		Seed:       seed,
		WalletDB:   db,
		Frontiers:  frontierDB,
		Receivable: receivable,
		History:    history,
	}
}

func requireWalletDataEqual(t *testing.T, want, got *WalletData) {
	t.Helper()

	require.Equal(t, want.Seed.Hex(), got.Seed.Hex())
	require.Equal(t, want.WalletDB.Accounts.AllInfos(), got.WalletDB.Accounts.AllInfos())
	require.Equal(t, want.WalletDB.CamoAccounts.AllInfos(), got.WalletDB.CamoAccounts.AllInfos())
	require.Equal(t, want.WalletDB.DerivedAccounts.AllInfos(), got.WalletDB.DerivedAccounts.AllInfos())
	require.Equal(t, want.Frontiers.AllFrontiers(), got.Frontiers.AllFrontiers())
	require.Equal(t, want.Frontiers.SumBalance(), got.Frontiers.SumBalance())
	require.Equal(t, want.Receivable, got.Receivable)
	require.Equal(t, want.History, got.History)
}

func TestSerializeRoundTrip(t *testing.T) {
	data := testWalletData(t)

	encoded := data.Serialize()
	decoded, err := DeserializeWalletData(encoded)
	require.NoError(t, err)
	requireWalletDataEqual(t, data, decoded)

	// Deterministic: the same snapshot encodes to the same bytes.
	require.Equal(t, encoded, testWalletData(t).Serialize())
}

func TestDeserializeRejectsCorruption(t *testing.T) {
	encoded := testWalletData(t).Serialize()

	_, err := DeserializeWalletData(encoded[:len(encoded)-3])
	require.ErrorIs(t, err, ErrCorruptWalletData)

	_, err = DeserializeWalletData(append(encoded, 0x00))
	require.ErrorIs(t, err, ErrCorruptWalletData)

	bad := append([]byte{}, encoded...)
	bad[0] = 0xff // version
	_, err = DeserializeWalletData(bad)
	require.ErrorIs(t, err, ErrCorruptWalletData)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	data := testWalletData(t)
	password := []byte("hunter2")

	record, err := data.Encrypt("mywallet", password)
	require.NoError(t, err)
	require.Equal(t, "argon2id", record.KDF)

	decoded, err := record.Decrypt(password)
	require.NoError(t, err)
	requireWalletDataEqual(t, data, decoded)
}

func TestDecryptWrongPassword(t *testing.T) {
	data := testWalletData(t)

	record, err := data.Encrypt("mywallet", []byte("hunter2"))
	require.NoError(t, err)

	_, err = record.Decrypt([]byte("hunter3"))
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestDecryptUnsupportedKDF(t *testing.T) {
	record, err := testWalletData(t).Encrypt("mywallet", []byte("pw"))
	require.NoError(t, err)

	record.KDF = "scrypt"
	_, err = record.Decrypt([]byte("pw"))
	require.ErrorIs(t, err, ErrUnsupportedKDF)
}

func TestStoreWalletLifecycle(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)
	data := testWalletData(t)
	password := []byte("pw")

	require.NoError(t, store.SaveWallet(data, "alpha", password))

	// Duplicate names are rejected.
	require.ErrorIs(t, store.SaveWallet(data, "alpha", password), ErrWalletAlreadyExists)

	names, err := store.WalletNames()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha"}, names)

	exists, err := store.WalletExists("alpha")
	require.NoError(t, err)
	require.True(t, exists)

	loaded, err := store.LoadWallet("alpha", password)
	require.NoError(t, err)
	requireWalletDataEqual(t, data, loaded)

	_, err = store.LoadWallet("missing", password)
	require.ErrorIs(t, err, ErrWalletNotFound)

	// Overriding with the wrong password fails; with the right one it
	// replaces the record.
	require.ErrorIs(t, store.SaveWalletOverriding(data, "alpha", []byte("no")),
		ErrInvalidPassword)
	require.NoError(t, store.SaveWalletOverriding(data, "alpha", password))
	names, err = store.WalletNames()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha"}, names)

	// Deleting requires the password too.
	require.ErrorIs(t, store.DeleteWallet("alpha", []byte("no")), ErrInvalidPassword)
	require.NoError(t, store.DeleteWallet("alpha", password))
	exists, err = store.WalletExists("alpha")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestStoreRejectsInvalidNames(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)
	data := testWalletData(t)

	for _, name := range []string{"", "config", "has space", "dot.name"} {
		require.ErrorIs(t, store.SaveWallet(data, name, []byte("pw")),
			ErrInvalidWalletName)
	}
}

func TestStoreConfigRoundTrip(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	var repSeed nano.SecretBytes
	repSeed[0] = 0x70
	rep := nano.KeyFromSeed(&repSeed, 0).Account()
	defaults := func() wallet.Config {
		return wallet.DefaultConfig([]nano.Account{rep},
			[]*rpc.Node{rpc.NewNode(rpc.AllCommands(), "https://example.com", "")})
	}

	// First load creates the file from defaults.
	cfg, err := store.LoadConfig(defaults)
	require.NoError(t, err)
	require.Equal(t, []nano.Account{rep}, cfg.Representatives)

	// Changes persist.
	cfg.DBAccountLimit = 5
	require.NoError(t, store.SaveConfig(&cfg))
	reloaded, err := store.LoadConfig(defaults)
	require.NoError(t, err)
	require.Equal(t, 5, reloaded.DBAccountLimit)
	require.Len(t, reloaded.RPC.Nodes, 1)
	require.Equal(t, "https://example.com", reloaded.RPC.Nodes[0].URL)
	require.True(t, reloaded.RPC.Nodes[0].Commands.Process)
}

func TestDecryptDetectsTampering(t *testing.T) {
	data := testWalletData(t)
	password := []byte("pw")

	record, err := data.Encrypt("w", password)
	require.NoError(t, err)

	// Flip a ciphertext byte: GCM authentication fails as a bad password.
	tampered := []byte(record.Data)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	record.Data = string(tampered)
	_, err = record.Decrypt(password)
	require.Error(t, err)
}
