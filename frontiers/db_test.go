package frontiers

import (
	"testing"

	"github.com/CamoNano/camonanowallet/nano"
	"github.com/stretchr/testify/require"
)

func testSeed(fill byte) *nano.SecretBytes {
	var seed nano.SecretBytes
	for i := range seed {
		seed[i] = fill
	}
	return &seed
}

func testAccount(index uint32) nano.Account {
	return nano.KeyFromSeed(testSeed(0x51), index).Account()
}

func signedFrontier(t *testing.T, key *nano.Key, representative nano.Account, balance nano.Raw) FrontierInfo {
	t.Helper()
	block := nano.Block{
		Type:           nano.BlockTypeReceive,
		Account:        key.Account(),
		Representative: representative,
		Balance:        balance,
		Link:           [32]byte{99},
	}
	block.Sign(key)
	return NewFrontierInfo(block, nil)
}

func testDB(t *testing.T) *DB {
	t.Helper()
	db := NewDB()

	batch := NewFrontiers{New: []FrontierInfo{
		NewUnopened(testAccount(1)),
		NewUnopened(testAccount(2)),
		NewUnopened(testAccount(3)),
	}}
	batch.New[1].Block.Balance = nano.NewRaw(5)
	batch.New[2].Block.Balance = nano.NewRaw(10)
	require.NoError(t, db.Insert(batch))
	return db
}

func TestUnopenedSentinel(t *testing.T) {
	frontier := NewUnopened(testAccount(1))
	require.True(t, frontier.IsUnopened())
	require.Equal(t, testAccount(1).Bytes(), frontier.WorkHash())

	// Any content change makes it a real frontier keyed by block hash.
	frontier.Block.Balance = nano.NewRaw(1)
	require.False(t, frontier.IsUnopened())
	require.Equal(t, frontier.Block.Hash(), frontier.WorkHash())
}

func TestAccountsAndBalances(t *testing.T) {
	db := testDB(t)

	require.Contains(t, db.AllAccounts(), testAccount(1))
	require.Contains(t, db.AllAccounts(), testAccount(2))
	require.Contains(t, db.AllAccounts(), testAccount(3))

	balance, ok := db.AccountBalance(testAccount(2))
	require.True(t, ok)
	require.Equal(t, nano.NewRaw(5), balance)

	_, ok = db.AccountBalance(testAccount(99))
	require.False(t, ok)

	require.Equal(t, nano.NewRaw(15), db.SumBalance())

	frontier := db.AccountFrontier(testAccount(1))
	require.NotNil(t, frontier)
	require.True(t, frontier.IsUnopened())
	require.False(t, frontier.Block.HasValidSignature())

	unknown := testAccount(42)
	filtered := db.FilterKnownAccounts([]nano.Account{
		testAccount(2), testAccount(1), unknown, testAccount(3),
	})
	require.Equal(t, []nano.Account{unknown}, filtered)

	_, err := db.RemoveMany([]nano.Account{testAccount(3)})
	require.NoError(t, err)
	require.NotContains(t, db.AllAccounts(), testAccount(3))
	require.Equal(t, nano.NewRaw(5), db.SumBalance())
}

func TestInsertReplaces(t *testing.T) {
	db := testDB(t)
	key1 := nano.KeyFromSeed(testSeed(9), 9)
	key2 := nano.KeyFromSeed(testSeed(10), 10)

	batch := NewFrontiers{New: []FrontierInfo{
		signedFrontier(t, key1, testAccount(2), nano.NewRaw(100)),
		signedFrontier(t, key2, testAccount(3), nano.NewRaw(50)),
	}}
	require.NoError(t, db.Insert(batch))
	require.Equal(t, nano.NewRaw(165), db.SumBalance())

	frontier := db.AccountFrontier(key1.Account())
	require.NotNil(t, frontier)
	require.True(t, frontier.Block.HasValidSignature())
	require.Equal(t, testAccount(2), frontier.Block.Representative)

	// Replacing an entry adjusts the sum instead of double counting.
	replacement := NewFrontiers{New: []FrontierInfo{
		signedFrontier(t, key1, testAccount(2), nano.NewRaw(70)),
	}}
	require.NoError(t, db.Insert(replacement))
	require.Equal(t, nano.NewRaw(135), db.SumBalance())

	frontiers := db.AccountsFrontiers([]nano.Account{key1.Account(), key2.Account()})
	require.NotNil(t, frontiers[0])
	require.NotNil(t, frontiers[1])
	balance, ok := db.AccountBalance(key2.Account())
	require.True(t, ok)
	require.Equal(t, nano.NewRaw(50), balance)
}

func TestInsertRejectsOverflowingBatch(t *testing.T) {
	db := testDB(t)
	max := nano.MustRaw("340282366920938463463374607431768211455")

	fine := NewUnopened(testAccount(20))
	fine.Block.Balance = nano.NewRaw(1)
	overflowing := NewUnopened(testAccount(21))
	overflowing.Block.Balance = max

	// The pre-check rejects the whole batch: the fine entry must not be
	// inserted either.
	err := db.Insert(NewFrontiers{New: []FrontierInfo{fine, overflowing}})
	require.ErrorIs(t, err, ErrFrontierBalanceOverflow)
	require.Nil(t, db.AccountFrontier(testAccount(20)))
	require.Nil(t, db.AccountFrontier(testAccount(21)))
	require.Equal(t, nano.NewRaw(15), db.SumBalance())
}

func TestInsertEpochRules(t *testing.T) {
	db := NewDB()
	key := nano.KeyFromSeed(testSeed(4), 0)
	prev := signedFrontier(t, key, testAccount(2), nano.NewRaw(100))
	require.NoError(t, db.Insert(NewFrontiers{New: []FrontierInfo{prev}}))

	epoch := nano.Block{
		Type:           nano.BlockTypeEpoch,
		Account:        key.Account(),
		Previous:       prev.Block.Hash(),
		Representative: prev.Block.Representative,
		Balance:        prev.Block.Balance,
		Link:           [32]byte{1},
	}
	epoch.Sign(key)
	require.NoError(t, db.Insert(NewFrontiers{New: []FrontierInfo{
		NewFrontierInfo(epoch, nil),
	}}))

	// An epoch block that moves funds is rejected.
	bad := epoch
	bad.Previous = epoch.Hash()
	bad.Balance = nano.NewRaw(1)
	bad.Sign(key)
	err := db.Insert(NewFrontiers{New: []FrontierInfo{
		NewFrontierInfo(bad, nil),
	}})
	require.ErrorIs(t, err, ErrInvalidEpochBlock)
}

func TestSetWork(t *testing.T) {
	db := testDB(t)

	// Difficulty zero accepts any nonce.
	require.NoError(t, db.SetAccountWork(0, testAccount(1), nano.Work{7: 7}))
	frontier := db.AccountFrontier(testAccount(1))
	require.NotNil(t, frontier.CachedWork())
	require.Equal(t, nano.Work{7: 7}, *frontier.CachedWork())
	require.True(t, frontier.HasValidWork(0))

	// An unsatisfiable difficulty clears the cache instead of storing an
	// invalid nonce.
	require.NoError(t, db.SetAccountWork(^uint64(0), testAccount(1), nano.Work{1}))
	require.Nil(t, db.AccountFrontier(testAccount(1)).CachedWork())

	require.ErrorIs(t, db.SetAccountWork(0, testAccount(42), nano.Work{}),
		ErrAccountNotFound)

	// SetWorkByHash addresses unopened frontiers by account key.
	require.NoError(t, db.SetWorkByHash(0, testAccount(1).Bytes(), nano.Work{1}))
	require.NotNil(t, db.AccountFrontier(testAccount(1)).CachedWork())

	require.ErrorIs(t, db.SetWorkByHash(0, [32]byte{0xff}, nano.Work{}),
		ErrAccountNotFound)
}

func TestFilterKnownHashes(t *testing.T) {
	db := testDB(t)
	key := nano.KeyFromSeed(testSeed(6), 0)
	frontier := signedFrontier(t, key, testAccount(2), nano.NewRaw(1))
	require.NoError(t, db.Insert(NewFrontiers{New: []FrontierInfo{frontier}}))

	known := frontier.Block.Hash()
	unknown := [32]byte{0xaa}
	filtered := db.FilterKnownHashes([][32]byte{known, unknown})
	require.Equal(t, [][32]byte{unknown}, filtered)
}

func TestRemoveUnknown(t *testing.T) {
	db := testDB(t)
	_, err := db.Remove(testAccount(42))
	require.ErrorIs(t, err, ErrAccountNotFound)
}
