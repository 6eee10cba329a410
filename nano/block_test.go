package nano

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func testBlock(t *testing.T, key *Key) Block {
	t.Helper()
	block := Block{
		Type:           BlockTypeReceive,
		Account:        key.Account(),
		Previous:       [32]byte{22: 0x16},
		Representative: KeyFromSeed(testSeed(3), 0).Account(),
		Balance:        MustRaw("999"),
		Link:           [32]byte{0: 0xc9},
	}
	block.Sign(key)
	return block
}

func TestBlockHashDeterministic(t *testing.T) {
	key := KeyFromSeed(testSeed(5), 0)
	a := testBlock(t, key)
	b := testBlock(t, key)
	require.Equal(t, a.Hash(), b.Hash())

	// Every content field changes the hash; signature and work do not.
	c := a
	c.Balance = MustRaw("1000")
	require.NotEqual(t, a.Hash(), c.Hash())
	c = a
	c.Type = BlockTypeSend
	require.NotEqual(t, a.Hash(), c.Hash())
	c = a
	c.Link[0] ^= 1
	require.NotEqual(t, a.Hash(), c.Hash())
	c = a
	c.Previous[0] ^= 1
	require.NotEqual(t, a.Hash(), c.Hash())
	c = a
	c.Work = Work{1}
	c.Signature[0] ^= 1
	require.Equal(t, a.Hash(), c.Hash())
}

func TestBlockSignature(t *testing.T) {
	key := KeyFromSeed(testSeed(5), 7)
	block := testBlock(t, key)
	require.True(t, block.HasValidSignature())

	tampered := block
	tampered.Balance = MustRaw("1")
	require.False(t, tampered.HasValidSignature())
}

func TestBlockTypeParsing(t *testing.T) {
	for _, blockType := range []BlockType{
		BlockTypeSend, BlockTypeReceive, BlockTypeChange, BlockTypeEpoch,
	} {
		parsed, err := ParseBlockType(blockType.String())
		require.NoError(t, err)
		require.Equal(t, blockType, parsed)
	}
	_, err := ParseBlockType("open")
	require.ErrorIs(t, err, ErrInvalidBlockType)
}

func TestBlockJSONRoundTrip(t *testing.T) {
	key := KeyFromSeed(testSeed(11), 2)
	block := testBlock(t, key)
	block.Work = Work{1, 2, 3, 4, 5, 6, 7, 8}

	data, err := json.Marshal(block)
	require.NoError(t, err)

	var decoded Block
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, block, decoded)
	require.True(t, decoded.HasValidSignature())
}

func TestFollowsEpochRules(t *testing.T) {
	key := KeyFromSeed(testSeed(13), 0)
	prev := testBlock(t, key)

	epoch := Block{
		Type:           BlockTypeEpoch,
		Account:        prev.Account,
		Previous:       prev.Hash(),
		Representative: prev.Representative,
		Balance:        prev.Balance,
		Link:           [32]byte{1},
	}
	require.True(t, epoch.FollowsEpochRules(&prev))

	bad := epoch
	bad.Balance = MustRaw("1")
	require.False(t, bad.FollowsEpochRules(&prev))

	bad = epoch
	bad.Representative = KeyFromSeed(testSeed(14), 0).Account()
	require.False(t, bad.FollowsEpochRules(&prev))

	bad = epoch
	bad.Previous = [32]byte{}
	require.False(t, bad.FollowsEpochRules(&prev))

	notEpoch := epoch
	notEpoch.Type = BlockTypeChange
	require.False(t, notEpoch.FollowsEpochRules(&prev))
}

func TestCheckWork(t *testing.T) {
	hash := [32]byte{1, 2, 3}

	// Difficulty zero accepts anything.
	require.True(t, CheckWork(hash, 0, Work{}))

	// The maximum difficulty is all but impossible to satisfy; scanning a
	// few nonces must fail.
	for i := 0; i < 16; i++ {
		require.False(t, CheckWork(hash, ^uint64(0), Work{7: byte(i)}))
	}

	// A nonce found for a modest target verifies.
	const difficulty = uint64(1) << 60
	var found Work
	var ok bool
	for i := 0; i < 1<<16 && !ok; i++ {
		var w Work
		w[0] = byte(i)
		w[1] = byte(i >> 8)
		if CheckWork(hash, difficulty, w) {
			found, ok = w, true
		}
	}
	require.True(t, ok, "no nonce found for modest difficulty")
	require.True(t, CheckWork(hash, difficulty, found))
}
