package wallet

import (
	"testing"

	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/stretchr/testify/require"
)

func TestChunkReceivablesNoDuplicateAccounts(t *testing.T) {
	c := testClient(t)
	c.Config.RPCReceiveBatchSize = 3

	a := addFundedAccount(t, c, 0, nano.NewRaw(0)).Account
	b := addFundedAccount(t, c, 1, nano.NewRaw(0)).Account

	receivables := []rpc.Receivable{
		*rpcReceivable(a, [32]byte{1}, nano.OneRaw),
		*rpcReceivable(a, [32]byte{2}, nano.OneRaw),
		*rpcReceivable(b, [32]byte{3}, nano.OneRaw),
		*rpcReceivable(a, [32]byte{4}, nano.OneRaw),
		*rpcReceivable(b, [32]byte{5}, nano.OneRaw),
	}
	chunks := c.chunkReceivables(receivables)

	// Within one chunk no account appears twice, and no chunk exceeds the
	// batch size.
	total := 0
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), c.Config.RPCReceiveBatchSize)
		seen := make(map[nano.Account]bool)
		for _, receivable := range chunk {
			require.False(t, seen[receivable.Recipient])
			seen[receivable.Recipient] = true
		}
		total += len(chunk)
	}
	require.Equal(t, len(receivables), total)
}

func TestChunkReceivablesRespectsBatchSize(t *testing.T) {
	c := testClient(t)
	c.Config.RPCReceiveBatchSize = 2

	var receivables []rpc.Receivable
	for i := 0; i < 5; i++ {
		account := addFundedAccount(t, c, uint32(i), nano.NewRaw(0)).Account
		receivables = append(receivables, *rpcReceivable(account, [32]byte{byte(i)}, nano.OneRaw))
	}

	chunks := c.chunkReceivables(receivables)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], 2)
	require.Len(t, chunks[1], 2)
	require.Len(t, chunks[2], 1)
}

func TestReceiveSkipsUnknownFrontiers(t *testing.T) {
	c := testClient(t)

	var seed nano.SecretBytes
	seed[0] = 2
	unknown := nano.KeyFromSeed(&seed, 0).Account()

	// The only receivable targets an account with no frontier: it is
	// dropped up front, so the batch is empty and succeeds vacuously.
	result := c.Receive(testCtx(t), []rpc.Receivable{
		*rpcReceivable(unknown, [32]byte{1}, nano.OneRaw),
	})
	require.Nil(t, result.Failure)
	require.Empty(t, result.NewFrontiers.New)
}

func TestReceiveSingleUnknownAccount(t *testing.T) {
	c := testClient(t)

	var seed nano.SecretBytes
	seed[0] = 3
	unknown := nano.KeyFromSeed(&seed, 0).Account()

	_, _, err := c.ReceiveSingle(testCtx(t), *rpcReceivable(unknown, [32]byte{1}, nano.OneRaw))
	require.ErrorIs(t, err, ErrAccountNotFound)
}
