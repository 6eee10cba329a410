package wallet

import (
	"testing"

	"github.com/CamoNano/camonanowallet/nano"
	"github.com/stretchr/testify/require"
)

func TestCreateSendBlock(t *testing.T) {
	c := testClient(t)
	sender := addFundedAccount(t, c, 0, nano.MustRaw("5000000000000000000000000000000"))
	recipient := addFundedAccount(t, c, 1, nano.NewRaw(0))
	frontier := c.Frontiers.AccountFrontier(sender.Account)
	newRep := testRepresentative(3)

	block, err := c.createSendBlock(Payment{
		Sender:            sender.Account,
		Amount:            nano.MustRaw("2000000000000000000000000000000"),
		Recipient:         recipient.Account,
		NewRepresentative: &newRep,
	}, frontier)
	require.NoError(t, err)

	require.Equal(t, nano.BlockTypeSend, block.Type)
	require.Equal(t, sender.Account, block.Account)
	require.Equal(t, frontier.Block.Hash(), block.Previous)
	require.Equal(t, nano.MustRaw("3000000000000000000000000000000"), block.Balance)
	require.Equal(t, recipient.Account.Bytes(), block.Link)
	require.Equal(t, newRep, block.Representative)
	require.True(t, block.HasValidSignature())
}

func TestCreateSendBlockRejectsUnderflow(t *testing.T) {
	c := testClient(t)
	sender := addFundedAccount(t, c, 0, nano.NewRaw(5))
	recipient := addFundedAccount(t, c, 1, nano.NewRaw(0))
	frontier := c.Frontiers.AccountFrontier(sender.Account)
	before := frontier.Block

	_, err := c.createSendBlock(Payment{
		Sender:    sender.Account,
		Amount:    nano.NewRaw(6),
		Recipient: recipient.Account,
	}, frontier)
	require.ErrorIs(t, err, ErrNotEnoughCoins)

	// The frontier is untouched.
	require.Equal(t, before, c.Frontiers.AccountFrontier(sender.Account).Block)
}

func TestCreateSendBlockRejectsSelfPayment(t *testing.T) {
	c := testClient(t)
	sender := addFundedAccount(t, c, 0, nano.NewRaw(5))
	frontier := c.Frontiers.AccountFrontier(sender.Account)

	_, err := c.createSendBlock(Payment{
		Sender:    sender.Account,
		Amount:    nano.NewRaw(1),
		Recipient: sender.Account,
	}, frontier)
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestCreateSendBlockUsesCachedWork(t *testing.T) {
	c := testClient(t)
	sender := addFundedAccount(t, c, 0, nano.NewRaw(5))
	recipient := addFundedAccount(t, c, 1, nano.NewRaw(0))

	require.NoError(t, c.Frontiers.SetAccountWork(0, sender.Account, nano.Work{5}))
	frontier := c.Frontiers.AccountFrontier(sender.Account)

	block, err := c.createSendBlock(Payment{
		Sender:    sender.Account,
		Amount:    nano.NewRaw(1),
		Recipient: recipient.Account,
	}, frontier)
	require.NoError(t, err)
	require.Equal(t, nano.Work{5}, block.Work)
}

func TestSendRejectsUnknownSender(t *testing.T) {
	c := testClient(t)
	recipient := addFundedAccount(t, c, 1, nano.NewRaw(0))

	var seed nano.SecretBytes
	seed[0] = 1
	unknown := nano.KeyFromSeed(&seed, 0).Account()

	_, _, err := c.Send(testCtx(t), Payment{
		Sender:    unknown,
		Amount:    nano.NewRaw(1),
		Recipient: recipient.Account,
	})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreateReceiveBlockFirstReceive(t *testing.T) {
	c := testClient(t)

	info, err := c.AddAccount(0)
	require.NoError(t, err)
	unopened := frontierForUnopened(t, c, info.Account)

	sendHash := [32]byte{0xaa}
	block, err := c.createReceiveBlock(rpcReceivable(info.Account, sendHash, nano.OneNano), unopened, nil)
	require.NoError(t, err)

	require.Equal(t, nano.BlockTypeReceive, block.Type)
	require.Equal(t, [32]byte{}, block.Previous)
	require.Equal(t, nano.OneNano, block.Balance)
	require.Equal(t, sendHash, block.Link)
	require.True(t, block.HasValidSignature())
}

func TestCreateReceiveBlockRejectsOverflow(t *testing.T) {
	c := testClient(t)
	max := nano.MustRaw("340282366920938463463374607431768211455")
	info := addFundedAccount(t, c, 0, max)
	frontier := c.Frontiers.AccountFrontier(info.Account)

	_, err := c.createReceiveBlock(rpcReceivable(info.Account, [32]byte{1}, nano.OneRaw), frontier, nil)
	require.ErrorIs(t, err, ErrFrontierBalanceOverflow)
}

func TestCreateReceiveBlockChains(t *testing.T) {
	c := testClient(t)
	info := addFundedAccount(t, c, 0, nano.NewRaw(10))
	frontier := c.Frontiers.AccountFrontier(info.Account)

	block, err := c.createReceiveBlock(rpcReceivable(info.Account, [32]byte{2}, nano.NewRaw(7)), frontier, nil)
	require.NoError(t, err)
	require.Equal(t, frontier.Block.Hash(), block.Previous)
	require.Equal(t, nano.NewRaw(17), block.Balance)
}
