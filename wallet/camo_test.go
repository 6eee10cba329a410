package wallet

import (
	"testing"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/stretchr/testify/require"
)

// recipientWallet builds a second wallet holding the camo account a test
// sends to.
func recipientWallet(t *testing.T) (*Client, nano.CamoAccount) {
	t.Helper()

	recipient := testClient(t)
	recipient.Seed = mustSeed(t, "9f")
	camoInfo, err := recipient.AddCamoAccount(0, nano.NewCamoVersions(recipient.Config.DefaultCamoVersions))
	require.NoError(t, err)
	return recipient, camoInfo.Account
}

func TestCamoTransactionMemo(t *testing.T) {
	c := testClient(t)
	sender := addFundedAccount(t, c, 0, nano.OneNano)
	_, camoAccount := recipientWallet(t)

	payment := CamoPayment{
		Sender:             sender.Account,
		SenderAmount:       nano.MustRaw("100"),
		Notifier:           sender.Account,
		NotificationAmount: nano.MustRaw("1"),
		Recipient:          camoAccount,
	}

	derived, notification, err := c.CamoTransactionMemo(&payment)
	require.NoError(t, err)
	require.Equal(t, camoAccount.SignerAccount(), notification.Recipient)

	// Deterministic for an unchanged frontier.
	derived2, notification2, err := c.CamoTransactionMemo(&payment)
	require.NoError(t, err)
	require.Equal(t, derived, derived2)
	require.Equal(t, notification, notification2)

	// The recipient can derive the same one-time account from the
	// notification alone.
	recipient, _ := recipientWallet(t)
	masterInfo := recipient.WalletDB.CamoAccounts.InfoFromNotificationAccount(notification.Recipient)
	require.NotNil(t, masterInfo)
	_, derivedInfo, err := recipient.Seed.DeriveKey(masterInfo, notification)
	require.NoError(t, err)
	require.Equal(t, derived, derivedInfo.Account)
}

func TestCamoTransactionMemoUnknownSender(t *testing.T) {
	c := testClient(t)
	_, camoAccount := recipientWallet(t)

	var seed nano.SecretBytes
	seed[0] = 4
	unknown := nano.KeyFromSeed(&seed, 0).Account()

	_, _, err := c.CamoTransactionMemo(&CamoPayment{
		Sender:    unknown,
		Recipient: camoAccount,
	})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSendCamoRejectsNotifierEqualsRecipient(t *testing.T) {
	c := testClient(t)
	sender := addFundedAccount(t, c, 0, nano.OneNano)
	_, camoAccount := recipientWallet(t)

	_, _, err := c.SendCamo(testCtx(t), CamoPayment{
		Sender:             camoAccount.SignerAccount(),
		SenderAmount:       nano.NewRaw(1),
		Notifier:           sender.Account,
		NotificationAmount: nano.NewRaw(1),
		Recipient:          camoAccount,
	})
	require.ErrorIs(t, err, ErrInvalidPayment)

	_, _, err = c.SendCamo(testCtx(t), CamoPayment{
		Sender:             sender.Account,
		SenderAmount:       nano.NewRaw(1),
		Notifier:           camoAccount.SignerAccount(),
		NotificationAmount: nano.NewRaw(1),
		Recipient:          camoAccount,
	})
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestSendCamoSameRejectsInsufficientTotal(t *testing.T) {
	c := testClient(t)
	sender := addFundedAccount(t, c, 0, nano.NewRaw(10))
	_, camoAccount := recipientWallet(t)

	_, _, err := c.SendCamo(testCtx(t), CamoPayment{
		Sender:             sender.Account,
		SenderAmount:       nano.NewRaw(8),
		Notifier:           sender.Account,
		NotificationAmount: nano.NewRaw(3),
		Recipient:          camoAccount,
	})
	require.ErrorIs(t, err, ErrNotEnoughCoins)
}

func TestCamoDestinationsFromBlocks(t *testing.T) {
	recipient, camoAccount := recipientWallet(t)

	// A sender wallet builds a real notify block for the recipient.
	sender := testClient(t)
	senderInfo := addFundedAccount(t, sender, 0, nano.OneNano)
	senderKey := sender.WalletDB.FindKey(&sender.Seed, senderInfo.Account)
	require.NotNil(t, senderKey)
	secret, notification, err := camoAccount.SenderECDH(senderKey,
		sender.Frontiers.AccountFrontier(senderInfo.Account).Block.Hash())
	require.NoError(t, err)

	notifyBlock, err := sender.createSendBlock(Payment{
		Sender:            senderInfo.Account,
		Amount:            nano.NewRaw(1),
		Recipient:         notification.Recipient,
		NewRepresentative: &notification.RepresentativePayload,
	}, sender.Frontiers.AccountFrontier(senderInfo.Account))
	require.NoError(t, err)

	// The recipient derives the one-time account from the notify block.
	derived := recipient.camoDestinationsFromBlocks([]nano.Block{notifyBlock})
	require.Len(t, derived, 1)

	expected, err := camoAccount.DeriveAccount(secret)
	require.NoError(t, err)
	require.Equal(t, expected, derived[0].Account)

	// Blocks not addressed to one of our notification accounts are skipped.
	foreign := notifyBlock
	foreign.Link = [32]byte{0x5c}
	require.Empty(t, recipient.camoDestinationsFromBlocks([]nano.Block{foreign}))
}

func TestWorthlessFilter(t *testing.T) {
	var seed nano.SecretBytes
	seed[0] = 6
	hasBalance := nano.KeyFromSeed(&seed, 0).Account()
	hasReceivable := nano.KeyFromSeed(&seed, 1).Account()
	empty := nano.KeyFromSeed(&seed, 2).Account()

	funded := frontiers.NewUnopened(hasBalance)
	funded.Block.Balance = nano.NewRaw(5)
	newFrontiers := frontiers.NewFrontiers{New: []frontiers.FrontierInfo{
		funded,
		frontiers.NewUnopened(hasReceivable),
		frontiers.NewUnopened(empty),
	}}
	receivable := []rpc.Receivable{*rpcReceivable(hasReceivable, [32]byte{1}, nano.OneRaw)}

	require.False(t, worthless(receivable, &newFrontiers, hasBalance))
	require.False(t, worthless(receivable, &newFrontiers, hasReceivable))
	require.True(t, worthless(receivable, &newFrontiers, empty))
}
