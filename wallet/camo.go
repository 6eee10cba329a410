package wallet

import (
	"context"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
)

// senderECDH runs the sender's side of the stealth exchange for a payment,
// mixing in the sender's current frontier hash.
func (c *Client) senderECDH(recipient nano.CamoAccount, senderKey *nano.Key) (nano.SecretBytes, nano.Notification, error) {
	frontier := c.Frontiers.AccountFrontier(senderKey.Account())
	if frontier == nil {
		return nano.SecretBytes{}, nano.Notification{}, ErrAccountNotFound
	}
	return recipient.SenderECDH(senderKey, frontier.Block.Hash())
}

// CamoTransactionMemo computes the one-time destination account and the
// notification of a camo payment without publishing anything. The command
// layer uses it for transaction summaries and notification recovery.
func (c *Client) CamoTransactionMemo(payment *CamoPayment) (nano.Account, nano.Notification, error) {
	senderKey := c.WalletDB.FindKey(&c.Seed, payment.Sender)
	if senderKey == nil {
		return nano.Account{}, nano.Notification{}, ErrAccountNotFound
	}
	secret, notification, err := c.senderECDH(payment.Recipient, senderKey)
	if err != nil {
		return nano.Account{}, nano.Notification{}, err
	}
	derived, err := payment.Recipient.DeriveAccount(secret)
	if err != nil {
		return nano.Account{}, nano.Notification{}, err
	}
	return derived, notification, nil
}

// sendCamoSame handles the sub-mode where the notifier and sender are the
// same account. The two blocks must chain: the notify block extends the
// frontier and the masked block extends the notify block.
func (c *Client) sendCamoSame(ctx context.Context, payment CamoPayment) (frontiers.NewFrontiers, rpc.Failures, error) {
	if payment.Sender != payment.Notifier {
		panic("broken SendCamo: sendCamoSame used for distinct sender and notifier")
	}

	senderFrontier := c.Frontiers.AccountFrontier(payment.Sender)
	if senderFrontier == nil {
		return frontiers.NewFrontiers{}, nil, ErrAccountNotFound
	}

	total, overflow := payment.NotificationAmount.AddChecked(payment.SenderAmount)
	if overflow || senderFrontier.Block.Balance.Cmp(total) < 0 {
		return frontiers.NewFrontiers{}, nil, ErrNotEnoughCoins
	}

	senderKey := c.WalletDB.FindKey(&c.Seed, payment.Sender)
	if senderKey == nil {
		return frontiers.NewFrontiers{}, nil, ErrAccountNotFound
	}

	secret, notification, err := c.senderECDH(payment.Recipient, senderKey)
	if err != nil {
		return frontiers.NewFrontiers{}, nil, err
	}
	derived, err := payment.Recipient.DeriveAccount(secret)
	if err != nil {
		return frontiers.NewFrontiers{}, nil, err
	}

	notifyBlock, err := c.createSendBlock(Payment{
		Sender:            payment.Notifier,
		Amount:            payment.NotificationAmount,
		Recipient:         notification.Recipient,
		NewRepresentative: &notification.RepresentativePayload,
	}, senderFrontier)
	if err != nil {
		return frontiers.NewFrontiers{}, nil, err
	}

	// Publish notify first, then build the masked block against the notify
	// block as the new frontier so the chain stays linear.
	log.Infof("Creating notifier transaction (this might take a while)...")
	notifyFrontier, failures, err := c.autoPublishUnsynced(ctx, senderFrontier, notifyBlock)
	if err != nil {
		return frontiers.NewFrontiers{}, failures, err
	}

	maskedBlock, err := c.createSendBlock(Payment{
		Sender:    payment.Sender,
		Amount:    payment.SenderAmount,
		Recipient: derived,
	}, &notifyFrontier)
	if err != nil {
		// The notification is already on chain; surface the error with the
		// notify frontier so the caller can commit it and retry.
		return frontiers.NewFrontiers{New: []frontiers.FrontierInfo{notifyFrontier}}, failures, err
	}

	log.Infof("Creating sender transaction (this might take a while)...")
	maskedFrontier, maskedFailures, err := c.autoPublishUnsynced(ctx, &notifyFrontier, maskedBlock)
	failures.Merge(maskedFailures)
	if err != nil {
		return frontiers.NewFrontiers{New: []frontiers.FrontierInfo{notifyFrontier}}, failures, err
	}

	return frontiers.NewFrontiers{New: []frontiers.FrontierInfo{maskedFrontier}}, failures, nil
}

// SendCamo sends to a camo account: a masked send to the one-time derived
// account plus a notification from the notifier account. The notify block is
// always published first; publishing the masked block first would reveal
// funds the recipient cannot yet observe.
func (c *Client) SendCamo(ctx context.Context, payment CamoPayment) (frontiers.NewFrontiers, rpc.Failures, error) {
	if payment.Sender == payment.Recipient.SignerAccount() {
		return frontiers.NewFrontiers{}, nil, ErrInvalidPayment
	}
	if payment.Notifier == payment.Recipient.SignerAccount() {
		return frontiers.NewFrontiers{}, nil, ErrInvalidPayment
	}

	if payment.Notifier == payment.Sender {
		return c.sendCamoSame(ctx, payment)
	}

	var failures rpc.Failures

	senderFrontier := c.Frontiers.AccountFrontier(payment.Sender)
	if senderFrontier == nil {
		return frontiers.NewFrontiers{}, nil, ErrAccountNotFound
	}
	notifierFrontier := c.Frontiers.AccountFrontier(payment.Notifier)
	if notifierFrontier == nil {
		return frontiers.NewFrontiers{}, nil, ErrAccountNotFound
	}

	// Ensure we have work for both blocks before publishing either.
	notifyWork, notifyWorkFailures, err := c.getWork(ctx, notifierFrontier)
	failures.Merge(notifyWorkFailures)
	if err != nil {
		return frontiers.NewFrontiers{}, failures, err
	}
	sendWork, sendWorkFailures, err := c.getWork(ctx, senderFrontier)
	failures.Merge(sendWorkFailures)
	if err != nil {
		return frontiers.NewFrontiers{}, failures, err
	}

	log.Infof("Creating sender block...")
	senderKey := c.WalletDB.FindKey(&c.Seed, payment.Sender)
	if senderKey == nil {
		return frontiers.NewFrontiers{}, failures, ErrAccountNotFound
	}

	secret, notification, err := c.senderECDH(payment.Recipient, senderKey)
	if err != nil {
		return frontiers.NewFrontiers{}, failures, err
	}
	derived, err := payment.Recipient.DeriveAccount(secret)
	if err != nil {
		return frontiers.NewFrontiers{}, failures, err
	}

	maskedBlock, err := c.createSendBlock(Payment{
		Sender:    payment.Sender,
		Amount:    payment.SenderAmount,
		Recipient: derived,
	}, senderFrontier)
	if err != nil {
		return frontiers.NewFrontiers{}, failures, err
	}
	maskedBlock.Work = sendWork

	log.Infof("Creating notifier block...")
	notifyBlock, err := c.createSendBlock(Payment{
		Sender:            payment.Notifier,
		Amount:            payment.NotificationAmount,
		Recipient:         notification.Recipient,
		NewRepresentative: &notification.RepresentativePayload,
	}, notifierFrontier)
	if err != nil {
		return frontiers.NewFrontiers{}, failures, err
	}
	notifyBlock.Work = notifyWork

	// Prefetch work for both accounts' next blocks.
	if c.Config.EnableWorkCache {
		c.Work.Request(c.Config.RPC, c.Config.WorkDifficulty, notifyBlock.Hash())
		c.Work.Request(c.Config.RPC, c.Config.WorkDifficulty, maskedBlock.Hash())
	}

	// Publish both blocks, notification first to minimize damage if an
	// error occurs: a recipient can recover the payment from the
	// notification alone.
	notifyFrontier, notifyFailures, err := c.publishBlock(ctx, notifyBlock)
	failures.Merge(notifyFailures)
	if err != nil {
		return frontiers.NewFrontiers{}, failures, err
	}

	maskedFrontier, maskedFailures, err := c.publishBlock(ctx, maskedBlock)
	failures.Merge(maskedFailures)
	if err != nil {
		// The notify block is on chain; return its frontier so the caller
		// can commit it and retry the masked half against fresh state.
		return frontiers.NewFrontiers{New: []frontiers.FrontierInfo{notifyFrontier}}, failures, err
	}

	return frontiers.NewFrontiers{
		New: []frontiers.FrontierInfo{notifyFrontier, maskedFrontier},
	}, failures, nil
}
