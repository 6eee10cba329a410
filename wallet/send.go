package wallet

import (
	"context"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
)

// createSendBlock builds and signs the send block for a payment against the
// sender's frontier. Cached proof-of-work is used if present; otherwise the
// work field is left blank to be filled at publish time.
func (c *Client) createSendBlock(payment Payment, senderFrontier *frontiers.FrontierInfo) (nano.Block, error) {
	if payment.Sender == payment.Recipient {
		return nano.Block{}, ErrInvalidPayment
	}

	var blockWork nano.Work
	if cached := senderFrontier.CachedWork(); cached != nil {
		blockWork = *cached
	}
	frontierBlock := &senderFrontier.Block

	balance, underflow := frontierBlock.Balance.SubChecked(payment.Amount)
	if underflow {
		return nano.Block{}, ErrNotEnoughCoins
	}

	// A send from an unopened account never happens in practice, but keep
	// the previous field uniform if it does.
	var previous [32]byte
	if !senderFrontier.IsUnopened() {
		previous = frontierBlock.Hash()
	}

	block := nano.Block{
		Type:           nano.BlockTypeSend,
		Account:        payment.Sender,
		Previous:       previous,
		Representative: c.chooseRepresentative(frontierBlock.Representative, payment.NewRepresentative),
		Balance:        balance,
		Link:           payment.Recipient.Bytes(),
		Work:           blockWork,
	}
	if err := c.WalletDB.SignBlock(&c.Seed, &block); err != nil {
		return nano.Block{}, ErrAccountNotFound
	}
	return block, nil
}

// Send sends to an ordinary account, returning the sender's new frontier.
// Work for the next block is prefetched if the cache is enabled.
func (c *Client) Send(ctx context.Context, payment Payment) (frontiers.NewFrontiers, rpc.Failures, error) {
	if payment.Sender == payment.Recipient {
		return frontiers.NewFrontiers{}, nil, ErrInvalidPayment
	}

	frontier := c.Frontiers.AccountFrontier(payment.Sender)
	if frontier == nil {
		return frontiers.NewFrontiers{}, nil, ErrAccountNotFound
	}

	block, err := c.createSendBlock(payment, frontier)
	if err != nil {
		return frontiers.NewFrontiers{}, nil, err
	}

	info, failures, err := c.autoPublishUnsynced(ctx, frontier, block)
	if err != nil {
		return frontiers.NewFrontiers{}, failures, err
	}
	return frontiers.NewFrontiers{New: []frontiers.FrontierInfo{info}}, failures, nil
}
