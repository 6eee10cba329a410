package wallet

import (
	"context"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/keychain"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"golang.org/x/sync/errgroup"
)

// RescanData is one page of a historical camo rescan.
type RescanData struct {
	// Receivable are the pending transactions found on derived accounts.
	Receivable []rpc.Receivable

	// NewFrontiers are the downloaded frontiers of derived accounts.
	NewFrontiers frontiers.NewFrontiers

	// DerivedInfo describes the derived accounts found.
	DerivedInfo []keychain.DerivedAccountInfo

	// NewHead is the previous field of the last scanned block, to continue
	// paging, or nil when the history was exhausted.
	NewHead *[32]byte
}

// RefreshData is the result of a full wallet refresh.
type RefreshData struct {
	// Receivable are the pending transactions of all tracked accounts,
	// camo payments first.
	Receivable []rpc.Receivable

	// DerivedInfo describes derived accounts discovered via notifications.
	DerivedInfo []keychain.DerivedAccountInfo

	// NewFrontiers are the refreshed frontiers of all tracked accounts.
	NewFrontiers frontiers.NewFrontiers
}

// downloadNotificationBlocks batch-downloads blocks by hash, skipping any
// the network does not know.
func (c *Client) downloadNotificationBlocks(ctx context.Context, hashes [][32]byte) ([]nano.Block, rpc.Failures, error) {
	if len(hashes) == 0 {
		return nil, nil, nil
	}
	infos, failures, err := c.pool.BlocksInfo(ctx, &c.Config.RPC, hashes)
	if err != nil {
		return nil, failures, err
	}
	var blocks []nano.Block
	for _, info := range infos {
		if info != nil {
			blocks = append(blocks, info.Block)
		}
	}
	return blocks, failures, nil
}

// notificationBlocks filters the receivable list down to plausible camo
// notifications (at or above the recipient dust threshold, addressed to one
// of our notification accounts) and downloads the sending blocks.
func (c *Client) notificationBlocks(ctx context.Context, allReceivable []rpc.Receivable) ([]nano.Block, rpc.Failures, error) {
	var hashes [][32]byte
	for _, receivable := range allReceivable {
		if receivable.Amount.Cmp(nano.CamoRecipientDustThreshold) < 0 {
			continue
		}
		if !c.WalletDB.CamoAccounts.ContainsNotificationAccount(receivable.Recipient) {
			continue
		}
		hashes = append(hashes, receivable.BlockHash)
	}
	return c.downloadNotificationBlocks(ctx, hashes)
}

// camoDestinationsFromBlocks decodes each notification block, resolves its
// master camo entry and derives the one-time account info. The destination
// accounts are only calculated here, not scanned.
func (c *Client) camoDestinationsFromBlocks(notificationBlocks []nano.Block) []keychain.DerivedAccountInfo {
	var derived []keychain.DerivedAccountInfo
	for i := range notificationBlocks {
		block := &notificationBlocks[i]
		blockHash := nano.EncodeHash(block.Hash())
		log.Debugf("Scanning %s", blockHash)

		recipient := block.LinkAsAccount()
		masterInfo := c.WalletDB.CamoAccounts.InfoFromNotificationAccount(recipient)
		if masterInfo == nil {
			// Non-notification blocks should have been filtered earlier.
			log.Errorf("Attempted to scan invalid notification block: %v "+
				"not in DB", recipient)
			continue
		}

		notification := nano.NotificationFromBlock(block)
		key, info, err := c.Seed.DeriveKey(masterInfo, notification)
		if err != nil {
			log.Debugf("Invalid notification payload in %s: %v", blockHash, err)
			continue
		}

		log.Debugf("Derived %v from %s", key.Account(), blockHash)
		derived = append(derived, info)
	}
	return derived
}

// camoReceivable finds receivable camo payments given the wallet's ordinary
// receivables: notifications are downloaded and decoded, one-time accounts
// derived, and the derived accounts' own receivables fetched.
func (c *Client) camoReceivable(ctx context.Context, initialReceivable []rpc.Receivable) ([]rpc.Receivable, []keychain.DerivedAccountInfo, rpc.Failures, error) {
	if len(initialReceivable) == 0 {
		return nil, nil, nil, nil
	}

	blocks, failures, err := c.notificationBlocks(ctx, initialReceivable)
	if err != nil {
		return nil, nil, failures, err
	}

	derivedInfo := c.camoDestinationsFromBlocks(blocks)
	accounts := make([]nano.Account, 0, len(derivedInfo))
	for _, info := range derivedInfo {
		accounts = append(accounts, info.Account)
	}

	camoReceivable, receivableFailures, err := c.getAccountsReceivable(ctx, accounts)
	failures.Merge(receivableFailures)
	if err != nil {
		return nil, nil, failures, err
	}
	return camoReceivable, derivedInfo, failures, nil
}

// DownloadReceivable fetches all receivable payments for the given
// accounts, including camo payments. Camo payments are listed first so they
// are received first; losing a crash race on an ordinary receivable is
// recoverable, losing one on a camo receivable is not.
func (c *Client) DownloadReceivable(ctx context.Context, accounts []nano.Account) ([]rpc.Receivable, []keychain.DerivedAccountInfo, rpc.Failures, error) {
	receivable, failures, err := c.getAccountsReceivable(ctx, accounts)
	if err != nil {
		return nil, nil, failures, err
	}

	camoReceivable, derivedInfo, camoFailures, err := c.camoReceivable(ctx, receivable)
	failures.Merge(camoFailures)
	if err != nil {
		return nil, nil, failures, err
	}

	return append(camoReceivable, receivable...), derivedInfo, failures, nil
}

// Refresh downloads receivables (including camo payments) and frontiers for
// every tracked account. The two downloads run concurrently.
func (c *Client) Refresh(ctx context.Context) (RefreshData, rpc.Failures, error) {
	accounts := c.WalletDB.AllAccounts()

	var data RefreshData
	var receivableFailures, frontierFailures rpc.Failures

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		receivable, derivedInfo, failures, err := c.DownloadReceivable(groupCtx, accounts)
		data.Receivable = receivable
		data.DerivedInfo = derivedInfo
		receivableFailures = failures
		return err
	})
	group.Go(func() error {
		newFrontiers, failures, err := c.DownloadFrontiers(groupCtx, accounts)
		data.NewFrontiers = newFrontiers
		frontierFailures = failures
		return err
	})
	err := group.Wait()

	failures := receivableFailures
	failures.Merge(frontierFailures)
	if err != nil {
		return RefreshData{}, failures, err
	}
	return data, failures, nil
}

// worthless reports whether a derived account has neither balance nor
// pending transactions.
func worthless(receivable []rpc.Receivable, newFrontiers *frontiers.NewFrontiers, account nano.Account) bool {
	for _, r := range receivable {
		if r.Recipient == account {
			return false
		}
	}
	for i := range newFrontiers.New {
		block := &newFrontiers.New[i].Block
		if block.Account == account && !block.Balance.IsZero() {
			return false
		}
	}
	return true
}

// RescanNotificationsPartial scans one page of the notification account's
// history for camo payments. The page size is the account-history batch
// size; offset pages further back from head. When filter is set, derived
// accounts with no balance and no pending transactions are dropped.
//
// Destination accounts are calculated, then their receivables and frontiers
// fetched; their own histories are never scanned.
func (c *Client) RescanNotificationsPartial(ctx context.Context, account nano.CamoAccount,
	head *[32]byte, offset *int, filter bool) (RescanData, rpc.Failures, error) {

	batchSize := c.Config.RPCAccountHistoryBatchSize
	var scaledOffset *int
	if offset != nil {
		scaled := *offset * batchSize
		scaledOffset = &scaled
	}

	history, failures, err := c.pool.AccountHistory(ctx, &c.Config.RPC,
		account.SignerAccount(), batchSize, head, scaledOffset)
	if err != nil {
		return RescanData{}, failures, err
	}
	log.Debugf("Found %d blocks to scan for %v", len(history),
		account.SignerAccount())

	var newHead *[32]byte
	if len(history) > 0 {
		previous := history[len(history)-1].Previous
		newHead = &previous
	}

	// Each send block's link may be the hash of a notification block.
	var notificationHashes [][32]byte
	for i := range history {
		if history[i].Type == nano.BlockTypeSend {
			notificationHashes = append(notificationHashes, history[i].Link)
		}
	}

	blocks, blockFailures, err := c.downloadNotificationBlocks(ctx, notificationHashes)
	failures.Merge(blockFailures)
	if err != nil {
		return RescanData{}, failures, err
	}

	derivedInfo := c.camoDestinationsFromBlocks(blocks)
	derivedAccounts := make([]nano.Account, 0, len(derivedInfo))
	for _, info := range derivedInfo {
		derivedAccounts = append(derivedAccounts, info.Account)
	}

	// Frontier and receivable downloads for the derived accounts are
	// independent; run them concurrently.
	var newFrontiers frontiers.NewFrontiers
	var receivable []rpc.Receivable
	var frontierFailures, receivableFailures rpc.Failures

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		newFrontiers, frontierFailures, err = c.DownloadFrontiers(groupCtx, derivedAccounts)
		return err
	})
	group.Go(func() error {
		var err error
		receivable, receivableFailures, err = c.getAccountsReceivable(groupCtx, derivedAccounts)
		return err
	})
	groupErr := group.Wait()
	failures.Merge(frontierFailures)
	failures.Merge(receivableFailures)
	if groupErr != nil {
		return RescanData{}, failures, groupErr
	}

	if filter {
		var kept []keychain.DerivedAccountInfo
		for _, info := range derivedInfo {
			if worthless(receivable, &newFrontiers, info.Account) {
				log.Debugf("%v has no balance and no receivable", info.Account)
				continue
			}
			kept = append(kept, info)
		}
		derivedInfo = kept
	}

	return RescanData{
		Receivable:   receivable,
		NewFrontiers: newFrontiers,
		DerivedInfo:  derivedInfo,
		NewHead:      newHead,
	}, failures, nil
}
