package wallet

import (
	"context"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"golang.org/x/sync/errgroup"
)

// ReceiveFailure pairs the error that interrupted a batch receive with the
// receivables that were not consumed.
type ReceiveFailure struct {
	Err        error
	Unreceived []rpc.Receivable
}

// ReceiveResult is the outcome of a batch receive. Frontiers of accounts
// that successfully received are always returned, even when part of the
// batch failed. Failure is nil exactly when every receivable was consumed.
type ReceiveResult struct {
	// NewFrontiers are the shadow frontiers of every account in the batch:
	// advanced for accounts that received, unchanged for the others.
	NewFrontiers frontiers.NewFrontiers

	// Failures are the accumulated RPC failures of the whole batch.
	Failures rpc.Failures

	// Failure is set when some transactions could not be received.
	Failure *ReceiveFailure
}

// createReceiveBlock builds and signs the receive block consuming a pending
// transaction against the recipient's frontier. Cached proof-of-work is
// used if present; otherwise the work field is left blank.
func (c *Client) createReceiveBlock(receivable *rpc.Receivable,
	recipientFrontier *frontiers.FrontierInfo, newRepresentative *nano.Account) (nano.Block, error) {

	var blockWork nano.Work
	if cached := recipientFrontier.CachedWork(); cached != nil {
		blockWork = *cached
	}
	frontierBlock := &recipientFrontier.Block

	balance, overflow := frontierBlock.Balance.AddChecked(receivable.Amount)
	if overflow {
		return nano.Block{}, ErrFrontierBalanceOverflow
	}

	var previous [32]byte
	if !recipientFrontier.IsUnopened() {
		previous = frontierBlock.Hash()
	}

	block := nano.Block{
		Type:           nano.BlockTypeReceive,
		Account:        receivable.Recipient,
		Previous:       previous,
		Representative: c.chooseRepresentative(frontierBlock.Representative, newRepresentative),
		Balance:        balance,
		Link:           receivable.BlockHash,
		Work:           blockWork,
	}
	if err := c.WalletDB.SignBlock(&c.Seed, &block); err != nil {
		return nano.Block{}, ErrAccountNotFound
	}
	return block, nil
}

// getAccountsReceivable fetches pending ordinary transactions for the given
// accounts. Camo payments are not handled here.
func (c *Client) getAccountsReceivable(ctx context.Context, accounts []nano.Account) ([]rpc.Receivable, rpc.Failures, error) {
	if len(accounts) == 0 {
		return nil, nil, nil
	}
	return c.pool.AccountsReceivable(ctx, &c.Config.RPC, accounts,
		c.Config.RPCAccountsReceivableBatchSize, c.Config.NormalDustThreshold)
}

// receiveUnsynced receives one transaction against an explicit frontier.
// This is used inside batches, where the frontier DB cannot be relied on to
// be in sync.
func (c *Client) receiveUnsynced(ctx context.Context, receivable *rpc.Receivable,
	frontier *frontiers.FrontierInfo) (frontiers.FrontierInfo, rpc.Failures, error) {

	block, err := c.createReceiveBlock(receivable, frontier, nil)
	if err != nil {
		return frontiers.FrontierInfo{}, nil, err
	}
	return c.autoPublishUnsynced(ctx, frontier, block)
}

// chunkHasAccount reports whether a chunk already receives to the account.
func chunkHasAccount(chunk []rpc.Receivable, account nano.Account) bool {
	for i := range chunk {
		if chunk[i].Recipient == account {
			return true
		}
	}
	return false
}

// chunkReceivables groups receivables so that no account appears twice
// within a chunk and no chunk exceeds the receive batch size. Two blocks for
// the same account in one chunk would chain off the same previous hash.
func (c *Client) chunkReceivables(receivables []rpc.Receivable) [][]rpc.Receivable {
	var chunks [][]rpc.Receivable
outer:
	for _, receivable := range receivables {
		for i := range chunks {
			hasAccount := chunkHasAccount(chunks[i], receivable.Recipient)
			reachedLimit := len(chunks[i]) >= c.Config.RPCReceiveBatchSize
			if !hasAccount && !reachedLimit {
				chunks[i] = append(chunks[i], receivable)
				continue outer
			}
		}
		chunks = append(chunks, []rpc.Receivable{receivable})
	}
	return chunks
}

// Receive consumes a batch of pending transactions, publishing receive
// blocks in parallel within each chunk. A shadow frontier map keeps chained
// receives on one account consistent without committing to the frontier DB
// mid-batch.
func (c *Client) Receive(ctx context.Context, receivables []rpc.Receivable) ReceiveResult {
	// The shadow map stands in for the frontier DB, which would fall out of
	// sync as soon as an account receives more than one transaction.
	shadow := make(map[nano.Account]frontiers.FrontierInfo)

	var valid []rpc.Receivable
	for _, receivable := range receivables {
		frontier := c.Frontiers.AccountFrontier(receivable.Recipient)
		if frontier == nil {
			log.Errorf("Attempted to receive transaction %s to account %v "+
				"with unknown frontier", nano.EncodeHash(receivable.BlockHash),
				receivable.Recipient)
			continue
		}
		shadow[receivable.Recipient] = *frontier
		valid = append(valid, receivable)
	}
	receivables = valid

	var failures rpc.Failures
	var firstErr error

	// Hashes of sending blocks that were successfully consumed.
	received := make(map[[32]byte]bool)

	chunks := c.chunkReceivables(receivables)
	if len(chunks) == 0 {
		log.Infof("No transactions to receive. Maybe refresh?")
	}

	for i, chunk := range chunks {
		log.Infof("Receiving batch %d out of %d", i+1, len(chunks))

		type chunkResult struct {
			frontier frontiers.FrontierInfo
			failures rpc.Failures
			err      error
		}
		results := make([]chunkResult, len(chunk))

		var group errgroup.Group
		for j := range chunk {
			j := j
			receivable := chunk[j]
			frontier := shadow[receivable.Recipient]
			group.Go(func() error {
				info, chunkFailures, err := c.receiveUnsynced(ctx, &receivable, &frontier)
				results[j] = chunkResult{frontier: info, failures: chunkFailures, err: err}
				return nil
			})
		}
		// The group never returns an error; failures are per-receivable.
		_ = group.Wait()

		for j, result := range results {
			failures.Merge(result.failures)
			if result.err != nil {
				// Keep the first error; later ones add no information.
				if firstErr == nil {
					firstErr = result.err
				}
				continue
			}
			received[chunk[j].BlockHash] = true
			shadow[result.frontier.Block.Account] = result.frontier
		}
	}

	// Identify the receivables that were not consumed.
	var unreceived []rpc.Receivable
	for _, receivable := range receivables {
		if !received[receivable.BlockHash] {
			log.Debugf("Unreceived transaction %s for %v",
				nano.EncodeHash(receivable.BlockHash), receivable.Recipient)
			unreceived = append(unreceived, receivable)
		}
	}

	if (firstErr == nil) != (len(unreceived) == 0) {
		panic("broken receive: error and unreceived set disagree")
	}

	var newFrontiers frontiers.NewFrontiers
	for _, frontier := range shadow {
		newFrontiers.New = append(newFrontiers.New, frontier)
	}

	result := ReceiveResult{NewFrontiers: newFrontiers, Failures: failures}
	if firstErr != nil {
		result.Failure = &ReceiveFailure{Err: firstErr, Unreceived: unreceived}
	}
	return result
}

// ReceiveSingle consumes one pending transaction: a one-element batch
// through the same path as Receive.
func (c *Client) ReceiveSingle(ctx context.Context, receivable rpc.Receivable) (frontiers.NewFrontiers, rpc.Failures, error) {
	if c.Frontiers.AccountFrontier(receivable.Recipient) == nil {
		return frontiers.NewFrontiers{}, nil, ErrAccountNotFound
	}
	result := c.Receive(ctx, []rpc.Receivable{receivable})
	if result.Failure != nil {
		return result.NewFrontiers, result.Failures, result.Failure.Err
	}
	return result.NewFrontiers, result.Failures, nil
}
