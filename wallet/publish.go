package wallet

import (
	"context"
	"errors"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/CamoNano/camonanowallet/work"
)

// getWork obtains proof-of-work for the block following the given frontier:
// from the frontier's cache if present, from the work service otherwise,
// falling back to a direct pool call if the service is unavailable.
func (c *Client) getWork(ctx context.Context, frontier *frontiers.FrontierInfo) (nano.Work, rpc.Failures, error) {
	if cached := frontier.CachedWork(); cached != nil {
		return *cached, nil, nil
	}

	workHash := frontier.WorkHash()
	c.Work.Request(c.Config.RPC, c.Config.WorkDifficulty, workHash)
	result := c.Work.WaitOn(workHash)
	if errors.Is(result.Err, work.ErrWorkNotRequested) || errors.Is(result.Err, work.ErrStopped) {
		// Contingency plan.
		log.Warnf("Lost connection to work service, using RPC pool for " +
			"work generation")
		difficulty := c.Config.WorkDifficulty
		return c.pool.WorkGenerate(ctx, &c.Config.RPC, workHash, &difficulty)
	}
	return result.Work, result.Failures, result.Err
}

// publishBlock publishes a signed block through the pool and returns it as
// the account's new frontier, without cached work.
func (c *Client) publishBlock(ctx context.Context, block nano.Block) (frontiers.FrontierInfo, rpc.Failures, error) {
	_, failures, err := c.pool.Process(ctx, &c.Config.RPC, &block)
	if err != nil {
		return frontiers.FrontierInfo{}, failures, err
	}
	return frontiers.NewFrontierInfo(block, nil), failures, nil
}

// getWorkAndPublishUnsynced attaches proof-of-work to a block and publishes
// it. It does not cache work for the next block. This is used internally,
// where the frontier DB cannot be relied on to be in sync.
func (c *Client) getWorkAndPublishUnsynced(ctx context.Context, frontier *frontiers.FrontierInfo,
	block nano.Block) (frontiers.FrontierInfo, rpc.Failures, error) {

	var failures rpc.Failures

	blockWork, workFailures, err := c.getWork(ctx, frontier)
	failures.Merge(workFailures)
	if err != nil {
		return frontiers.FrontierInfo{}, failures, err
	}
	block.Work = blockWork

	info, publishFailures, err := c.publishBlock(ctx, block)
	failures.Merge(publishFailures)
	if err != nil {
		return frontiers.FrontierInfo{}, failures, err
	}
	return info, failures, nil
}

// autoPublishUnsynced is the engine's central publish primitive: it kicks
// off a prefetch for the block's own hash (the work hash of the *next*
// block), then fetches work for the block itself and publishes it.
func (c *Client) autoPublishUnsynced(ctx context.Context, frontier *frontiers.FrontierInfo,
	block nano.Block) (frontiers.FrontierInfo, rpc.Failures, error) {

	if c.Config.EnableWorkCache {
		c.Work.Request(c.Config.RPC, c.Config.WorkDifficulty, block.Hash())
	}
	return c.getWorkAndPublishUnsynced(ctx, frontier, block)
}

// BlockInfo downloads one block by hash through the pool, or nil if no node
// knows it.
func (c *Client) BlockInfo(ctx context.Context, hash [32]byte) (*rpc.BlockInfo, rpc.Failures, error) {
	return c.pool.BlockInfo(ctx, &c.Config.RPC, hash)
}

// DownloadFrontiers fetches the frontiers of the given accounts. Accounts
// the network has never seen come back as unopened sentinels; frontiers
// already in the DB are not downloaded again.
func (c *Client) DownloadFrontiers(ctx context.Context, accounts []nano.Account) (frontiers.NewFrontiers, rpc.Failures, error) {
	var downloaded frontiers.NewFrontiers
	if len(accounts) == 0 {
		return downloaded, nil, nil
	}

	rawHashes, failures, err := c.pool.AccountsFrontiers(ctx, &c.Config.RPC, accounts)
	if err != nil {
		return downloaded, failures, err
	}

	var hashes [][32]byte
	for i, hash := range rawHashes {
		if hash != nil {
			hashes = append(hashes, *hash)
			continue
		}
		sentinel := frontiers.NewUnopened(accounts[i])
		existing := c.Frontiers.AccountFrontier(accounts[i])
		if existing == nil || existing.Block != sentinel.Block {
			downloaded.New = append(downloaded.New, sentinel)
		}
	}

	toDownload := c.Frontiers.FilterKnownHashes(hashes)
	if len(toDownload) > 0 {
		infos, blockFailures, err := c.pool.BlocksInfo(ctx, &c.Config.RPC, toDownload)
		failures.Merge(blockFailures)
		if err != nil {
			return frontiers.NewFrontiers{}, failures, err
		}
		var blocks []nano.Block
		for _, info := range infos {
			if info != nil {
				blocks = append(blocks, info.Block)
			}
		}
		downloaded.Merge(frontiers.FrontiersFromBlocks(blocks))
	}

	if err := c.Frontiers.CheckNew(&downloaded); err != nil {
		return frontiers.NewFrontiers{}, failures, err
	}
	return downloaded, failures, nil
}

// DownloadUnknownFrontiers fetches the frontiers of every tracked account
// that has no DB entry yet.
func (c *Client) DownloadUnknownFrontiers(ctx context.Context) (frontiers.NewFrontiers, rpc.Failures, error) {
	unknown := c.Frontiers.FilterKnownAccounts(c.WalletDB.AllAccounts())
	return c.DownloadFrontiers(ctx, unknown)
}
