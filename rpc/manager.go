// Package rpc fans wallet commands out over a pool of configured remote
// nodes, tracking per-node capabilities and bans.
package rpc

import (
	"context"
	"math/rand"
	"sort"

	"github.com/CamoNano/camonanowallet/nano"
	"github.com/davecgh/go-spew/spew"
)

// Manager dispatches commands over the node pool described by a Config. It
// holds no state of its own; bans and capabilities live on the nodes.
type Manager struct{}

// usableNodes returns the candidate nodes for a command: shuffled for load
// spreading, stable-sorted so unbanned nodes come first (banned ones ordered
// by ban expiry), filtered by capability, and with banned nodes dropped
// entirely unless they serve as backup.
func (m Manager) usableNodes(cfg *Config, command string) []*Node {
	now := currentTime()

	shuffled := make([]*Node, len(cfg.Nodes))
	copy(shuffled, cfg.Nodes)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	sort.SliceStable(shuffled, func(i, j int) bool {
		return banRank(shuffled[i], now) < banRank(shuffled[j], now)
	})

	var out []*Node
	for _, node := range shuffled {
		if !node.Commands.Supports(command) {
			continue
		}
		if node.IsBanned(now) && !cfg.UseBannedAsBackup {
			continue
		}
		out = append(out, node)
	}
	return out
}

func banRank(n *Node, now uint64) uint64 {
	if n.IsBanned(now) {
		return n.BannedUntil
	}
	return 0
}

// execute runs a command against candidate nodes until one succeeds,
// retrying up to the configured limit. The returned failures cover every
// node that was tried and failed, including on the successful pass.
func (m Manager) execute(ctx context.Context, cfg *Config, command string,
	call func(context.Context, *Node) error) (Failures, error) {

	var failures Failures
	for attempt := 0; attempt < cfg.RetryLimit; attempt++ {
		nodes := m.usableNodes(cfg, command)
		if len(nodes) == 0 {
			return failures, ErrNoUsableNodes
		}
		for _, node := range nodes {
			if err := ctx.Err(); err != nil {
				return failures, err
			}
			err := call(ctx, node)
			if err == nil {
				log.Tracef("Success (%s) from %s", command, node.URL)
				return failures, nil
			}
			log.Tracef("Error (%s) from %s: %v", command, node.URL, err)
			failures = append(failures, Failure{Err: err, URL: node.URL})
		}
		log.Warnf("Failed to execute RPC command '%s'. Trying again...", command)
	}
	return failures, ErrCommandFailed
}

// HandleFailures feeds a command's failures back into the pool, advancing
// the bans of the nodes involved.
func (m Manager) HandleFailures(cfg *Config, failures Failures) {
	for _, failure := range failures {
		found := false
		for _, node := range cfg.Nodes {
			if node.URL == failure.URL {
				node.handleErr(cfg, failure.Err)
				found = true
				break
			}
		}
		if !found {
			log.Warnf("Failure reported for unknown RPC node %s", failure.URL)
		}
	}
}

// AccountBalance returns the confirmed balance of an account.
func (m Manager) AccountBalance(ctx context.Context, cfg *Config, account nano.Account) (nano.Raw, Failures, error) {
	var out nano.Raw
	failures, err := m.execute(ctx, cfg, "account_balance",
		func(ctx context.Context, n *Node) error {
			balance, err := n.accountBalance(ctx, account)
			if err != nil {
				return err
			}
			out = balance
			return nil
		})
	return out, failures, err
}

// AccountHistory returns up to count blocks of an account's history,
// starting at head (the frontier when nil), skipping offset blocks.
func (m Manager) AccountHistory(ctx context.Context, cfg *Config, account nano.Account,
	count int, head *[32]byte, offset *int) ([]nano.Block, Failures, error) {

	var out []nano.Block
	failures, err := m.execute(ctx, cfg, "account_history",
		func(ctx context.Context, n *Node) error {
			history, err := n.accountHistory(ctx, account, count, head, offset)
			if err != nil {
				return err
			}
			out = history
			return nil
		})
	return out, failures, err
}

// AccountInfo returns a node's summary of an account, or nil if the account
// is unopened.
func (m Manager) AccountInfo(ctx context.Context, cfg *Config, account nano.Account) (*AccountInfo, Failures, error) {
	var out *AccountInfo
	failures, err := m.execute(ctx, cfg, "account_info",
		func(ctx context.Context, n *Node) error {
			info, err := n.accountInfo(ctx, account)
			if err != nil {
				return err
			}
			out = info
			return nil
		})
	return out, failures, err
}

// AccountRepresentative returns an account's representative, or nil if the
// account is unopened.
func (m Manager) AccountRepresentative(ctx context.Context, cfg *Config, account nano.Account) (*nano.Account, Failures, error) {
	var out *nano.Account
	failures, err := m.execute(ctx, cfg, "account_representative",
		func(ctx context.Context, n *Node) error {
			rep, err := n.accountRepresentative(ctx, account)
			if err != nil {
				return err
			}
			out = rep
			return nil
		})
	return out, failures, err
}

// AccountsBalances returns the balances of several accounts, aligned with
// the request; unopened accounts report zero.
func (m Manager) AccountsBalances(ctx context.Context, cfg *Config, accounts []nano.Account) ([]nano.Raw, Failures, error) {
	var out []nano.Raw
	failures, err := m.execute(ctx, cfg, "accounts_balances",
		func(ctx context.Context, n *Node) error {
			balances, err := n.accountsBalances(ctx, accounts)
			if err != nil {
				return err
			}
			out = balances
			return nil
		})
	return out, failures, err
}

// AccountsFrontiers returns the frontier hashes of several accounts,
// aligned with the request; entries are nil for unopened accounts.
func (m Manager) AccountsFrontiers(ctx context.Context, cfg *Config, accounts []nano.Account) ([]*[32]byte, Failures, error) {
	var out []*[32]byte
	failures, err := m.execute(ctx, cfg, "accounts_frontiers",
		func(ctx context.Context, n *Node) error {
			hashes, err := n.accountsFrontiers(ctx, accounts)
			if err != nil {
				return err
			}
			out = hashes
			return nil
		})
	return out, failures, err
}

// AccountsReceivable returns pending incoming transfers for several
// accounts, at most count per account, ignoring amounts below threshold.
func (m Manager) AccountsReceivable(ctx context.Context, cfg *Config, accounts []nano.Account,
	count int, threshold nano.Raw) ([]Receivable, Failures, error) {

	var out []Receivable
	failures, err := m.execute(ctx, cfg, "accounts_receivable",
		func(ctx context.Context, n *Node) error {
			receivable, err := n.accountsReceivable(ctx, accounts, count, threshold)
			if err != nil {
				return err
			}
			out = receivable
			return nil
		})
	return out, failures, err
}

// AccountsRepresentatives returns the representatives of several accounts,
// aligned with the request; entries are nil for unopened accounts.
func (m Manager) AccountsRepresentatives(ctx context.Context, cfg *Config, accounts []nano.Account) ([]*nano.Account, Failures, error) {
	var out []*nano.Account
	failures, err := m.execute(ctx, cfg, "accounts_representatives",
		func(ctx context.Context, n *Node) error {
			reps, err := n.accountsRepresentatives(ctx, accounts)
			if err != nil {
				return err
			}
			out = reps
			return nil
		})
	return out, failures, err
}

// BlockInfo downloads one block by hash, or nil if no node knows it.
func (m Manager) BlockInfo(ctx context.Context, cfg *Config, hash [32]byte) (*BlockInfo, Failures, error) {
	var out *BlockInfo
	failures, err := m.execute(ctx, cfg, "block_info",
		func(ctx context.Context, n *Node) error {
			info, err := n.blockInfo(ctx, hash)
			if err != nil {
				return err
			}
			out = info
			return nil
		})
	return out, failures, err
}

// BlocksInfo downloads several blocks by hash, aligned with the request;
// entries are nil for unknown blocks.
func (m Manager) BlocksInfo(ctx context.Context, cfg *Config, hashes [][32]byte) ([]*BlockInfo, Failures, error) {
	var out []*BlockInfo
	failures, err := m.execute(ctx, cfg, "blocks_info",
		func(ctx context.Context, n *Node) error {
			infos, err := n.blocksInfo(ctx, hashes)
			if err != nil {
				return err
			}
			out = infos
			return nil
		})
	return out, failures, err
}

// Process publishes a signed block to the network, returning its hash.
func (m Manager) Process(ctx context.Context, cfg *Config, block *nano.Block) ([32]byte, Failures, error) {
	log.Debugf("Publishing block %s for %v: %v",
		nano.EncodeHash(block.Hash()), block.Account,
		newLogClosure(func() string { return spew.Sdump(block) }))

	var out [32]byte
	failures, err := m.execute(ctx, cfg, "process",
		func(ctx context.Context, n *Node) error {
			hash, err := n.process(ctx, block)
			if err != nil {
				return err
			}
			out = hash
			return nil
		})
	return out, failures, err
}

// WorkGenerate requests proof-of-work for a work hash. When difficulty is
// non-nil it is forwarded to the node and the returned nonce is verified
// against it.
func (m Manager) WorkGenerate(ctx context.Context, cfg *Config, hash [32]byte, difficulty *uint64) (nano.Work, Failures, error) {
	var out nano.Work
	failures, err := m.execute(ctx, cfg, "work_generate",
		func(ctx context.Context, n *Node) error {
			work, err := n.workGenerate(ctx, hash, difficulty)
			if err != nil {
				return err
			}
			out = work
			return nil
		})
	return out, failures, err
}
