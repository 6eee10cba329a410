// Package frontiers tracks the latest signed block of every account a wallet
// watches, together with optional cached proof-of-work.
package frontiers

import (
	"github.com/CamoNano/camonanowallet/nano"
)

// FrontierInfo is the latest block of one account's chain plus optional
// cached proof-of-work for the account's next block.
type FrontierInfo struct {
	Block nano.Block

	cachedWork *nano.Work
}

// NewFrontierInfo pairs a block with optional cached work.
func NewFrontierInfo(block nano.Block, cachedWork *nano.Work) FrontierInfo {
	return FrontierInfo{Block: block, cachedWork: cachedWork}
}

// NewUnopened returns the sentinel frontier of an account with no chain yet:
// a change block with zero previous, balance and signature, and the genesis
// account as representative.
func NewUnopened(account nano.Account) FrontierInfo {
	return FrontierInfo{
		Block: nano.Block{
			Type:           nano.BlockTypeChange,
			Account:        account,
			Representative: nano.GenesisAccount,
		},
	}
}

// IsUnopened reports whether the frontier is the unopened sentinel.
func (f *FrontierInfo) IsUnopened() bool {
	sentinel := NewUnopened(f.Block.Account)
	return f.Block == sentinel.Block
}

// WorkHash returns the hash that proof-of-work for the account's next block
// must be computed against: the account key for unopened accounts, the
// frontier block hash otherwise.
func (f *FrontierInfo) WorkHash() [32]byte {
	if f.IsUnopened() {
		return f.Block.Account.Bytes()
	}
	return f.Block.Hash()
}

// CachedWork returns the cached work nonce, or nil.
func (f *FrontierInfo) CachedWork() *nano.Work {
	return f.cachedWork
}

// CacheWork stores a work nonce for the next block. A nonce that does not
// satisfy the difficulty clears the cache instead.
func (f *FrontierInfo) CacheWork(difficulty uint64, work nano.Work) {
	f.cachedWork = &work
	if !f.HasValidWork(difficulty) {
		log.Warnf("Attempted to cache invalid work for %v with work hash "+
			"%s: %s", f.Block.Account, nano.EncodeHash(f.WorkHash()),
			nano.EncodeWork(work))
		f.ClearWork()
	}
}

// ClearWork drops any cached work.
func (f *FrontierInfo) ClearWork() {
	f.cachedWork = nil
}

// HasValidWork reports whether cached work is present and satisfies the
// given difficulty.
func (f *FrontierInfo) HasValidWork(difficulty uint64) bool {
	if f.cachedWork == nil {
		return false
	}
	return nano.CheckWork(f.WorkHash(), difficulty, *f.cachedWork)
}

// NewFrontiers is a batch of frontiers on their way into the DB.
type NewFrontiers struct {
	New []FrontierInfo
}

// FrontiersFromBlocks wraps downloaded blocks as frontiers without cached
// work.
func FrontiersFromBlocks(blocks []nano.Block) NewFrontiers {
	frontiers := make([]FrontierInfo, 0, len(blocks))
	for _, block := range blocks {
		frontiers = append(frontiers, FrontierInfo{Block: block})
	}
	return NewFrontiers{New: frontiers}
}

// Merge appends another batch to this one.
func (n *NewFrontiers) Merge(other NewFrontiers) {
	n.New = append(n.New, other.New...)
}
