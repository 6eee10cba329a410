package frontiers

import (
	"errors"

	"github.com/CamoNano/camonanowallet/nano"
)

var (
	// ErrAccountNotFound is returned when an account has no entry in the DB.
	ErrAccountNotFound = errors.New("account not found")

	// ErrFrontierBalanceOverflow is returned when an insert would push the
	// sum of all tracked balances past the 128-bit range.
	ErrFrontierBalanceOverflow = errors.New("frontier balance overflow")

	// ErrInvalidEpochBlock is returned when an epoch block does not follow
	// the epoch transition rules against the previous frontier.
	ErrInvalidEpochBlock = errors.New("invalid epoch block")
)

// DB maps each tracked account to its frontier. It maintains the running sum
// of all balances as a sanity check; the sum is not necessarily the wallet's
// balance.
type DB struct {
	frontiers []FrontierInfo

	sumBalance nano.Raw
}

// NewDB returns an empty frontier DB.
func NewDB() *DB {
	return &DB{}
}

func (db *DB) indexOfAccount(account nano.Account) int {
	for i := range db.frontiers {
		if db.frontiers[i].Block.Account == account {
			return i
		}
	}
	return -1
}

func (db *DB) indexOfHash(hash [32]byte) int {
	for i := range db.frontiers {
		if db.frontiers[i].Block.Hash() == hash {
			return i
		}
	}
	return -1
}

// couldInsert simulates replacing or adding one frontier. On success it
// returns the index to replace, or -1 to add.
func (db *DB) couldInsert(candidate *FrontierInfo) (int, error) {
	total := db.sumBalance

	index := db.indexOfAccount(candidate.Block.Account)
	if index >= 0 {
		prev := &db.frontiers[index].Block
		var underflow bool
		total, underflow = total.SubChecked(prev.Balance)
		if underflow {
			panic("broken frontier DB: sum smaller than entry")
		}

		if candidate.Block.Type.IsEpoch() && !candidate.Block.FollowsEpochRules(prev) {
			return 0, ErrInvalidEpochBlock
		}
	}

	if _, overflow := total.AddChecked(candidate.Block.Balance); overflow {
		return 0, ErrFrontierBalanceOverflow
	}
	return index, nil
}

// CheckNew verifies that an entire batch of downloaded frontiers could be
// inserted without breaking the DB invariants. The batch is applied in order
// to a scratch copy of the DB, so the check covers the cumulative effect of
// all entries.
func (db *DB) CheckNew(downloaded *NewFrontiers) error {
	sim := &DB{
		frontiers:  append([]FrontierInfo(nil), db.frontiers...),
		sumBalance: db.sumBalance,
	}
	for i := range downloaded.New {
		index, err := sim.couldInsert(&downloaded.New[i])
		if err != nil {
			return err
		}
		if index >= 0 {
			sim.update(index, downloaded.New[i])
		} else {
			sim.add(downloaded.New[i])
		}
	}
	return nil
}

func (db *DB) add(info FrontierInfo) {
	if db.indexOfAccount(info.Block.Account) >= 0 {
		panic("broken frontier DB: account already exists")
	}
	sum, overflow := db.sumBalance.AddChecked(info.Block.Balance)
	if overflow {
		panic("broken frontier DB: unchecked balance overflow")
	}
	db.sumBalance = sum
	db.frontiers = append(db.frontiers, info)
}

func (db *DB) update(index int, info FrontierInfo) {
	old := &db.frontiers[index]
	if old.Block.Account != info.Block.Account {
		panic("broken frontier DB: index does not match account")
	}
	sum, underflow := db.sumBalance.SubChecked(old.Block.Balance)
	if underflow {
		panic("broken frontier DB: sum smaller than entry")
	}
	sum, overflow := sum.AddChecked(info.Block.Balance)
	if overflow {
		panic("broken frontier DB: unchecked balance overflow")
	}
	db.sumBalance = sum
	db.frontiers[index] = info
}

// Insert adds or replaces several accounts' frontiers. The whole batch is
// pre-checked first; on any failure nothing is modified.
func (db *DB) Insert(batch NewFrontiers) error {
	if err := db.CheckNew(&batch); err != nil {
		return err
	}
	for _, info := range batch.New {
		index, err := db.couldInsert(&info)
		if err != nil {
			return err
		}

		log.Debugf("Adding frontier %s for %v (new account: %v)",
			nano.EncodeHash(info.Block.Hash()), info.Block.Account,
			index < 0)

		if index >= 0 {
			db.update(index, info)
		} else {
			db.add(info)
		}
	}
	return nil
}

// Remove deletes an account's frontier, returning it.
func (db *DB) Remove(account nano.Account) (FrontierInfo, error) {
	index := db.indexOfAccount(account)
	if index < 0 {
		return FrontierInfo{}, ErrAccountNotFound
	}
	removed := db.frontiers[index]
	sum, underflow := db.sumBalance.SubChecked(removed.Block.Balance)
	if underflow {
		panic("broken frontier DB: sum smaller than entry")
	}
	db.sumBalance = sum
	db.frontiers = append(db.frontiers[:index], db.frontiers[index+1:]...)
	return removed, nil
}

// RemoveMany deletes several accounts' frontiers.
func (db *DB) RemoveMany(accounts []nano.Account) ([]FrontierInfo, error) {
	removed := make([]FrontierInfo, 0, len(accounts))
	for _, account := range accounts {
		info, err := db.Remove(account)
		if err != nil {
			return nil, err
		}
		removed = append(removed, info)
	}
	return removed, nil
}

// AccountFrontier returns the frontier of an account, or nil.
func (db *DB) AccountFrontier(account nano.Account) *FrontierInfo {
	index := db.indexOfAccount(account)
	if index < 0 {
		return nil
	}
	return &db.frontiers[index]
}

// AccountsFrontiers returns the frontiers of several accounts; entries are
// nil for unknown accounts.
func (db *DB) AccountsFrontiers(accounts []nano.Account) []*FrontierInfo {
	out := make([]*FrontierInfo, len(accounts))
	for i, account := range accounts {
		out[i] = db.AccountFrontier(account)
	}
	return out
}

// AccountBalance returns the balance of an account's frontier and whether
// the account is known.
func (db *DB) AccountBalance(account nano.Account) (nano.Raw, bool) {
	frontier := db.AccountFrontier(account)
	if frontier == nil {
		return nano.Raw{}, false
	}
	return frontier.Block.Balance, true
}

// AllAccounts returns every account in the DB.
func (db *DB) AllAccounts() []nano.Account {
	accounts := make([]nano.Account, 0, len(db.frontiers))
	for i := range db.frontiers {
		accounts = append(accounts, db.frontiers[i].Block.Account)
	}
	return accounts
}

// AllFrontiers returns a copy of every entry in the DB.
func (db *DB) AllFrontiers() []FrontierInfo {
	out := make([]FrontierInfo, len(db.frontiers))
	copy(out, db.frontiers)
	return out
}

// SumBalance returns the running sum of all tracked balances.
func (db *DB) SumBalance() nano.Raw {
	return db.sumBalance
}

// SetAccountWork caches a work nonce on an account's frontier. The nonce is
// dropped if it does not satisfy the difficulty.
func (db *DB) SetAccountWork(difficulty uint64, account nano.Account, work nano.Work) error {
	frontier := db.AccountFrontier(account)
	if frontier == nil {
		return ErrAccountNotFound
	}
	frontier.CacheWork(difficulty, work)
	return nil
}

// SetWorkByHash caches a work nonce on the frontier whose work hash matches.
// The nonce is dropped if it does not satisfy the difficulty.
func (db *DB) SetWorkByHash(difficulty uint64, workHash [32]byte, work nano.Work) error {
	for i := range db.frontiers {
		if db.frontiers[i].WorkHash() == workHash {
			db.frontiers[i].CacheWork(difficulty, work)
			return nil
		}
	}
	return ErrAccountNotFound
}

// FilterKnownHashes drops hashes that already have a frontier in the DB,
// avoiding redundant downloads.
func (db *DB) FilterKnownHashes(hashes [][32]byte) [][32]byte {
	var out [][32]byte
	for _, hash := range hashes {
		if db.indexOfHash(hash) < 0 {
			out = append(out, hash)
		}
	}
	return out
}

// FilterKnownAccounts drops accounts that already have a frontier in the DB,
// avoiding redundant downloads.
func (db *DB) FilterKnownAccounts(accounts []nano.Account) []nano.Account {
	var out []nano.Account
	for _, account := range accounts {
		if db.indexOfAccount(account) < 0 {
			out = append(out, account)
		}
	}
	return out
}
