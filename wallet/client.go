// Package wallet implements the wallet client core: it composes the key
// derivation, account and frontier databases, RPC pool and work service, and
// exposes the operations the command layer drives.
package wallet

import (
	"math/rand"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/keychain"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/CamoNano/camonanowallet/walletdb"
	"github.com/CamoNano/camonanowallet/work"
)

// Client is the wallet core. All mutation happens from the foreground task;
// the work service is the only background component and is joined through
// UpdateWorkCache.
type Client struct {
	Seed   keychain.Seed
	Config Config

	WalletDB  *walletdb.DB
	Frontiers *frontiers.DB

	Work *work.Manager

	pool rpc.Manager
}

// New assembles a wallet around a seed and configuration.
func New(seed keychain.Seed, config Config) (*Client, error) {
	if len(config.Representatives) == 0 {
		return nil, ErrNoRepresentatives
	}
	return &Client{
		Seed:      seed,
		Config:    config,
		WalletDB:  walletdb.NewDB(),
		Frontiers: frontiers.NewDB(),
		Work:      work.NewManager(),
	}, nil
}

// Close abandons background work. Pending proof-of-work jobs are discarded.
func (c *Client) Close() {
	c.Work.Stop()
}

// chooseRepresentative picks the representative for a new block: an explicit
// override wins, a current representative already in the configured set is
// kept, and otherwise one is drawn uniformly from the configured set.
func (c *Client) chooseRepresentative(current nano.Account, override *nano.Account) nano.Account {
	if override != nil {
		return *override
	}
	for _, rep := range c.Config.Representatives {
		if rep == current {
			return current
		}
	}
	if len(c.Config.Representatives) == 0 {
		panic(ErrNoRepresentatives)
	}
	return c.Config.Representatives[rand.Intn(len(c.Config.Representatives))]
}

// AddAccount derives and tracks the ordinary account at the given index.
func (c *Client) AddAccount(index uint32) (keychain.AccountInfo, error) {
	_, info := c.Seed.Key(index)
	if _, err := c.WalletDB.Accounts.Insert(c.Config.DBAccountLimit, info); err != nil {
		return keychain.AccountInfo{}, err
	}
	return info, nil
}

// AddCamoAccount derives and tracks the camo account at the given index.
func (c *Client) AddCamoAccount(index uint32, versions nano.CamoVersions) (keychain.CamoAccountInfo, error) {
	_, info, err := c.Seed.CamoKey(index, versions)
	if err != nil {
		return keychain.CamoAccountInfo{}, err
	}
	if _, err := c.WalletDB.CamoAccounts.Insert(c.Config.DBAccountLimit, info); err != nil {
		return keychain.CamoAccountInfo{}, err
	}
	return info, nil
}

// RemoveAccount stops tracking an ordinary or derived account, removing its
// frontier, and returns the frontier.
func (c *Client) RemoveAccount(account nano.Account) (frontiers.FrontierInfo, error) {
	_, accountErr := c.WalletDB.Accounts.Remove(account)
	_, derivedErr := c.WalletDB.DerivedAccounts.Remove(account)
	if accountErr != nil && derivedErr != nil {
		return frontiers.FrontierInfo{}, ErrAccountNotFound
	}

	frontier, err := c.Frontiers.Remove(account)
	if err != nil {
		return frontiers.FrontierInfo{}, ErrAccountNotFound
	}
	return frontier, nil
}

// RemoveCamoAccount stops tracking a camo account, cascading to its derived
// accounts and its notification account's frontier, and returns that
// frontier.
func (c *Client) RemoveCamoAccount(account nano.CamoAccount) (frontiers.FrontierInfo, error) {
	for _, derived := range c.DerivedAccountsFromMaster(account) {
		if _, err := c.WalletDB.DerivedAccounts.Remove(derived); err != nil {
			log.Errorf("Unknown account %v marked for removal from wallet DB: %v",
				derived, err)
		}
		if _, err := c.Frontiers.Remove(derived); err != nil {
			log.Errorf("Unknown account %v marked for removal from frontiers DB: %v",
				derived, err)
		}
	}

	if _, err := c.WalletDB.CamoAccounts.Remove(account); err != nil {
		return frontiers.FrontierInfo{}, ErrAccountNotFound
	}
	frontier, err := c.Frontiers.Remove(account.SignerAccount())
	if err != nil {
		return frontiers.FrontierInfo{}, ErrAccountNotFound
	}
	return frontier, nil
}

// DerivedAccountsFromMaster returns the tracked one-time accounts derived
// from the given master camo account.
func (c *Client) DerivedAccountsFromMaster(master nano.CamoAccount) []nano.Account {
	infos := c.WalletDB.DerivedAccounts.InfosFromMaster(&c.WalletDB.CamoAccounts, master)
	accounts := make([]nano.Account, 0, len(infos))
	for _, info := range infos {
		accounts = append(accounts, info.Account)
	}
	return accounts
}

// SetNewFrontiers commits downloaded or published frontiers to the DB.
// Batches reaching this point have already been pre-checked, so a failure
// here indicates a bug and is logged rather than returned.
func (c *Client) SetNewFrontiers(batch frontiers.NewFrontiers) {
	if err := c.Frontiers.Insert(batch); err != nil {
		log.Errorf("Attempted to set invalid frontier(s): %v", err)
	}
}

// HandleRPCFailures feeds a command's failures back into the pool's ban
// bookkeeping.
func (c *Client) HandleRPCFailures(failures rpc.Failures) {
	c.pool.HandleFailures(&c.Config.RPC, failures)
}
