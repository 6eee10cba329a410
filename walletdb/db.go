// Package walletdb tracks the accounts a wallet controls: ordinary accounts,
// camo accounts, and one-time accounts derived from stealth exchanges.
package walletdb

import (
	"github.com/CamoNano/camonanowallet/keychain"
	"github.com/CamoNano/camonanowallet/nano"
)

// DB composes the three account tables and resolves accounts back to their
// signing keys.
type DB struct {
	Accounts        AccountDB
	CamoAccounts    CamoAccountDB
	DerivedAccounts DerivedAccountDB
}

// NewDB returns an empty wallet DB.
func NewDB() *DB {
	return &DB{}
}

// FindKey finds the signing key of an on-chain account, regardless of which
// table it lives in. The tables are searched in order: ordinary accounts,
// derived accounts, camo notification accounts. Returns nil if the account
// is unknown.
func (db *DB) FindKey(seed *keychain.Seed, account nano.Account) *nano.Key {
	key := db.keyFromAccount(seed, account)
	if key == nil {
		key = db.keyFromDerivedAccount(seed, account)
	}
	if key == nil {
		key = db.keyFromNotificationAccount(seed, account)
	}
	if key != nil && key.Account() != account {
		panic("broken FindKey: recovered key does not match account")
	}
	return key
}

func (db *DB) keyFromAccount(seed *keychain.Seed, account nano.Account) *nano.Key {
	info := db.Accounts.Info(account)
	if info == nil {
		return nil
	}
	key, _ := seed.Key(info.Index)
	return key
}

func (db *DB) keyFromDerivedAccount(seed *keychain.Seed, account nano.Account) *nano.Key {
	info := db.DerivedAccounts.Info(account)
	if info == nil {
		return nil
	}
	masterInfo := db.CamoAccounts.InfoFromIndex(info.MasterIndex)
	if masterInfo == nil {
		return nil
	}
	key, _ := seed.DeriveKeyFromSecret(masterInfo, info.Secret)
	return key
}

func (db *DB) keyFromNotificationAccount(seed *keychain.Seed, account nano.Account) *nano.Key {
	keys := db.FindCamoKeyFromNotificationAccount(seed, account)
	if keys == nil {
		return nil
	}
	return keys.SignerKey()
}

// FindCamoKey finds the camo keys of a camo account in the wallet. Returns
// nil if the account is unknown.
func (db *DB) FindCamoKey(seed *keychain.Seed, account nano.CamoAccount) *nano.CamoKeys {
	info := db.CamoAccounts.Info(account)
	if info == nil {
		return nil
	}
	keys, _, err := seed.CamoKey(info.Index, account.Versions())
	if err != nil {
		panic("broken FindCamoKey: " + err.Error())
	}
	return keys
}

// FindCamoKeyFromNotificationAccount finds the camo keys whose notification
// account matches the given on-chain account. Returns nil if unknown.
func (db *DB) FindCamoKeyFromNotificationAccount(seed *keychain.Seed, account nano.Account) *nano.CamoKeys {
	info := db.CamoAccounts.InfoFromNotificationAccount(account)
	if info == nil {
		return nil
	}
	keys, _, err := seed.CamoKey(info.Index, info.Account.Versions())
	if err != nil {
		panic("broken FindCamoKeyFromNotificationAccount: " + err.Error())
	}
	return keys
}

// ContainsAccount reports whether the wallet knows the key of the given
// on-chain account, regardless of which table it lives in.
func (db *DB) ContainsAccount(account nano.Account) bool {
	return db.Accounts.Contains(account) ||
		db.CamoAccounts.ContainsNotificationAccount(account) ||
		db.DerivedAccounts.Contains(account)
}

// PublicAccounts returns all on-chain accounts controlled by the wallet
// except derived accounts.
func (db *DB) PublicAccounts() []nano.Account {
	return append(db.Accounts.AllAccounts(), db.CamoAccounts.AllNotificationAccounts()...)
}

// AllAccounts returns all on-chain accounts controlled by the wallet,
// including derived accounts.
func (db *DB) AllAccounts() []nano.Account {
	return append(db.PublicAccounts(), db.DerivedAccounts.AllAccounts()...)
}

// SignBlock signs the given block with the key of its account, returning
// ErrAccountNotFound if the wallet does not control it.
func (db *DB) SignBlock(seed *keychain.Seed, block *nano.Block) error {
	key := db.FindKey(seed, block.Account)
	if key == nil {
		return ErrAccountNotFound
	}
	block.Sign(key)
	return nil
}
