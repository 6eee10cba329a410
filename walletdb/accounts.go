package walletdb

import (
	"github.com/CamoNano/camonanowallet/keychain"
	"github.com/CamoNano/camonanowallet/nano"
)

// AccountDB tracks the wallet's ordinary accounts. Entries are unordered;
// their position does not correspond to the wallet index.
type AccountDB struct {
	infos []keychain.AccountInfo
}

// AllInfos returns the table's entries.
func (db *AccountDB) AllInfos() []keychain.AccountInfo {
	return db.infos
}

// AllAccounts returns the accounts of all entries.
func (db *AccountDB) AllAccounts() []nano.Account {
	accounts := make([]nano.Account, 0, len(db.infos))
	for _, info := range db.infos {
		accounts = append(accounts, info.Account)
	}
	return accounts
}

// ForceInsert adds an entry regardless of the account limit. It returns
// whether the table already contained the account.
func (db *AccountDB) ForceInsert(info keychain.AccountInfo) bool {
	if db.Contains(info.Account) {
		return true
	}
	log.Debugf("Adding %v to wallet DB", info.Account)
	db.infos = append(db.infos, info)
	return false
}

// Insert adds an entry, honoring the account limit. It returns whether the
// table already contained the account, or ErrDBAccountLimitReached.
func (db *AccountDB) Insert(limit int, info keychain.AccountInfo) (bool, error) {
	if len(db.infos) >= limit {
		return false, ErrDBAccountLimitReached
	}
	return db.ForceInsert(info), nil
}

// Remove deletes an entry, returning it, or ErrAccountNotFound.
func (db *AccountDB) Remove(account nano.Account) (keychain.AccountInfo, error) {
	for i, info := range db.infos {
		if info.Account == account {
			db.infos = append(db.infos[:i], db.infos[i+1:]...)
			return info, nil
		}
	}
	return keychain.AccountInfo{}, ErrAccountNotFound
}

// Info returns the entry for an account, or nil.
func (db *AccountDB) Info(account nano.Account) *keychain.AccountInfo {
	for i := range db.infos {
		if db.infos[i].Account == account {
			return &db.infos[i]
		}
	}
	return nil
}

// InfoFromIndex returns the entry at a wallet index, or nil.
func (db *AccountDB) InfoFromIndex(index uint32) *keychain.AccountInfo {
	for i := range db.infos {
		if db.infos[i].Index == index {
			return &db.infos[i]
		}
	}
	return nil
}

// Contains reports whether the table has an entry for the account.
func (db *AccountDB) Contains(account nano.Account) bool {
	return db.Info(account) != nil
}

// CamoAccountDB tracks the wallet's camo accounts.
type CamoAccountDB struct {
	infos []keychain.CamoAccountInfo
}

// AllInfos returns the table's entries.
func (db *CamoAccountDB) AllInfos() []keychain.CamoAccountInfo {
	return db.infos
}

// AllAccounts returns the camo accounts of all entries.
func (db *CamoAccountDB) AllAccounts() []nano.CamoAccount {
	accounts := make([]nano.CamoAccount, 0, len(db.infos))
	for _, info := range db.infos {
		accounts = append(accounts, info.Account)
	}
	return accounts
}

// AllNotificationAccounts returns the on-chain notification accounts of all
// entries.
func (db *CamoAccountDB) AllNotificationAccounts() []nano.Account {
	accounts := make([]nano.Account, 0, len(db.infos))
	for _, info := range db.infos {
		accounts = append(accounts, info.Account.SignerAccount())
	}
	return accounts
}

// ForceInsert adds an entry regardless of the account limit. It returns
// whether the table already contained the account.
func (db *CamoAccountDB) ForceInsert(info keychain.CamoAccountInfo) bool {
	if db.Contains(info.Account) {
		return true
	}
	log.Debugf("Adding %v to wallet DB", info.Account)
	db.infos = append(db.infos, info)
	return false
}

// Insert adds an entry, honoring the account limit. It returns whether the
// table already contained the account, or ErrDBAccountLimitReached.
func (db *CamoAccountDB) Insert(limit int, info keychain.CamoAccountInfo) (bool, error) {
	if len(db.infos) >= limit {
		return false, ErrDBAccountLimitReached
	}
	return db.ForceInsert(info), nil
}

// Remove deletes an entry, returning it, or ErrAccountNotFound.
func (db *CamoAccountDB) Remove(account nano.CamoAccount) (keychain.CamoAccountInfo, error) {
	for i, info := range db.infos {
		if info.Account == account {
			db.infos = append(db.infos[:i], db.infos[i+1:]...)
			return info, nil
		}
	}
	return keychain.CamoAccountInfo{}, ErrAccountNotFound
}

// Info returns the entry for a camo account, or nil.
func (db *CamoAccountDB) Info(account nano.CamoAccount) *keychain.CamoAccountInfo {
	for i := range db.infos {
		if db.infos[i].Account == account {
			return &db.infos[i]
		}
	}
	return nil
}

// InfoFromIndex returns the entry at a wallet index, or nil.
func (db *CamoAccountDB) InfoFromIndex(index uint32) *keychain.CamoAccountInfo {
	for i := range db.infos {
		if db.infos[i].Index == index {
			return &db.infos[i]
		}
	}
	return nil
}

// InfoFromNotificationAccount returns the entry whose signer account matches
// the given on-chain account, or nil.
func (db *CamoAccountDB) InfoFromNotificationAccount(account nano.Account) *keychain.CamoAccountInfo {
	for i := range db.infos {
		if db.infos[i].Account.SignerAccount() == account {
			return &db.infos[i]
		}
	}
	return nil
}

// Contains reports whether the table has an entry for the camo account.
func (db *CamoAccountDB) Contains(account nano.CamoAccount) bool {
	return db.Info(account) != nil
}

// ContainsNotificationAccount reports whether any entry's signer account
// matches the given on-chain account.
func (db *CamoAccountDB) ContainsNotificationAccount(account nano.Account) bool {
	return db.InfoFromNotificationAccount(account) != nil
}

// DerivedAccountDB tracks one-time accounts derived from stealth exchanges.
// Unlike the other tables it is not capped: derived accounts are created by
// incoming payments, not user action.
type DerivedAccountDB struct {
	infos []keychain.DerivedAccountInfo
}

// AllInfos returns the table's entries.
func (db *DerivedAccountDB) AllInfos() []keychain.DerivedAccountInfo {
	return db.infos
}

// AllAccounts returns the accounts of all entries.
func (db *DerivedAccountDB) AllAccounts() []nano.Account {
	accounts := make([]nano.Account, 0, len(db.infos))
	for _, info := range db.infos {
		accounts = append(accounts, info.Account)
	}
	return accounts
}

// Insert adds an entry. It returns whether the table already contained the
// account.
func (db *DerivedAccountDB) Insert(info keychain.DerivedAccountInfo) bool {
	if db.Contains(info.Account) {
		return true
	}
	log.Debugf("Adding %v to wallet DB", info.Account)
	db.infos = append(db.infos, info)
	return false
}

// InsertMany adds several entries.
func (db *DerivedAccountDB) InsertMany(infos []keychain.DerivedAccountInfo) {
	for _, info := range infos {
		db.Insert(info)
	}
}

// Remove deletes an entry, returning it, or ErrAccountNotFound.
func (db *DerivedAccountDB) Remove(account nano.Account) (keychain.DerivedAccountInfo, error) {
	for i, info := range db.infos {
		if info.Account == account {
			db.infos = append(db.infos[:i], db.infos[i+1:]...)
			return info, nil
		}
	}
	return keychain.DerivedAccountInfo{}, ErrAccountNotFound
}

// Info returns the entry for an account, or nil.
func (db *DerivedAccountDB) Info(account nano.Account) *keychain.DerivedAccountInfo {
	for i := range db.infos {
		if db.infos[i].Account == account {
			return &db.infos[i]
		}
	}
	return nil
}

// InfosFromMaster returns all entries derived from the given master camo
// account. Master resolution goes through the camo table by index, so the
// derived table never holds a reference into it.
func (db *DerivedAccountDB) InfosFromMaster(camoDB *CamoAccountDB, master nano.CamoAccount) []keychain.DerivedAccountInfo {
	masterInfo := camoDB.Info(master)
	if masterInfo == nil {
		return nil
	}

	var out []keychain.DerivedAccountInfo
	for _, info := range db.infos {
		if info.MasterIndex == masterInfo.Index {
			out = append(out, info)
		}
	}
	return out
}

// Contains reports whether the table has an entry for the account.
func (db *DerivedAccountDB) Contains(account nano.Account) bool {
	return db.Info(account) != nil
}
