// Package keychain turns a wallet's master seed into signer keys, camo keys
// and one-time derived keys.
package keychain

import (
	"errors"

	"github.com/CamoNano/camonanowallet/nano"
)

var (
	// ErrInvalidSeed is returned when seed material fails to parse.
	ErrInvalidSeed = errors.New("invalid seed")
)

// AccountInfo ties an ordinary account to the seed index it was derived
// from. Invariant: Account == KeyFromSeed(seed, Index).Account().
type AccountInfo struct {
	Index   uint32
	Account nano.Account
}

// CamoAccountInfo ties a camo account to the seed index it was derived from.
type CamoAccountInfo struct {
	Index   uint32
	Account nano.CamoAccount
}

// DerivedAccountInfo describes a one-time on-chain account derived from a
// stealth ECDH exchange. Invariant: Account is the account of the key
// derived from the master camo key at MasterIndex with Secret.
type DerivedAccountInfo struct {
	// Versions is the camo version set the master key was derived for.
	Versions nano.CamoVersions

	// Secret is the ECDH shared secret of the exchange.
	Secret nano.SecretBytes

	// MasterIndex is the seed index of the master camo account.
	MasterIndex uint32

	// Index is the sub-index on the shared secret (currently always 0).
	Index uint32

	Account nano.Account
}

// Zero overwrites the info's secret material.
func (i *DerivedAccountInfo) Zero() {
	i.Secret.Zero()
}

// Seed is a wallet's 32-byte master seed.
type Seed struct {
	bytes nano.SecretBytes
}

// SeedFromBytes wraps raw secret bytes as a seed.
func SeedFromBytes(b nano.SecretBytes) Seed {
	return Seed{bytes: b}
}

// SeedFromHex parses a 64-character hex seed.
func SeedFromHex(s string) (Seed, error) {
	b, err := nano.SecretFromHex(s)
	if err != nil {
		return Seed{}, ErrInvalidSeed
	}
	return Seed{bytes: b}, nil
}

// Hex renders the seed as lowercase hex.
func (s *Seed) Hex() string {
	return s.bytes.Hex()
}

// Bytes returns the raw seed bytes.
func (s *Seed) Bytes() nano.SecretBytes {
	return s.bytes
}

// Zero overwrites the seed.
func (s *Seed) Zero() {
	s.bytes.Zero()
}

// Key derives the signer key at the given index.
func (s *Seed) Key(index uint32) (*nano.Key, AccountInfo) {
	key := nano.KeyFromSeed(&s.bytes, index)
	return key, AccountInfo{Index: index, Account: key.Account()}
}

// CamoKey derives the camo key pair at the given index. It fails when the
// version set contains no supported member.
func (s *Seed) CamoKey(index uint32, versions nano.CamoVersions) (*nano.CamoKeys, CamoAccountInfo, error) {
	keys, err := nano.CamoKeysFromSeed(&s.bytes, index, versions)
	if err != nil {
		return nil, CamoAccountInfo{}, err
	}
	return keys, CamoAccountInfo{Index: index, Account: keys.CamoAccount()}, nil
}

// DeriveKeyFromSecret derives the one-time key for an ECDH secret against
// the master camo account described by master.
func (s *Seed) DeriveKeyFromSecret(master *CamoAccountInfo, secret nano.SecretBytes) (*nano.Key, DerivedAccountInfo) {
	masterKeys, _, err := s.CamoKey(master.Index, master.Account.Versions())
	if err != nil {
		panic("broken DeriveKeyFromSecret: invalid camo key: " + err.Error())
	}
	key := masterKeys.DeriveKey(secret)
	info := DerivedAccountInfo{
		Versions:    masterKeys.Versions(),
		Secret:      secret,
		MasterIndex: master.Index,
		Index:       0,
		Account:     key.Account(),
	}
	return key, info
}

// DeriveKey runs the receiver's side of the stealth exchange against a
// notification and derives the resulting one-time key.
func (s *Seed) DeriveKey(master *CamoAccountInfo, notification nano.Notification) (*nano.Key, DerivedAccountInfo, error) {
	masterKeys, _, err := s.CamoKey(master.Index, master.Account.Versions())
	if err != nil {
		panic("broken DeriveKey: invalid camo key: " + err.Error())
	}
	secret, err := masterKeys.ReceiverECDH(notification)
	if err != nil {
		return nil, DerivedAccountInfo{}, err
	}
	key, info := s.DeriveKeyFromSecret(master, secret)
	return key, info, nil
}
