package rpc

import "github.com/CamoNano/camonanowallet/nano"

// Receivable is a pending incoming transfer: a send block destined to one of
// our accounts that has not been consumed by a receive block yet.
type Receivable struct {
	// Recipient is the account the funds are addressed to.
	Recipient nano.Account

	// BlockHash is the hash of the sending block.
	BlockHash [32]byte

	// Amount is the pending amount.
	Amount nano.Raw
}

// BlockInfo is a downloaded block together with its confirmed chain height.
type BlockInfo struct {
	Height uint64
	Block  nano.Block
}

// AccountInfo is the summary a node reports for an opened account.
type AccountInfo struct {
	Frontier       [32]byte
	Representative nano.Account
	Balance        nano.Raw
	Height         uint64
}

// Config is the pool section of the client configuration.
type Config struct {
	// Nodes are the configured remote nodes.
	Nodes []*Node

	// RetryLimit is the number of full passes over the candidate nodes
	// before a command is abandoned.
	RetryLimit int

	// UseBannedAsBackup keeps banned nodes at the end of the candidate
	// list instead of dropping them.
	UseBannedAsBackup bool

	// InvalidDataBanTime is the ban, in seconds, for nodes returning
	// semantically invalid data.
	InvalidDataBanTime uint64

	// FailureBanTime is the ban, in seconds, for miscellaneous failures.
	FailureBanTime uint64
}
