package wallet

import (
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
)

// Time constants, in seconds.
const (
	OneMinute uint64 = 60
	OneHour          = OneMinute * 60
	OneDay           = OneHour * 24
)

// Config holds the process-wide wallet configuration. It is persisted
// alongside the encrypted wallets and shared by every wallet on disk.
type Config struct {
	// NormalDustThreshold is the minimum amount for ordinary receivables.
	// It does not apply to camo payments.
	NormalDustThreshold nano.Raw `json:"normal_dust_threshold"`

	// DBAccountLimit caps the normal and camo account tables. The limit is
	// separate for each table and does not apply to derived accounts.
	DBAccountLimit int `json:"db_account_limit"`

	// WorkDifficulty is the big-endian 64-bit proof-of-work target.
	WorkDifficulty uint64 `json:"work_difficulty"`

	// RPCAccountsReceivableBatchSize is the count field of
	// accounts_receivable requests.
	RPCAccountsReceivableBatchSize int `json:"rpc_accounts_receivable_batch_size"`

	// RPCAccountHistoryBatchSize is the count field of account_history
	// requests, and therefore the camo rescan page size.
	RPCAccountHistoryBatchSize int `json:"rpc_account_history_batch_size"`

	// RPCReceiveBatchSize is the number of transactions received in one
	// parallel batch.
	RPCReceiveBatchSize int `json:"rpc_receive_batch_size"`

	// EnableWorkCache turns on proof-of-work prefetching for likely next
	// blocks.
	EnableWorkCache bool `json:"enable_work_cache"`

	// DefaultCamoVersions are the protocol versions new camo accounts are
	// created for.
	DefaultCamoVersions []nano.CamoVersion `json:"default_camo_versions"`

	// Representatives is the candidate representative set for new blocks.
	Representatives []nano.Account `json:"representatives"`

	// RPC configures the node pool.
	RPC rpc.Config `json:"rpc"`
}

// DefaultConfig returns the default configuration with the given
// representative set and nodes. It panics when reps is empty: block
// construction cannot work without a representative to pick.
func DefaultConfig(reps []nano.Account, nodes []*rpc.Node) Config {
	if len(reps) == 0 {
		panic(ErrNoRepresentatives)
	}
	return Config{
		NormalDustThreshold: nano.OneMicroNano,

		DBAccountLimit: 20,

		WorkDifficulty: 0xfffffff800000000,

		RPCAccountsReceivableBatchSize: 25,
		RPCAccountHistoryBatchSize:     50,
		RPCReceiveBatchSize:            3,
		EnableWorkCache:                true,

		DefaultCamoVersions: []nano.CamoVersion{nano.CamoVersionOne},

		Representatives: reps,

		RPC: rpc.Config{
			Nodes:              nodes,
			RetryLimit:         8,
			UseBannedAsBackup:  true,
			InvalidDataBanTime: OneHour * 12,
			FailureBanTime:     OneMinute * 15,
		},
	}
}
