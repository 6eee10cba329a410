package nano

import "golang.org/x/crypto/blake2b"

// Raw unit constants. One whole coin is 10^30 raw.
var (
	OneRaw       = MustRaw("1")
	OneNanoNano  = MustRaw("1000000000000000000000")
	OneMicroNano = MustRaw("1000000000000000000000000")
	OneMilliNano = MustRaw("1000000000000000000000000000")
	OneNano      = MustRaw("1000000000000000000000000000000")
)

// Dust thresholds for camo payments. Senders must attach at least the sender
// threshold to a notification; recipients scanning for notifications ignore
// anything below the recipient threshold. The recipient threshold is strictly
// lower so that a conforming notification is never filtered out.
var (
	CamoSenderDustThreshold    = OneMicroNano
	CamoRecipientDustThreshold = MustRaw("100000000000000000000000")
)

// GenesisAccount is the network's genesis account. It doubles as the sentinel
// representative for unopened frontiers.
var GenesisAccount Account

func init() {
	GenesisAccount = Account(blake2b.Sum256([]byte("camonano genesis account")))
}
