package wallet

import (
	"fmt"

	"github.com/CamoNano/camonanowallet/nano"
)

// Payment describes one ordinary send.
type Payment struct {
	Sender    nano.Account
	Amount    nano.Raw
	Recipient nano.Account

	// NewRepresentative optionally moves the sender to a new
	// representative in the same block.
	NewRepresentative *nano.Account
}

// CamoPayment describes one stealth send: a masked payment to a one-time
// derived account plus a small notification from the notifier account.
type CamoPayment struct {
	Sender       nano.Account
	SenderAmount nano.Raw

	Notifier           nano.Account
	NotificationAmount nano.Raw

	Recipient nano.CamoAccount
}

// CamoTxSummary records an outgoing camo payment so the notification can be
// recovered or re-sent later.
type CamoTxSummary struct {
	Recipient    nano.CamoAccount `json:"recipient"`
	CamoAmount   nano.Raw         `json:"camo_amount"`
	TotalAmount  nano.Raw         `json:"total_amount"`
	Notification [32]byte         `json:"-"`
}

// String renders the summary for the camo_history listing.
func (s *CamoTxSummary) String() string {
	return fmt.Sprintf("Sending %v %s Nano (%s total) with notification %s",
		s.Recipient, s.CamoAmount.NanoString(), s.TotalAmount.NanoString(),
		nano.EncodeHash(s.Notification))
}
