package wallet

import "errors"

var (
	// ErrAccountNotFound is returned when an operation references an
	// account the wallet does not track.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNotEnoughCoins is returned when a payment exceeds the sender's
	// balance.
	ErrNotEnoughCoins = errors.New("not enough coins")

	// ErrInvalidPayment is returned for structurally invalid payments, such
	// as the sender and recipient being the same account.
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrFrontierBalanceOverflow is returned when receiving would push an
	// account balance past the 128-bit range.
	ErrFrontierBalanceOverflow = errors.New("frontier balance overflow")

	// ErrBelowDustThreshold is returned when an amount is below the
	// applicable dust threshold.
	ErrBelowDustThreshold = errors.New("amount below dust threshold")

	// ErrNoRepresentatives is returned when the configuration carries no
	// representative set to pick from.
	ErrNoRepresentatives = errors.New("no representatives to choose from")
)
