package walletdb

import "errors"

var (
	// ErrAccountNotFound is returned when an account is not present in the
	// table it was looked up in.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDBAccountLimitReached is returned when inserting would exceed the
	// configured per-table account limit.
	ErrDBAccountLimitReached = errors.New("account limit reached")
)
