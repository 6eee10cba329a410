package storage

import "errors"

var (
	// ErrInvalidPassword is returned when decryption fails to
	// authenticate, or a password check does not match.
	ErrInvalidPassword = errors.New("invalid password for wallet")

	// ErrInvalidWalletName is returned for names that are not purely
	// alphanumeric or collide with the config file.
	ErrInvalidWalletName = errors.New("the given wallet name is invalid")

	// ErrWalletNotFound is returned when no wallet of the given name is on
	// disk.
	ErrWalletNotFound = errors.New("no wallet of the given name could be found")

	// ErrWalletAlreadyExists is returned when creating a wallet whose name
	// is taken.
	ErrWalletAlreadyExists = errors.New("a wallet of the same name already exists")

	// ErrCorruptWalletData is returned when a decrypted wallet snapshot
	// fails to deserialize.
	ErrCorruptWalletData = errors.New("corrupt wallet data")

	// ErrUnsupportedKDF is returned when a wallet record pins KDF
	// parameters this build does not implement.
	ErrUnsupportedKDF = errors.New("unsupported key derivation parameters")
)
