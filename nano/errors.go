package nano

import "errors"

var (
	// ErrInvalidAddress is returned when a textual address fails to parse
	// or its checksum does not match.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidSeed is returned when seed material is not 32 bytes of hex.
	ErrInvalidSeed = errors.New("invalid seed")

	// ErrInvalidHex is returned when a hex field has the wrong length or
	// contains non-hex characters.
	ErrInvalidHex = errors.New("invalid hex value")

	// ErrInvalidPoint is returned when 32 bytes do not decode to a valid
	// curve point, e.g. when running ECDH against a malformed payload.
	ErrInvalidPoint = errors.New("invalid curve point")

	// ErrIncompatibleCamoVersions is returned when a camo key or account is
	// requested for a version set with no supported member.
	ErrIncompatibleCamoVersions = errors.New("no supported camo version")

	// ErrInvalidBlockType is returned when a block type string is unknown.
	ErrInvalidBlockType = errors.New("invalid block type")
)
