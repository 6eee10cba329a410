package nano

import (
	"encoding/binary"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/blake2b"
)

// CamoVersion is one revision of the camo stealth-address protocol.
type CamoVersion uint8

// CamoVersionOne is the only protocol revision currently deployed.
const CamoVersionOne CamoVersion = 1

// highestKnownCamoVersion bounds the versions this implementation can
// handle. ParseCamoAccount rejects addresses advertising only higher
// versions.
const highestKnownCamoVersion = CamoVersionOne

// CamoVersions is a bitset of protocol revisions an address supports. Bit
// zero corresponds to version one.
type CamoVersions uint8

// NewCamoVersions builds a bitset from a list of versions. Versions outside
// the encodable range are ignored.
func NewCamoVersions(versions []CamoVersion) CamoVersions {
	var v CamoVersions
	for _, ver := range versions {
		if ver >= 1 && ver <= 8 {
			v |= 1 << (ver - 1)
		}
	}
	return v
}

// DecodeCamoVersions reinterprets an encoded bitset byte.
func DecodeCamoVersions(b uint8) CamoVersions {
	return CamoVersions(b)
}

// Encode returns the bitset byte.
func (v CamoVersions) Encode() uint8 {
	return uint8(v)
}

// Supports reports whether the bitset contains the given version.
func (v CamoVersions) Supports(ver CamoVersion) bool {
	if ver < 1 || ver > 8 {
		return false
	}
	return v&(1<<(ver-1)) != 0
}

// HighestSupported returns the newest version in the bitset that this
// implementation knows how to speak, or false if there is none.
func (v CamoVersions) HighestSupported() (CamoVersion, bool) {
	for ver := highestKnownCamoVersion; ver >= 1; ver-- {
		if v.Supports(ver) {
			return ver, true
		}
	}
	return 0, false
}

// camoDigits is the number of base32 characters encoding a camo address
// payload (1 version byte plus three 32-byte keys).
const camoDigits = 156

// CamoAccountPrefix is the textual prefix of camo addresses.
const CamoAccountPrefix = "camo_"

// CamoAccount is a compound stealth address: an ordinary signer key (the
// notification account), a spend/view public-key pair, and the supported
// protocol versions.
type CamoAccount struct {
	versions CamoVersions
	signer   Account
	spend    [32]byte
	view     [32]byte
}

// ParseCamoAccount parses a textual "camo_" address.
func ParseCamoAccount(s string) (CamoAccount, error) {
	data, err := decodeAddress(s, CamoAccountPrefix, 97, camoDigits)
	if err != nil {
		return CamoAccount{}, err
	}
	var a CamoAccount
	a.versions = DecodeCamoVersions(data[0])
	copy(a.signer[:], data[1:33])
	copy(a.spend[:], data[33:65])
	copy(a.view[:], data[65:97])
	if _, ok := a.versions.HighestSupported(); !ok {
		return CamoAccount{}, ErrIncompatibleCamoVersions
	}
	return a, nil
}

// String renders the camo address.
func (a CamoAccount) String() string {
	data := make([]byte, 97)
	data[0] = a.versions.Encode()
	copy(data[1:33], a.signer[:])
	copy(data[33:65], a.spend[:])
	copy(data[65:97], a.view[:])
	return encodeAddress(CamoAccountPrefix, data, camoDigits)
}

// SignerAccount returns the ordinary account embedded in the address, used
// as the on-chain recipient of notification blocks.
func (a CamoAccount) SignerAccount() Account {
	return a.signer
}

// Versions returns the protocol versions the address supports.
func (a CamoAccount) Versions() CamoVersions {
	return a.versions
}

// MarshalText implements encoding.TextMarshaler.
func (a CamoAccount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *CamoAccount) UnmarshalText(text []byte) error {
	parsed, err := ParseCamoAccount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Notification is the metadata a recipient recovers from a notify block: the
// on-chain recipient (the stealth address's signer account) and the sender's
// ephemeral ECDH point, smuggled through the representative field.
type Notification struct {
	Recipient             Account
	RepresentativePayload Account
}

// NotificationFromBlock recovers a notification from a notify send block.
func NotificationFromBlock(b *Block) Notification {
	return Notification{
		Recipient:             b.LinkAsAccount(),
		RepresentativePayload: b.Representative,
	}
}

func hashToScalar(tag string, parts ...[]byte) *edwards25519.Scalar {
	h, err := blake2b.New512(nil)
	if err != nil {
		panic(err)
	}
	h.Write([]byte(tag))
	for _, p := range parts {
		h.Write(p)
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		panic("broken hashToScalar: " + err.Error())
	}
	return s
}

func sharedSecret(point *edwards25519.Point) SecretBytes {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	h.Write([]byte("camo shared"))
	h.Write(point.Bytes())
	var out SecretBytes
	copy(out[:], h.Sum(nil))
	return out
}

// SenderECDH runs the sender's side of the stealth exchange against the
// recipient address. The sender's current frontier hash is mixed into the
// ephemeral scalar so that repeated sends to the same recipient diverge.
func (a CamoAccount) SenderECDH(senderKey *Key, frontierHash [32]byte) (SecretBytes, Notification, error) {
	view, err := new(edwards25519.Point).SetBytes(a.view[:])
	if err != nil {
		return SecretBytes{}, Notification{}, ErrInvalidPoint
	}

	ephemeral := hashToScalar("camo ephemeral", senderKey.secret[:], frontierHash[:])
	payload := new(edwards25519.Point).ScalarBaseMult(ephemeral)

	secret := sharedSecret(new(edwards25519.Point).ScalarMult(ephemeral, view))

	var payloadAccount Account
	copy(payloadAccount[:], payload.Bytes())
	notification := Notification{
		Recipient:             a.signer,
		RepresentativePayload: payloadAccount,
	}
	return secret, notification, nil
}

// DeriveAccount computes the one-time on-chain account a payment with the
// given shared secret is sent to.
func (a CamoAccount) DeriveAccount(secret SecretBytes) (Account, error) {
	spend, err := new(edwards25519.Point).SetBytes(a.spend[:])
	if err != nil {
		return Account{}, ErrInvalidPoint
	}
	tweak := hashToScalar("camo derive", secret[:])
	derived := new(edwards25519.Point).Add(spend, new(edwards25519.Point).ScalarBaseMult(tweak))

	var out Account
	copy(out[:], derived.Bytes())
	return out, nil
}

// CamoKeys is the secret counterpart of a CamoAccount.
type CamoKeys struct {
	versions CamoVersions
	signer   *Key
	spend    [32]byte // canonical scalar
	view     [32]byte // canonical scalar
	spendPub [32]byte
	viewPub  [32]byte
}

func camoScalarFromSeed(tag string, seed *SecretBytes, index uint32) *edwards25519.Scalar {
	var buf [36]byte
	copy(buf[:32], seed[:])
	binary.BigEndian.PutUint32(buf[32:], index)
	s := hashToScalar(tag, buf[:])
	zero(buf[:])
	return s
}

// CamoKeysFromSeed deterministically derives the camo key pair at the given
// index of a master seed. It returns ErrIncompatibleCamoVersions when the
// version set contains no supported member.
func CamoKeysFromSeed(seed *SecretBytes, index uint32, versions CamoVersions) (*CamoKeys, error) {
	if _, ok := versions.HighestSupported(); !ok {
		return nil, ErrIncompatibleCamoVersions
	}

	spend := camoScalarFromSeed("camo spend", seed, index)
	view := camoScalarFromSeed("camo view", seed, index)

	k := &CamoKeys{
		versions: versions,
		signer:   KeyFromSeed(seed, index),
	}
	copy(k.spend[:], spend.Bytes())
	copy(k.view[:], view.Bytes())
	copy(k.spendPub[:], new(edwards25519.Point).ScalarBaseMult(spend).Bytes())
	copy(k.viewPub[:], new(edwards25519.Point).ScalarBaseMult(view).Bytes())
	return k, nil
}

// Versions returns the protocol versions the keys were derived for.
func (k *CamoKeys) Versions() CamoVersions {
	return k.versions
}

// SignerKey returns the ordinary signing key of the notification account.
func (k *CamoKeys) SignerKey() *Key {
	return k.signer
}

// CamoAccount returns the public stealth address of the keys.
func (k *CamoKeys) CamoAccount() CamoAccount {
	return CamoAccount{
		versions: k.versions,
		signer:   k.signer.Account(),
		spend:    k.spendPub,
		view:     k.viewPub,
	}
}

// ReceiverECDH recovers the shared secret of a notification using the view
// key. It agrees byte-for-byte with the sender's SenderECDH output.
func (k *CamoKeys) ReceiverECDH(n Notification) (SecretBytes, error) {
	payload, err := new(edwards25519.Point).SetBytes(n.RepresentativePayload[:])
	if err != nil {
		return SecretBytes{}, ErrInvalidPoint
	}
	view, err := edwards25519.NewScalar().SetCanonicalBytes(k.view[:])
	if err != nil {
		panic("broken CamoKeys: non-canonical view scalar")
	}
	return sharedSecret(new(edwards25519.Point).ScalarMult(view, payload)), nil
}

// DeriveKey computes the one-time signing key for the given shared secret.
// Its account matches CamoAccount.DeriveAccount for the same secret.
func (k *CamoKeys) DeriveKey(secret SecretBytes) *Key {
	spend, err := edwards25519.NewScalar().SetCanonicalBytes(k.spend[:])
	if err != nil {
		panic("broken CamoKeys: non-canonical spend scalar")
	}
	tweak := hashToScalar("camo derive", secret[:])
	derived := edwards25519.NewScalar().Add(spend, tweak)

	prefixHash := blake2b.Sum256(append([]byte("camo derive prefix"), secret[:]...))
	return newKeyFromScalar(derived, prefixHash)
}

// Zero overwrites the keys' secret material.
func (k *CamoKeys) Zero() {
	zero(k.spend[:])
	zero(k.view[:])
	k.signer.Zero()
}
