package nano

import (
	"bytes"
	"encoding/binary"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/blake2b"
)

// Signature is a 64-byte ed25519-blake2b signature.
type Signature [64]byte

// Key is an account signing key. The chain's signature scheme is Ed25519
// with blake2b-512 replacing SHA-512, so keys are held as a canonical curve
// scalar plus the nonce prefix rather than as an Ed25519 seed.
type Key struct {
	secret [32]byte
	prefix [32]byte
	public Account
}

// newKeyFromScalar assembles a Key from a scalar and nonce prefix.
func newKeyFromScalar(s *edwards25519.Scalar, prefix [32]byte) *Key {
	var k Key
	copy(k.secret[:], s.Bytes())
	k.prefix = prefix
	pub := new(edwards25519.Point).ScalarBaseMult(s)
	copy(k.public[:], pub.Bytes())
	return &k
}

// KeyFromSeed deterministically derives the signing key at the given index
// of a master seed.
func KeyFromSeed(seed *SecretBytes, index uint32) *Key {
	var buf [36]byte
	copy(buf[:32], seed[:])
	binary.BigEndian.PutUint32(buf[32:], index)
	private := blake2b.Sum256(buf[:])
	zero(buf[:])

	expanded := blake2b.Sum512(private[:])
	zero(private[:])
	s, err := edwards25519.NewScalar().SetBytesWithClamping(expanded[:32])
	if err != nil {
		panic("broken key derivation: " + err.Error())
	}
	var prefix [32]byte
	copy(prefix[:], expanded[32:])
	zero(expanded[:])
	return newKeyFromScalar(s, prefix)
}

// Account returns the public account of the key.
func (k *Key) Account() Account {
	return k.public
}

// Zero overwrites the key's secret material.
func (k *Key) Zero() {
	zero(k.secret[:])
	zero(k.prefix[:])
}

func (k *Key) scalar() *edwards25519.Scalar {
	s, err := edwards25519.NewScalar().SetCanonicalBytes(k.secret[:])
	if err != nil {
		panic("broken Key: non-canonical scalar")
	}
	return s
}

// Sign produces an ed25519-blake2b signature over msg.
func (k *Key) Sign(msg []byte) Signature {
	a := k.scalar()

	h, err := blake2b.New512(nil)
	if err != nil {
		panic(err)
	}
	h.Write(k.prefix[:])
	h.Write(msg)
	r, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		panic("broken Sign: " + err.Error())
	}
	R := new(edwards25519.Point).ScalarBaseMult(r)

	h.Reset()
	h.Write(R.Bytes())
	h.Write(k.public[:])
	h.Write(msg)
	hram, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		panic("broken Sign: " + err.Error())
	}

	s := edwards25519.NewScalar().MultiplyAdd(hram, a, r)

	var sig Signature
	copy(sig[:32], R.Bytes())
	copy(sig[32:], s.Bytes())
	return sig
}

// Verify checks an ed25519-blake2b signature over msg against the account's
// public key.
func (a Account) Verify(msg []byte, sig Signature) bool {
	A, err := new(edwards25519.Point).SetBytes(a[:])
	if err != nil {
		return false
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(sig[32:])
	if err != nil {
		return false
	}

	h, err := blake2b.New512(nil)
	if err != nil {
		panic(err)
	}
	h.Write(sig[:32])
	h.Write(a[:])
	h.Write(msg)
	hram, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		return false
	}

	minusH := edwards25519.NewScalar().Negate(hram)
	R := new(edwards25519.Point).VarTimeDoubleScalarBaseMult(minusH, A, s)
	return bytes.Equal(R.Bytes(), sig[:32])
}
