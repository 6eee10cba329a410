package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. They are pinned explicitly and recorded in every
// wallet record so that a future parameter change can still read old files.
const (
	kdfName           = "argon2id"
	kdfTime    uint32 = 1
	kdfMemory  uint32 = 64 * 1024
	kdfThreads uint8  = 4
	kdfKeyLen  uint32 = 32
)

// EncryptedWallet is one wallet record as persisted: the name in the clear,
// everything else hex-encoded, with the KDF parameters that sealed it.
type EncryptedWallet struct {
	Name  string `json:"name"`
	Salt  string `json:"salt"`
	Nonce string `json:"nonce"`
	Data  string `json:"data"`

	KDF        string `json:"kdf"`
	KDFTime    uint32 `json:"kdf_time"`
	KDFMemory  uint32 `json:"kdf_memory"`
	KDFThreads uint8  `json:"kdf_threads"`
}

// fileKey derives the 32-byte file key from a password and salt.
func fileKey(password, salt []byte, time, memory uint32, threads uint8) []byte {
	return argon2.IDKey(password, salt, time, memory, threads, kdfKeyLen)
}

// Encrypt seals a wallet snapshot under a password: fresh salt and nonce,
// Argon2id file key, AES-256-GCM. The plaintext buffer is zeroed before
// returning.
func (d *WalletData) Encrypt(name string, password []byte) (*EncryptedWallet, error) {
	var salt [32]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	var nonce [12]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	key := fileKey(password, salt[:], kdfTime, kdfMemory, kdfThreads)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext := d.Serialize()
	ciphertext := aead.Seal(nil, nonce[:], plaintext, nil)
	zeroBytes(plaintext)

	return &EncryptedWallet{
		Name:       name,
		Salt:       hex.EncodeToString(salt[:]),
		Nonce:      hex.EncodeToString(nonce[:]),
		Data:       hex.EncodeToString(ciphertext),
		KDF:        kdfName,
		KDFTime:    kdfTime,
		KDFMemory:  kdfMemory,
		KDFThreads: kdfThreads,
	}, nil
}

// Decrypt opens a wallet record with a password. Authentication failure
// surfaces as ErrInvalidPassword.
func (w *EncryptedWallet) Decrypt(password []byte) (*WalletData, error) {
	if w.KDF != kdfName {
		return nil, ErrUnsupportedKDF
	}

	salt, err := hex.DecodeString(w.Salt)
	if err != nil {
		return nil, ErrCorruptWalletData
	}
	nonce, err := hex.DecodeString(w.Nonce)
	if err != nil {
		return nil, ErrCorruptWalletData
	}
	ciphertext, err := hex.DecodeString(w.Data)
	if err != nil {
		return nil, ErrCorruptWalletData
	}

	key := fileKey(password, salt, w.KDFTime, w.KDFMemory, w.KDFThreads)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrCorruptWalletData
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	defer zeroBytes(plaintext)

	return DeserializeWalletData(plaintext)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
