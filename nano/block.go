package nano

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// BlockType enumerates the kinds of blocks an account chain can contain.
type BlockType uint8

// Block types.
const (
	BlockTypeSend BlockType = iota + 1
	BlockTypeReceive
	BlockTypeChange
	BlockTypeEpoch
)

// String returns the wire name of the block type.
func (t BlockType) String() string {
	switch t {
	case BlockTypeSend:
		return "send"
	case BlockTypeReceive:
		return "receive"
	case BlockTypeChange:
		return "change"
	case BlockTypeEpoch:
		return "epoch"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// IsEpoch reports whether the type is an epoch block.
func (t BlockType) IsEpoch() bool {
	return t == BlockTypeEpoch
}

// ParseBlockType parses a wire block type name.
func ParseBlockType(s string) (BlockType, error) {
	switch s {
	case "send":
		return BlockTypeSend, nil
	case "receive":
		return BlockTypeReceive, nil
	case "change":
		return BlockTypeChange, nil
	case "epoch":
		return BlockTypeEpoch, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidBlockType, s)
}

// Work is an 8-byte proof-of-work nonce.
type Work [8]byte

// blockPreamble is mixed into every block hash.
var blockPreamble = [32]byte{31: 0x06}

// Block is one link of an account chain. The chain of a single account is a
// linked list by Previous; Previous is zero for the first block.
type Block struct {
	Type           BlockType
	Account        Account
	Previous       [32]byte
	Representative Account
	Balance        Raw
	Link           [32]byte
	Signature      Signature
	Work           Work
}

// Hash returns the deterministic digest of the block's content fields. The
// signature and work are not part of the hash.
func (b *Block) Hash() [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	h.Write(blockPreamble[:])
	h.Write([]byte{byte(b.Type)})
	h.Write(b.Account[:])
	h.Write(b.Previous[:])
	h.Write(b.Representative[:])
	balance := b.Balance.Bytes16()
	h.Write(balance[:])
	h.Write(b.Link[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Sign attaches the key's signature over the block hash.
func (b *Block) Sign(key *Key) {
	hash := b.Hash()
	b.Signature = key.Sign(hash[:])
}

// HasValidSignature reports whether the attached signature verifies under
// the block's account.
func (b *Block) HasValidSignature() bool {
	hash := b.Hash()
	return b.Account.Verify(hash[:], b.Signature)
}

// LinkAsAccount reinterprets the link field as an account public key.
func (b *Block) LinkAsAccount() Account {
	return Account(b.Link)
}

// FollowsEpochRules reports whether b is a valid epoch successor of prev.
// Epoch blocks upgrade an account without moving funds: the balance and
// representative must carry over unchanged and the block must chain onto
// the previous frontier.
func (b *Block) FollowsEpochRules(prev *Block) bool {
	if !b.Type.IsEpoch() {
		return false
	}
	if b.Balance.Cmp(prev.Balance) != 0 {
		return false
	}
	if b.Representative != prev.Representative {
		return false
	}
	return b.Previous == prev.Hash()
}

// CheckWork reports whether an 8-byte nonce satisfies the difficulty target
// for the given work hash. The difficulty is a big-endian 64-bit threshold;
// the nonce is valid when its digest value meets or exceeds it.
func CheckWork(workHash [32]byte, difficulty uint64, work Work) bool {
	h, err := blake2b.New(8, nil)
	if err != nil {
		panic(err)
	}
	h.Write(work[:])
	h.Write(workHash[:])
	return binary.BigEndian.Uint64(h.Sum(nil)) >= difficulty
}

// blockJSON is the wire form of a block.
type blockJSON struct {
	Type           string `json:"type"`
	Account        string `json:"account"`
	Previous       string `json:"previous"`
	Representative string `json:"representative"`
	Balance        string `json:"balance"`
	Link           string `json:"link"`
	Signature      string `json:"signature"`
	Work           string `json:"work"`
}

// MarshalJSON encodes the block in its wire form.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(blockJSON{
		Type:           b.Type.String(),
		Account:        b.Account.String(),
		Previous:       EncodeHash(b.Previous),
		Representative: b.Representative.String(),
		Balance:        b.Balance.String(),
		Link:           EncodeHash(b.Link),
		Signature:      fmt.Sprintf("%0128X", b.Signature[:]),
		Work:           EncodeWork(b.Work),
	})
}

// UnmarshalJSON decodes a block from its wire form.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	blockType, err := ParseBlockType(raw.Type)
	if err != nil {
		return err
	}
	account, err := ParseAccount(raw.Account)
	if err != nil {
		return err
	}
	previous, err := DecodeHash(raw.Previous)
	if err != nil {
		return err
	}
	representative, err := ParseAccount(raw.Representative)
	if err != nil {
		return err
	}
	balance, err := ParseRaw(raw.Balance)
	if err != nil {
		return err
	}
	link, err := DecodeHash(raw.Link)
	if err != nil {
		return err
	}
	var signature Signature
	if len(raw.Signature) != 128 {
		return fmt.Errorf("%w: signature", ErrInvalidHex)
	}
	sigBytes, err := DecodeHash(raw.Signature[:64])
	if err != nil {
		return err
	}
	sigBytes2, err := DecodeHash(raw.Signature[64:])
	if err != nil {
		return err
	}
	copy(signature[:32], sigBytes[:])
	copy(signature[32:], sigBytes2[:])
	work, err := DecodeWork(raw.Work)
	if err != nil {
		return err
	}

	*b = Block{
		Type:           blockType,
		Account:        account,
		Previous:       previous,
		Representative: representative,
		Balance:        balance,
		Link:           link,
		Signature:      signature,
		Work:           work,
	}
	return nil
}
