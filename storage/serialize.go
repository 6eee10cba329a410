package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/keychain"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/CamoNano/camonanowallet/wallet"
	"github.com/CamoNano/camonanowallet/walletdb"
)

// walletDataVersion is the version byte leading every serialized snapshot.
const walletDataVersion = 1

// WalletData is the snapshot of one wallet that goes into the encrypted
// file: the seed, the account tables, the frontier DB, the cached
// receivables and the camo send history.
type WalletData struct {
	Seed       keychain.Seed
	WalletDB   *walletdb.DB
	Frontiers  *frontiers.DB
	Receivable map[[32]byte]rpc.Receivable
	History    []wallet.CamoTxSummary
}

// The snapshot encoding is deterministic and length-prefixed: fixed-width
// fields in big-endian order, collections as a u32 count followed by the
// entries, and map entries sorted by key. Determinism keeps the
// encrypt/decrypt round trip bit-exact.

type walletWriter struct {
	buf bytes.Buffer
}

func (w *walletWriter) writeByte(b byte) {
	w.buf.WriteByte(b)
}

func (w *walletWriter) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *walletWriter) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *walletWriter) writeBytes(b []byte) {
	w.buf.Write(b)
}

func (w *walletWriter) writeRaw(r nano.Raw) {
	b := r.Bytes16()
	w.buf.Write(b[:])
}

func (w *walletWriter) writeString(s string) {
	w.writeUint32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *walletWriter) writeBlock(b *nano.Block) {
	w.writeByte(byte(b.Type))
	w.writeBytes(b.Account[:])
	w.writeBytes(b.Previous[:])
	w.writeBytes(b.Representative[:])
	w.writeRaw(b.Balance)
	w.writeBytes(b.Link[:])
	w.writeBytes(b.Signature[:])
	w.writeBytes(b.Work[:])
}

// Serialize encodes the snapshot.
func (d *WalletData) Serialize() []byte {
	w := &walletWriter{}
	w.writeByte(walletDataVersion)

	seedBytes := d.Seed.Bytes()
	w.writeBytes(seedBytes[:])
	seedBytes.Zero()

	accounts := d.WalletDB.Accounts.AllInfos()
	w.writeUint32(uint32(len(accounts)))
	for _, info := range accounts {
		w.writeUint32(info.Index)
		w.writeBytes(info.Account[:])
	}

	camoAccounts := d.WalletDB.CamoAccounts.AllInfos()
	w.writeUint32(uint32(len(camoAccounts)))
	for _, info := range camoAccounts {
		w.writeUint32(info.Index)
		w.writeString(info.Account.String())
	}

	derived := d.WalletDB.DerivedAccounts.AllInfos()
	w.writeUint32(uint32(len(derived)))
	for _, info := range derived {
		w.writeByte(info.Versions.Encode())
		w.writeBytes(info.Secret[:])
		w.writeUint32(info.MasterIndex)
		w.writeUint32(info.Index)
		w.writeBytes(info.Account[:])
	}

	allFrontiers := d.Frontiers.AllFrontiers()
	w.writeUint32(uint32(len(allFrontiers)))
	for i := range allFrontiers {
		w.writeBlock(&allFrontiers[i].Block)
		if cached := allFrontiers[i].CachedWork(); cached != nil {
			w.writeByte(1)
			w.writeBytes(cached[:])
		} else {
			w.writeByte(0)
		}
	}

	hashes := make([][32]byte, 0, len(d.Receivable))
	for hash := range d.Receivable {
		hashes = append(hashes, hash)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	w.writeUint32(uint32(len(hashes)))
	for _, hash := range hashes {
		receivable := d.Receivable[hash]
		w.writeBytes(receivable.Recipient[:])
		w.writeBytes(receivable.BlockHash[:])
		w.writeRaw(receivable.Amount)
	}

	w.writeUint32(uint32(len(d.History)))
	for i := range d.History {
		w.writeString(d.History[i].Recipient.String())
		w.writeRaw(d.History[i].CamoAmount)
		w.writeRaw(d.History[i].TotalAmount)
		w.writeBytes(d.History[i].Notification[:])
	}

	return w.buf.Bytes()
}

type walletReader struct {
	r *bytes.Reader
}

func (r *walletReader) readByte() (byte, error) {
	return r.r.ReadByte()
}

func (r *walletReader) readUint32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (r *walletReader) read32() ([32]byte, error) {
	var b [32]byte
	_, err := io.ReadFull(r.r, b[:])
	return b, err
}

func (r *walletReader) readRaw() (nano.Raw, error) {
	var b [16]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return nano.Raw{}, err
	}
	return nano.RawFromBytes16(b), nil
}

func (r *walletReader) readString() (string, error) {
	length, err := r.readUint32()
	if err != nil {
		return "", err
	}
	if int(length) > r.r.Len() {
		return "", fmt.Errorf("string length %d exceeds remaining data", length)
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *walletReader) readBlock() (nano.Block, error) {
	var block nano.Block
	typeByte, err := r.readByte()
	if err != nil {
		return block, err
	}
	block.Type = nano.BlockType(typeByte)

	account, err := r.read32()
	if err != nil {
		return block, err
	}
	block.Account = nano.Account(account)

	if block.Previous, err = r.read32(); err != nil {
		return block, err
	}
	representative, err := r.read32()
	if err != nil {
		return block, err
	}
	block.Representative = nano.Account(representative)

	if block.Balance, err = r.readRaw(); err != nil {
		return block, err
	}
	if block.Link, err = r.read32(); err != nil {
		return block, err
	}
	if _, err = io.ReadFull(r.r, block.Signature[:]); err != nil {
		return block, err
	}
	if _, err = io.ReadFull(r.r, block.Work[:]); err != nil {
		return block, err
	}
	return block, nil
}

// DeserializeWalletData decodes a snapshot. Failures of any kind surface as
// ErrCorruptWalletData.
func DeserializeWalletData(data []byte) (*WalletData, error) {
	out, err := deserializeWalletData(data)
	if err != nil {
		log.Debugf("Failed to deserialize wallet data: %v", err)
		return nil, ErrCorruptWalletData
	}
	return out, nil
}

func deserializeWalletData(data []byte) (*WalletData, error) {
	r := &walletReader{r: bytes.NewReader(data)}

	version, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if version != walletDataVersion {
		return nil, fmt.Errorf("unknown wallet data version %d", version)
	}

	seedBytes, err := r.read32()
	if err != nil {
		return nil, err
	}
	d := &WalletData{
		Seed:       keychain.SeedFromBytes(nano.SecretBytes(seedBytes)),
		WalletDB:   walletdb.NewDB(),
		Frontiers:  frontiers.NewDB(),
		Receivable: make(map[[32]byte]rpc.Receivable),
	}

	count, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		index, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		account, err := r.read32()
		if err != nil {
			return nil, err
		}
		d.WalletDB.Accounts.ForceInsert(keychain.AccountInfo{
			Index:   index,
			Account: nano.Account(account),
		})
	}

	if count, err = r.readUint32(); err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		index, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		addr, err := r.readString()
		if err != nil {
			return nil, err
		}
		account, err := nano.ParseCamoAccount(addr)
		if err != nil {
			return nil, err
		}
		d.WalletDB.CamoAccounts.ForceInsert(keychain.CamoAccountInfo{
			Index:   index,
			Account: account,
		})
	}

	if count, err = r.readUint32(); err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		var info keychain.DerivedAccountInfo
		versions, err := r.readByte()
		if err != nil {
			return nil, err
		}
		info.Versions = nano.DecodeCamoVersions(versions)
		secret, err := r.read32()
		if err != nil {
			return nil, err
		}
		info.Secret = nano.SecretBytes(secret)
		if info.MasterIndex, err = r.readUint32(); err != nil {
			return nil, err
		}
		if info.Index, err = r.readUint32(); err != nil {
			return nil, err
		}
		account, err := r.read32()
		if err != nil {
			return nil, err
		}
		info.Account = nano.Account(account)
		d.WalletDB.DerivedAccounts.Insert(info)
	}

	if count, err = r.readUint32(); err != nil {
		return nil, err
	}
	var batch frontiers.NewFrontiers
	for i := uint32(0); i < count; i++ {
		block, err := r.readBlock()
		if err != nil {
			return nil, err
		}
		hasWork, err := r.readByte()
		if err != nil {
			return nil, err
		}
		var cached *nano.Work
		if hasWork == 1 {
			var work nano.Work
			if _, err := io.ReadFull(r.r, work[:]); err != nil {
				return nil, err
			}
			cached = &work
		}
		batch.New = append(batch.New, frontiers.NewFrontierInfo(block, cached))
	}
	if err := d.Frontiers.Insert(batch); err != nil {
		return nil, err
	}

	if count, err = r.readUint32(); err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		var receivable rpc.Receivable
		recipient, err := r.read32()
		if err != nil {
			return nil, err
		}
		receivable.Recipient = nano.Account(recipient)
		if receivable.BlockHash, err = r.read32(); err != nil {
			return nil, err
		}
		if receivable.Amount, err = r.readRaw(); err != nil {
			return nil, err
		}
		d.Receivable[receivable.BlockHash] = receivable
	}

	if count, err = r.readUint32(); err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		var summary wallet.CamoTxSummary
		addr, err := r.readString()
		if err != nil {
			return nil, err
		}
		if summary.Recipient, err = nano.ParseCamoAccount(addr); err != nil {
			return nil, err
		}
		if summary.CamoAmount, err = r.readRaw(); err != nil {
			return nil, err
		}
		if summary.TotalAmount, err = r.readRaw(); err != nil {
			return nil, err
		}
		if summary.Notification, err = r.read32(); err != nil {
			return nil, err
		}
		d.History = append(d.History, summary)
	}

	if r.r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.r.Len())
	}
	return d, nil
}
