// Package storage persists the shared configuration and the encrypted
// wallet files.
package storage

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/CamoNano/camonanowallet/wallet"
)

// appDirName is the directory under the user config dir that holds the
// config and wallet files.
const appDirName = "CamoNano"

// Store reads and writes the application's on-disk state rooted at one
// directory.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) the store at the platform's user
// config directory.
func NewStore() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(filepath.Join(base, appDirName))
}

// NewStoreAt opens (creating if needed) the store at an explicit directory.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) configPath() string {
	return filepath.Join(s.dir, "config.json")
}

func (s *Store) walletsPath() string {
	return filepath.Join(s.dir, "wallets.json")
}

// writeFileAtomic writes a file via a temp file and rename, so a crash
// mid-write never leaves a truncated wallet file behind.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := ioutil.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadConfig reads the shared configuration, creating it with defaults when
// missing.
func (s *Store) LoadConfig(defaults func() wallet.Config) (wallet.Config, error) {
	data, err := ioutil.ReadFile(s.configPath())
	if os.IsNotExist(err) {
		cfg := defaults()
		if err := s.SaveConfig(&cfg); err != nil {
			return wallet.Config{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return wallet.Config{}, err
	}

	var cfg wallet.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return wallet.Config{}, err
	}
	return cfg, nil
}

// SaveConfig writes the shared configuration.
func (s *Store) SaveConfig(cfg *wallet.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.configPath(), data)
}

// userWallets is the on-disk shape of the wallets file.
type userWallets struct {
	Wallets []*EncryptedWallet `json:"wallets"`
}

func (s *Store) loadWallets() (*userWallets, error) {
	data, err := ioutil.ReadFile(s.walletsPath())
	if os.IsNotExist(err) {
		return &userWallets{}, nil
	}
	if err != nil {
		return nil, err
	}

	var wallets userWallets
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, err
	}
	return &wallets, nil
}

func (s *Store) saveWallets(wallets *userWallets) error {
	data, err := json.MarshalIndent(wallets, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.walletsPath(), data)
}

func (w *userWallets) find(name string) *EncryptedWallet {
	for _, record := range w.Wallets {
		if record.Name == name {
			return record
		}
	}
	return nil
}

// isValidName reports whether a wallet name is acceptable: alphanumeric and
// not colliding with the config file.
func isValidName(name string) bool {
	if name == "" || name == "config" {
		return false
	}
	for _, r := range name {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		digit := r >= '0' && r <= '9'
		if !alpha && !digit {
			return false
		}
	}
	return true
}

// WalletNames returns the names of every wallet on disk.
func (s *Store) WalletNames() ([]string, error) {
	wallets, err := s.loadWallets()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(wallets.Wallets))
	for _, w := range wallets.Wallets {
		names = append(names, w.Name)
	}
	return names, nil
}

// WalletExists reports whether a wallet of the given name is on disk.
func (s *Store) WalletExists(name string) (bool, error) {
	wallets, err := s.loadWallets()
	if err != nil {
		return false, err
	}
	return wallets.find(name) != nil, nil
}

// SaveWallet persists a new wallet, refusing to overwrite an existing name.
func (s *Store) SaveWallet(data *WalletData, name string, password []byte) error {
	wallets, err := s.loadWallets()
	if err != nil {
		return err
	}
	if wallets.find(name) != nil {
		return ErrWalletAlreadyExists
	}
	return s.saveWalletLocked(wallets, data, name, password)
}

// SaveWalletOverriding persists a wallet, replacing any existing record of
// the same name. Replacement requires the password to open the old record.
func (s *Store) SaveWalletOverriding(data *WalletData, name string, password []byte) error {
	wallets, err := s.loadWallets()
	if err != nil {
		return err
	}
	if existing := wallets.find(name); existing != nil {
		if _, err := existing.Decrypt(password); err != nil {
			return err
		}
		wallets.remove(name)
	}
	return s.saveWalletLocked(wallets, data, name, password)
}

func (s *Store) saveWalletLocked(wallets *userWallets, data *WalletData, name string, password []byte) error {
	if !isValidName(name) {
		return ErrInvalidWalletName
	}

	log.Debugf("Saving wallet %q to disk", name)
	encrypted, err := data.Encrypt(name, password)
	if err != nil {
		return err
	}
	wallets.Wallets = append(wallets.Wallets, encrypted)
	return s.saveWallets(wallets)
}

// LoadWallet opens the named wallet with the given password.
func (s *Store) LoadWallet(name string, password []byte) (*WalletData, error) {
	wallets, err := s.loadWallets()
	if err != nil {
		return nil, err
	}
	record := wallets.find(name)
	if record == nil {
		return nil, ErrWalletNotFound
	}
	return record.Decrypt(password)
}

// DeleteWallet removes the named wallet. Deletion requires the password to
// open the record.
func (s *Store) DeleteWallet(name string, password []byte) error {
	wallets, err := s.loadWallets()
	if err != nil {
		return err
	}
	record := wallets.find(name)
	if record == nil {
		return ErrWalletNotFound
	}
	if _, err := record.Decrypt(password); err != nil {
		return err
	}
	wallets.remove(name)
	return s.saveWallets(wallets)
}

func (w *userWallets) remove(name string) {
	for i, record := range w.Wallets {
		if record.Name == name {
			w.Wallets = append(w.Wallets[:i], w.Wallets[i+1:]...)
			return
		}
	}
}
