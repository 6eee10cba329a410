// camonano is an interactive command-line wallet for the CamoNano stealth
// address protocol.
package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CamoNano/camonanowallet/build"
	"github.com/CamoNano/camonanowallet/keychain"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/storage"
	"github.com/CamoNano/camonanowallet/wallet"
	flags "github.com/jessevdk/go-flags"
	"golang.org/x/crypto/ssh/terminal"
)

const (
	defaultLogFilename = "camonano.log"
	maxLogFileSizeMB   = 10
	maxLogFiles        = 3
)

// options are the startup flags. Exactly one wallet action is expected.
type options struct {
	New    string `long:"new" description:"Create a new wallet with the given name"`
	Import string `long:"import" description:"Import a seed into a new wallet with the given name"`
	Open   string `long:"open" description:"Open the wallet with the given name"`
	List   bool   `long:"list" description:"List the wallets on disk"`
	Delete string `long:"delete" description:"Delete the wallet with the given name"`

	DataDir  string `long:"datadir" description:"Directory holding the config and wallet files"`
	LogLevel string `long:"loglevel" default:"info" description:"Logging level {trace, debug, info, warn, error, critical, off}"`
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	password, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// promptNewPassword reads and confirms a password for a new wallet.
func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("New password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	defer zeroBytes(confirm)
	if string(password) != string(confirm) {
		zeroBytes(password)
		return nil, fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// openStore opens the on-disk store at the configured directory.
func openStore(opts *options) (*storage.Store, error) {
	if opts.DataDir != "" {
		return storage.NewStoreAt(opts.DataDir)
	}
	return storage.NewStore()
}

// setupLogging initializes the rotating log writer and subsystem levels.
func setupLogging(store *storage.Store, level string) (*build.RotatingLogWriter, error) {
	if !build.ValidLogLevel(level) {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	root := build.NewRotatingLogWriter()
	setupLoggers(root)

	logFile := filepath.Join(store.Dir(), "logs", defaultLogFilename)
	if err := root.InitLogRotator(logFile, maxLogFileSizeMB, maxLogFiles); err != nil {
		return nil, err
	}
	root.SetLogLevels(level)
	return root, nil
}

// newWalletClient builds the wallet core around a seed, using the shared
// configuration.
func newWalletClient(store *storage.Store, seed keychain.Seed) (*wallet.Client, error) {
	cfg, err := store.LoadConfig(defaultConfig)
	if err != nil {
		return nil, err
	}
	return wallet.New(seed, cfg)
}

// initSession resolves the startup flags into an interactive session, or
// nil when the action does not open a wallet.
func initSession(store *storage.Store, opts *options) (*cliClient, error) {
	switch {
	case opts.List:
		names, err := store.WalletNames()
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			fmt.Println("No wallets on disk.")
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil, nil

	case opts.Delete != "":
		password, err := promptPassword("Password: ")
		if err != nil {
			return nil, err
		}
		defer zeroBytes(password)
		if err := store.DeleteWallet(opts.Delete, password); err != nil {
			return nil, err
		}
		fmt.Println("Deleted.")
		return nil, nil

	case opts.New != "":
		exists, err := store.WalletExists(opts.New)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, storage.ErrWalletAlreadyExists
		}

		var seedBytes nano.SecretBytes
		if _, err := rand.Read(seedBytes[:]); err != nil {
			return nil, err
		}
		seed := keychain.SeedFromBytes(seedBytes)
		seedBytes.Zero()

		password, err := promptNewPassword()
		if err != nil {
			return nil, err
		}

		client, err := newWalletClient(store, seed)
		if err != nil {
			return nil, err
		}
		session := newCliClient(store, opts.New, password, client, nil)
		if err := session.saveToDisk(); err != nil {
			return nil, err
		}
		return session, nil

	case opts.Import != "":
		exists, err := store.WalletExists(opts.Import)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, storage.ErrWalletAlreadyExists
		}

		fmt.Print("Seed: ")
		var seedHex string
		if _, err := fmt.Scanln(&seedHex); err != nil {
			return nil, err
		}
		seed, err := keychain.SeedFromHex(strings.TrimSpace(seedHex))
		if err != nil {
			return nil, err
		}

		password, err := promptNewPassword()
		if err != nil {
			return nil, err
		}

		client, err := newWalletClient(store, seed)
		if err != nil {
			return nil, err
		}
		session := newCliClient(store, opts.Import, password, client, nil)
		if err := session.saveToDisk(); err != nil {
			return nil, err
		}
		return session, nil

	case opts.Open != "":
		password, err := promptPassword("Password: ")
		if err != nil {
			return nil, err
		}

		data, err := store.LoadWallet(opts.Open, password)
		if err != nil {
			return nil, err
		}
		client, err := newWalletClient(store, data.Seed)
		if err != nil {
			return nil, err
		}
		return newCliClient(store, opts.Open, password, client, data), nil
	}

	fmt.Println("Specify one of --new, --import, --open, --list or --delete.")
	return nil, nil
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		// go-flags already printed the message (including for --help).
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	store, err := openStore(&opts)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	root, err := setupLogging(store, opts.LogLevel)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer root.Close()

	session, err := initSession(store, &opts)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if session == nil {
		return
	}
	defer zeroBytes(session.password)

	if err := session.run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
