package main

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/CamoNano/camonanowallet/storage"
	"github.com/CamoNano/camonanowallet/wallet"
)

// saveInterval is how often, at most, the work cache loop writes the wallet
// to disk. It is a speed limit, not a schedule.
const saveInterval = 2 * time.Second

// workCachePoll is how often the work cache loop drains finished jobs.
const workCachePoll = 100 * time.Millisecond

// cliClient couples a wallet client with its on-disk identity and the
// session state that does not live in the core: the receivable cache and
// the camo send history.
type cliClient struct {
	name     string
	password []byte
	store    *storage.Store

	client *wallet.Client

	receivable  map[[32]byte]rpc.Receivable
	camoHistory []wallet.CamoTxSummary

	quit bool
}

// newCliClient assembles a session around a loaded or freshly created
// wallet.
func newCliClient(store *storage.Store, name string, password []byte,
	client *wallet.Client, data *storage.WalletData) *cliClient {

	c := &cliClient{
		name:       name,
		password:   password,
		store:      store,
		client:     client,
		receivable: make(map[[32]byte]rpc.Receivable),
	}
	if data != nil {
		client.WalletDB = data.WalletDB
		client.Frontiers = data.Frontiers
		c.receivable = data.Receivable
		c.camoHistory = data.History
	}
	return c
}

// walletData snapshots the session for persistence.
func (c *cliClient) walletData() *storage.WalletData {
	return &storage.WalletData{
		Seed:       c.client.Seed,
		WalletDB:   c.client.WalletDB,
		Frontiers:  c.client.Frontiers,
		Receivable: c.receivable,
		History:    c.camoHistory,
	}
}

// saveToDisk writes the configuration and the encrypted wallet.
func (c *cliClient) saveToDisk() error {
	log.Debugf("Saving wallet to disk")
	if err := c.store.SaveConfig(&c.client.Config); err != nil {
		return err
	}
	return c.store.SaveWalletOverriding(c.walletData(), c.name, c.password)
}

// authenticate re-prompts for the wallet password and compares it to the
// session's.
func (c *cliClient) authenticate() error {
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(password)
	if subtle.ConstantTimeCompare(password, c.password) != 1 {
		return storage.ErrInvalidPassword
	}
	return nil
}

// insertReceivable adds pending transactions to the session cache.
func (c *cliClient) insertReceivable(receivables []rpc.Receivable) {
	for _, receivable := range receivables {
		c.receivable[receivable.BlockHash] = receivable
	}
}

// removeReceivable drops every cached pending transaction of an account.
func (c *cliClient) removeReceivable(account nano.Account) {
	for hash, receivable := range c.receivable {
		if receivable.Recipient == account {
			delete(c.receivable, hash)
		}
	}
}

// handleRescan folds one rescan page into the session.
func (c *cliClient) handleRescan(rescan wallet.RescanData) {
	c.client.WalletDB.DerivedAccounts.InsertMany(rescan.DerivedInfo)
	c.client.SetNewFrontiers(rescan.NewFrontiers)
	c.insertReceivable(rescan.Receivable)
}

// workCacheLoop opportunistically drains and tops up the proof-of-work
// cache while the prompt waits for input. It stops when stop is closed and
// signals done.
func (c *cliClient) workCacheLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(workCachePoll)
	defer ticker.Stop()

	lastSave := time.Now()
	shouldSave := false
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			changed, failures := c.client.UpdateWorkCache()
			c.client.HandleRPCFailures(failures)
			shouldSave = shouldSave || changed

			if shouldSave && time.Since(lastSave) >= saveInterval {
				if err := c.saveToDisk(); err != nil {
					log.Errorf("Failed to save wallet to disk: %v", err)
				}
				lastSave = time.Now()
				shouldSave = false
			}
		}
	}
}

// run is the interactive loop: the work cache runs between commands and is
// stopped before each command executes.
func (c *cliClient) run() error {
	reader := bufio.NewReader(os.Stdin)
	for !c.quit {
		fmt.Print("> ")

		stop := make(chan struct{})
		done := make(chan struct{})
		go c.workCacheLoop(stop, done)

		line, err := reader.ReadString('\n')

		close(stop)
		<-done

		if err != nil {
			// EOF behaves like quit.
			fmt.Println()
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := c.execute(line); err != nil {
			fmt.Println(err)
		}
		if err := c.saveToDisk(); err != nil {
			return fmt.Errorf("failed to save wallet to disk: %w", err)
		}
	}
	c.client.Close()
	return nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
