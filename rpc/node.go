package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

// Commands is a node's capability matrix: one flag per JSON-RPC method the
// node is willing to serve.
type Commands struct {
	AccountBalance          bool `json:"account_balance"`
	AccountHistory          bool `json:"account_history"`
	AccountInfo             bool `json:"account_info"`
	AccountRepresentative   bool `json:"account_representative"`
	AccountsBalances        bool `json:"accounts_balances"`
	AccountsFrontiers       bool `json:"accounts_frontiers"`
	AccountsReceivable      bool `json:"accounts_receivable"`
	AccountsRepresentatives bool `json:"accounts_representatives"`
	BlockInfo               bool `json:"block_info"`
	BlocksInfo              bool `json:"blocks_info"`
	Process                 bool `json:"process"`
	WorkGenerate            bool `json:"work_generate"`
}

// AllCommands returns a matrix with every capability enabled.
func AllCommands() Commands {
	return Commands{
		AccountBalance:          true,
		AccountHistory:          true,
		AccountInfo:             true,
		AccountRepresentative:   true,
		AccountsBalances:        true,
		AccountsFrontiers:       true,
		AccountsReceivable:      true,
		AccountsRepresentatives: true,
		BlockInfo:               true,
		BlocksInfo:              true,
		Process:                 true,
		WorkGenerate:            true,
	}
}

// Supports reports whether the matrix includes the named method. It panics
// on unknown method names; dispatch passing one is a programming error.
func (c *Commands) Supports(command string) bool {
	switch command {
	case "account_balance":
		return c.AccountBalance
	case "account_history":
		return c.AccountHistory
	case "account_info":
		return c.AccountInfo
	case "account_representative":
		return c.AccountRepresentative
	case "accounts_balances":
		return c.AccountsBalances
	case "accounts_frontiers":
		return c.AccountsFrontiers
	case "accounts_receivable":
		return c.AccountsReceivable
	case "accounts_representatives":
		return c.AccountsRepresentatives
	case "block_info":
		return c.BlockInfo
	case "blocks_info":
		return c.BlocksInfo
	case "process":
		return c.Process
	case "work_generate":
		return c.WorkGenerate
	}
	panic(fmt.Sprintf("broken rpc dispatch: unknown method %q", command))
}

// Node is one configured remote node.
type Node struct {
	// URL is the node's JSON-RPC endpoint.
	URL string `json:"url"`

	// Proxy is an optional SOCKS5 proxy address used to reach the node.
	Proxy string `json:"proxy,omitempty"`

	// Commands is the node's capability matrix.
	Commands Commands `json:"commands"`

	// BannedUntil is the unix time until which the node is banned, or zero.
	BannedUntil uint64 `json:"banned_until"`

	httpOnce   sync.Once
	httpClient *http.Client
	httpErr    error
}

// NewNode configures a node with the given capabilities and optional proxy.
func NewNode(commands Commands, url, proxyAddr string) *Node {
	return &Node{URL: url, Proxy: proxyAddr, Commands: commands}
}

// IsBanned reports whether the node is banned at the given unix time.
func (n *Node) IsBanned(now uint64) bool {
	return n.BannedUntil > now
}

// BanForSeconds advances the node's ban. Bans only grow; a shorter ban never
// replaces a longer one already in place.
func (n *Node) BanForSeconds(seconds uint64) {
	until := currentTime() + seconds
	if until > n.BannedUntil {
		n.BannedUntil = until
	}
}

// handleErr bans the node according to the failure kind.
func (n *Node) handleErr(cfg *Config, err error) {
	seconds := cfg.FailureBanTime
	if errors.Is(err, ErrInvalidData) {
		seconds = cfg.InvalidDataBanTime
	}
	log.Debugf("Banning %s for %d seconds: %v", n.URL, seconds, err)
	n.BanForSeconds(seconds)
}

// client returns the node's HTTP client, building it on first use. Nodes
// with a proxy dial through SOCKS5.
func (n *Node) client() (*http.Client, error) {
	n.httpOnce.Do(func() {
		if n.Proxy == "" {
			n.httpClient = &http.Client{}
			return
		}
		dialer, err := proxy.SOCKS5("tcp", n.Proxy, nil, proxy.Direct)
		if err != nil {
			n.httpErr = fmt.Errorf("invalid proxy %q: %w", n.Proxy, err)
			return
		}
		n.httpClient = &http.Client{
			Transport: &http.Transport{
				Dial: func(network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				},
			},
		}
	})
	return n.httpClient, n.httpErr
}

// MarshalJSON serializes the node's persistent fields.
func (n *Node) MarshalJSON() ([]byte, error) {
	type persisted struct {
		URL         string   `json:"url"`
		Proxy       string   `json:"proxy,omitempty"`
		Commands    Commands `json:"commands"`
		BannedUntil uint64   `json:"banned_until"`
	}
	return json.Marshal(persisted{
		URL:         n.URL,
		Proxy:       n.Proxy,
		Commands:    n.Commands,
		BannedUntil: n.BannedUntil,
	})
}

// UnmarshalJSON restores a node from its persistent fields.
func (n *Node) UnmarshalJSON(data []byte) error {
	type persisted struct {
		URL         string   `json:"url"`
		Proxy       string   `json:"proxy,omitempty"`
		Commands    Commands `json:"commands"`
		BannedUntil uint64   `json:"banned_until"`
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = Node{
		URL:         p.URL,
		Proxy:       p.Proxy,
		Commands:    p.Commands,
		BannedUntil: p.BannedUntil,
	}
	return nil
}

// currentTime returns the current unix time in seconds. It is a variable so
// tests can pin it.
var currentTime = func() uint64 {
	return uint64(time.Now().Unix())
}
