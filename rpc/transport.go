package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/CamoNano/camonanowallet/nano"
)

// nodeError is an error reported by the node itself inside an otherwise
// well-formed response.
type nodeError struct {
	action  string
	message string
}

func (e *nodeError) Error() string {
	return fmt.Sprintf("node error (%s): %s", e.action, e.message)
}

// invalidData wraps a decode or semantic failure as ErrInvalidData.
func invalidData(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}

// invoke posts one JSON-RPC action to the node and decodes the response into
// out. Transport failures are returned as-is; malformed responses are
// reported as ErrInvalidData.
func (n *Node) invoke(ctx context.Context, request map[string]interface{}, out interface{}) error {
	action, _ := request["action"].(string)

	client, err := n.client()
	if err != nil {
		return err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node returned HTTP %d", resp.StatusCode)
	}

	log.Tracef("RPC response (%s) from %s: %v", action, n.URL,
		newLogClosure(func() string { return string(raw) }))

	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return invalidData("%s: %v", action, err)
	}
	if probe.Error != "" {
		return &nodeError{action: action, message: probe.Error}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return invalidData("%s: %v", action, err)
	}
	return nil
}

// maybeEmpty is a JSON field that nodes encode either as an object or, when
// empty, as "".
type maybeEmpty struct {
	raw json.RawMessage
}

func (m *maybeEmpty) UnmarshalJSON(data []byte) error {
	m.raw = data
	return nil
}

func (m *maybeEmpty) decode(out interface{}) error {
	if len(m.raw) == 0 || bytes.Equal(m.raw, []byte(`""`)) {
		return nil
	}
	return json.Unmarshal(m.raw, out)
}

func (n *Node) accountBalance(ctx context.Context, account nano.Account) (nano.Raw, error) {
	var resp struct {
		Balance string `json:"balance"`
	}
	err := n.invoke(ctx, map[string]interface{}{
		"action":  "account_balance",
		"account": account.String(),
	}, &resp)
	if err != nil {
		return nano.Raw{}, err
	}
	balance, err := nano.ParseRaw(resp.Balance)
	if err != nil {
		return nano.Raw{}, invalidData("account_balance: %v", err)
	}
	return balance, nil
}

func (n *Node) accountHistory(ctx context.Context, account nano.Account, count int,
	head *[32]byte, offset *int) ([]nano.Block, error) {

	request := map[string]interface{}{
		"action":  "account_history",
		"account": account.String(),
		"count":   count,
		"raw":     true,
	}
	if head != nil {
		request["head"] = nano.EncodeHash(*head)
	}
	if offset != nil {
		request["offset"] = *offset
	}

	var resp struct {
		History maybeEmpty `json:"history"`
	}
	if err := n.invoke(ctx, request, &resp); err != nil {
		return nil, err
	}
	var history []nano.Block
	if err := resp.History.decode(&history); err != nil {
		return nil, invalidData("account_history: %v", err)
	}
	if len(history) > count {
		return nil, invalidData("account_history: %d blocks for count %d",
			len(history), count)
	}
	return history, nil
}

func (n *Node) accountInfo(ctx context.Context, account nano.Account) (*AccountInfo, error) {
	var resp struct {
		Frontier       string `json:"frontier"`
		Representative string `json:"representative"`
		Balance        string `json:"balance"`
		Height         uint64 `json:"height,string"`
	}
	err := n.invoke(ctx, map[string]interface{}{
		"action":         "account_info",
		"account":        account.String(),
		"representative": true,
	}, &resp)
	if nerr, ok := err.(*nodeError); ok && nerr.message == "Account not found" {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	frontier, err := nano.DecodeHash(resp.Frontier)
	if err != nil {
		return nil, invalidData("account_info: %v", err)
	}
	representative, err := nano.ParseAccount(resp.Representative)
	if err != nil {
		return nil, invalidData("account_info: %v", err)
	}
	balance, err := nano.ParseRaw(resp.Balance)
	if err != nil {
		return nil, invalidData("account_info: %v", err)
	}
	return &AccountInfo{
		Frontier:       frontier,
		Representative: representative,
		Balance:        balance,
		Height:         resp.Height,
	}, nil
}

func (n *Node) accountRepresentative(ctx context.Context, account nano.Account) (*nano.Account, error) {
	var resp struct {
		Representative string `json:"representative"`
	}
	err := n.invoke(ctx, map[string]interface{}{
		"action":  "account_representative",
		"account": account.String(),
	}, &resp)
	if nerr, ok := err.(*nodeError); ok && nerr.message == "Account not found" {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	representative, err := nano.ParseAccount(resp.Representative)
	if err != nil {
		return nil, invalidData("account_representative: %v", err)
	}
	return &representative, nil
}

func (n *Node) accountsBalances(ctx context.Context, accounts []nano.Account) ([]nano.Raw, error) {
	request := map[string]interface{}{
		"action":   "accounts_balances",
		"accounts": accountStrings(accounts),
	}
	var resp struct {
		Balances maybeEmpty `json:"balances"`
	}
	if err := n.invoke(ctx, request, &resp); err != nil {
		return nil, err
	}
	balances := make(map[string]struct {
		Balance string `json:"balance"`
	})
	if err := resp.Balances.decode(&balances); err != nil {
		return nil, invalidData("accounts_balances: %v", err)
	}

	out := make([]nano.Raw, len(accounts))
	for i, account := range accounts {
		entry, ok := balances[account.String()]
		if !ok {
			continue
		}
		balance, err := nano.ParseRaw(entry.Balance)
		if err != nil {
			return nil, invalidData("accounts_balances: %v", err)
		}
		out[i] = balance
	}
	return out, nil
}

func (n *Node) accountsFrontiers(ctx context.Context, accounts []nano.Account) ([]*[32]byte, error) {
	request := map[string]interface{}{
		"action":   "accounts_frontiers",
		"accounts": accountStrings(accounts),
	}
	var resp struct {
		Frontiers maybeEmpty `json:"frontiers"`
	}
	if err := n.invoke(ctx, request, &resp); err != nil {
		return nil, err
	}
	frontiers := make(map[string]string)
	if err := resp.Frontiers.decode(&frontiers); err != nil {
		return nil, invalidData("accounts_frontiers: %v", err)
	}

	out := make([]*[32]byte, len(accounts))
	for i, account := range accounts {
		hex, ok := frontiers[account.String()]
		if !ok {
			continue
		}
		hash, err := nano.DecodeHash(hex)
		if err != nil {
			return nil, invalidData("accounts_frontiers: %v", err)
		}
		out[i] = &hash
	}
	return out, nil
}

func (n *Node) accountsReceivable(ctx context.Context, accounts []nano.Account,
	count int, threshold nano.Raw) ([]Receivable, error) {

	request := map[string]interface{}{
		"action":    "accounts_receivable",
		"accounts":  accountStrings(accounts),
		"count":     count,
		"threshold": threshold.String(),
	}
	var resp struct {
		Blocks maybeEmpty `json:"blocks"`
	}
	if err := n.invoke(ctx, request, &resp); err != nil {
		return nil, err
	}
	blocks := make(map[string]maybeEmpty)
	if err := resp.Blocks.decode(&blocks); err != nil {
		return nil, invalidData("accounts_receivable: %v", err)
	}

	var out []Receivable
	for _, account := range accounts {
		entry, ok := blocks[account.String()]
		if !ok {
			continue
		}
		pending := make(map[string]string)
		if err := entry.decode(&pending); err != nil {
			return nil, invalidData("accounts_receivable: %v", err)
		}
		for hashHex, amountStr := range pending {
			hash, err := nano.DecodeHash(hashHex)
			if err != nil {
				return nil, invalidData("accounts_receivable: %v", err)
			}
			amount, err := nano.ParseRaw(amountStr)
			if err != nil {
				return nil, invalidData("accounts_receivable: %v", err)
			}
			if amount.Cmp(threshold) < 0 {
				return nil, invalidData("accounts_receivable: amount below threshold")
			}
			out = append(out, Receivable{
				Recipient: account,
				BlockHash: hash,
				Amount:    amount,
			})
		}
	}
	return out, nil
}

func (n *Node) accountsRepresentatives(ctx context.Context, accounts []nano.Account) ([]*nano.Account, error) {
	request := map[string]interface{}{
		"action":   "accounts_representatives",
		"accounts": accountStrings(accounts),
	}
	var resp struct {
		Representatives maybeEmpty `json:"representatives"`
	}
	if err := n.invoke(ctx, request, &resp); err != nil {
		return nil, err
	}
	representatives := make(map[string]string)
	if err := resp.Representatives.decode(&representatives); err != nil {
		return nil, invalidData("accounts_representatives: %v", err)
	}

	out := make([]*nano.Account, len(accounts))
	for i, account := range accounts {
		repStr, ok := representatives[account.String()]
		if !ok {
			continue
		}
		rep, err := nano.ParseAccount(repStr)
		if err != nil {
			return nil, invalidData("accounts_representatives: %v", err)
		}
		out[i] = &rep
	}
	return out, nil
}

// blockInfoJSON is the wire form of one blocks_info entry.
type blockInfoJSON struct {
	Height   uint64     `json:"height,string"`
	Contents nano.Block `json:"contents"`
}

func (n *Node) blockInfo(ctx context.Context, hash [32]byte) (*BlockInfo, error) {
	var resp blockInfoJSON
	err := n.invoke(ctx, map[string]interface{}{
		"action":     "block_info",
		"json_block": true,
		"hash":       nano.EncodeHash(hash),
	}, &resp)
	if nerr, ok := err.(*nodeError); ok && nerr.message == "Block not found" {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.Contents.Hash() != hash {
		return nil, invalidData("block_info: block does not match requested hash")
	}
	return &BlockInfo{Height: resp.Height, Block: resp.Contents}, nil
}

func (n *Node) blocksInfo(ctx context.Context, hashes [][32]byte) ([]*BlockInfo, error) {
	hashStrings := make([]string, 0, len(hashes))
	for _, hash := range hashes {
		hashStrings = append(hashStrings, nano.EncodeHash(hash))
	}
	request := map[string]interface{}{
		"action":          "blocks_info",
		"json_block":      true,
		"include_not_found": true,
		"hashes":          hashStrings,
	}
	var resp struct {
		Blocks maybeEmpty `json:"blocks"`
	}
	if err := n.invoke(ctx, request, &resp); err != nil {
		return nil, err
	}
	blocks := make(map[string]blockInfoJSON)
	if err := resp.Blocks.decode(&blocks); err != nil {
		return nil, invalidData("blocks_info: %v", err)
	}

	out := make([]*BlockInfo, len(hashes))
	for i, hash := range hashes {
		entry, ok := blocks[nano.EncodeHash(hash)]
		if !ok {
			continue
		}
		if entry.Contents.Hash() != hash {
			return nil, invalidData("blocks_info: block does not match requested hash")
		}
		out[i] = &BlockInfo{Height: entry.Height, Block: entry.Contents}
	}
	return out, nil
}

func (n *Node) process(ctx context.Context, block *nano.Block) ([32]byte, error) {
	var resp struct {
		Hash string `json:"hash"`
	}
	err := n.invoke(ctx, map[string]interface{}{
		"action":     "process",
		"json_block": true,
		"block":      block,
	}, &resp)
	if err != nil {
		return [32]byte{}, err
	}
	hash, err := nano.DecodeHash(resp.Hash)
	if err != nil {
		return [32]byte{}, invalidData("process: %v", err)
	}
	if hash != block.Hash() {
		return [32]byte{}, invalidData("process: node hashed block differently")
	}
	return hash, nil
}

func (n *Node) workGenerate(ctx context.Context, hash [32]byte, difficulty *uint64) (nano.Work, error) {
	request := map[string]interface{}{
		"action": "work_generate",
		"hash":   nano.EncodeHash(hash),
	}
	if difficulty != nil {
		request["difficulty"] = fmt.Sprintf("%016x", *difficulty)
	}
	var resp struct {
		Work string `json:"work"`
	}
	if err := n.invoke(ctx, request, &resp); err != nil {
		return nano.Work{}, err
	}
	work, err := nano.DecodeWork(resp.Work)
	if err != nil {
		return nano.Work{}, invalidData("work_generate: %v", err)
	}
	if difficulty != nil && !nano.CheckWork(hash, *difficulty, work) {
		return nano.Work{}, invalidData("work_generate: work below difficulty")
	}
	return work, nil
}

func accountStrings(accounts []nano.Account) []string {
	out := make([]string, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, account.String())
	}
	return out
}
