package wallet

import (
	"sort"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/nano"
)

// AccountsWithBalance returns the frontiers of all tracked on-chain
// accounts with a balance of at least amount, excluding the given accounts,
// sorted by balance low to high. Callers picking a funding account this way
// drain small balances first.
func (c *Client) AccountsWithBalance(amount nano.Raw, exclude []nano.Account) []frontiers.FrontierInfo {
	excluded := func(account nano.Account) bool {
		for _, e := range exclude {
			if e == account {
				return true
			}
		}
		return false
	}

	var out []frontiers.FrontierInfo
	for _, account := range c.WalletDB.AllAccounts() {
		if excluded(account) {
			continue
		}
		frontier := c.Frontiers.AccountFrontier(account)
		if frontier == nil || frontier.Block.Balance.Cmp(amount) < 0 {
			continue
		}
		out = append(out, *frontier)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Block.Balance.Cmp(out[j].Block.Balance) < 0
	})
	return out
}

// WalletBalance sums the frontier balances of every tracked account.
func (c *Client) WalletBalance() nano.Raw {
	var total nano.Raw
	for _, account := range c.WalletDB.AllAccounts() {
		balance, ok := c.Frontiers.AccountBalance(account)
		if !ok {
			continue
		}
		var overflow bool
		total, overflow = total.AddChecked(balance)
		if overflow {
			panic("broken wallet balance: sum exceeds 128 bits")
		}
	}
	return total
}
