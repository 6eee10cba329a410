package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/CamoNano/camonanowallet/keychain"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/jedib0t/go-pretty/table"
	"github.com/urfave/cli"
)

// displayBalance renders an account's frontier balance, or zero when the
// frontier is unknown.
func (c *cliClient) displayBalance(account nano.Account) string {
	balance, ok := c.client.Frontiers.AccountBalance(account)
	if !ok {
		return "0"
	}
	return balance.NanoString()
}

// receivableFor sums the cached pending amounts of one account.
func (c *cliClient) receivableFor(account nano.Account) nano.Raw {
	var total nano.Raw
	for _, receivable := range c.receivable {
		if receivable.Recipient != account {
			continue
		}
		var overflow bool
		total, overflow = total.AddChecked(receivable.Amount)
		if overflow {
			// Receivables are untrusted network data; saturate rather
			// than fail a display command.
			return nano.MustRaw("340282366920938463463374607431768211455")
		}
	}
	return total
}

func formatReceivable(amount nano.Raw) string {
	if amount.IsZero() {
		return ""
	}
	return "+ " + amount.NanoString()
}

// cmdBalance prints the wallet totals and a table of every tracked account.
func (c *cliClient) cmdBalance(*cli.Context) error {
	var totalReceivable nano.Raw
	for _, receivable := range c.receivable {
		totalReceivable, _ = totalReceivable.AddChecked(receivable.Amount)
	}
	total := c.client.WalletBalance()
	if totalReceivable.IsZero() {
		fmt.Printf("total: %s Nano\n", total.NanoString())
	} else {
		fmt.Printf("total: %s Nano (+ %s Nano receivable)\n",
			total.NanoString(), totalReceivable.NanoString())
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Account", "Index", "Balance", "Receivable"})

	accounts := append([]keychain.AccountInfo(nil),
		c.client.WalletDB.Accounts.AllInfos()...)
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Index < accounts[j].Index
	})
	for _, info := range accounts {
		t.AppendRow(table.Row{
			info.Account.String(),
			fmt.Sprintf("#%d", info.Index),
			c.displayBalance(info.Account),
			formatReceivable(c.receivableFor(info.Account)),
		})
	}

	camoAccounts := append([]keychain.CamoAccountInfo(nil),
		c.client.WalletDB.CamoAccounts.AllInfos()...)
	sort.Slice(camoAccounts, func(i, j int) bool {
		return camoAccounts[i].Index < camoAccounts[j].Index
	})
	for _, info := range camoAccounts {
		t.AppendRow(table.Row{info.Account.String(),
			fmt.Sprintf("#%d", info.Index), "", ""})

		main := info.Account.SignerAccount()
		t.AppendRow(table.Row{
			"  " + main.String() + " (main)",
			"",
			c.displayBalance(main),
			formatReceivable(c.receivableFor(main)),
		})
		for _, derived := range c.client.DerivedAccountsFromMaster(info.Account) {
			t.AppendRow(table.Row{
				"  " + derived.String(),
				"",
				c.displayBalance(derived),
				formatReceivable(c.receivableFor(derived)),
			})
		}
	}

	t.Render()
	return nil
}
