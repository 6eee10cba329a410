package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/CamoNano/camonanowallet/wallet"
	"github.com/urfave/cli"
)

// errInvalidArguments is returned for commands invoked with unusable
// arguments.
var errInvalidArguments = errors.New("invalid arguments")

// parsedAccount is user input that may be either an ordinary or a camo
// address.
type parsedAccount struct {
	account     nano.Account
	camoAccount nano.CamoAccount
	isCamo      bool
}

func parseAnyAccount(s string) (parsedAccount, error) {
	if account, err := nano.ParseAccount(s); err == nil {
		return parsedAccount{account: account}, nil
	}
	camo, err := nano.ParseCamoAccount(s)
	if err != nil {
		return parsedAccount{}, nano.ErrInvalidAddress
	}
	return parsedAccount{camoAccount: camo, isCamo: true}, nil
}

// valueFlags lists, per command, the flags that consume the next token.
// Needed by reorderArgs to tell "--amount 2" apart from boolean flags.
var valueFlags = map[string]map[string]bool{
	"account":      {"--versions": true, "-v": true},
	"camo_history": {"--count": true, "-n": true},
	"clear_cache":  {"--accounts": true},
	"notify":       {"--amount": true, "-a": true},
	"receive":      {"--blocks": true, "-b": true, "--accounts": true, "-a": true},
	"rescan":       {"--head": true},
	"send":         {"--representative": true, "-r": true},
	"send_camo":    {"--notifier": true, "-n": true, "--notifier-amount": true, "-A": true},
}

// reorderArgs moves flags (with their values) ahead of positional
// arguments. The command syntax puts options last, but flag parsing stops
// at the first positional.
func reorderArgs(command string, tokens []string) []string {
	valued := valueFlags[command]
	var flagTokens, positional []string
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "-") {
			positional = append(positional, tok)
			continue
		}
		flagTokens = append(flagTokens, tok)
		if valued[tok] && i+1 < len(tokens) {
			i++
			flagTokens = append(flagTokens, tokens[i])
		}
	}
	return append(flagTokens, positional...)
}

// execute parses one input line as a command and runs it.
func (c *cliClient) execute(line string) error {
	fields := strings.Fields(line)
	args := []string{"camonano"}
	if len(fields) > 0 {
		args = append(args, fields[0])
		args = append(args, reorderArgs(fields[0], fields[1:])...)
	}

	var cmdErr error
	app := c.newApp(&cmdErr)
	if err := app.Run(args); err != nil {
		return err
	}
	return cmdErr
}

// newApp builds the command table. Command errors are reported through
// cmdErr so that a failed command does not abort the REPL.
func (c *cliClient) newApp(cmdErr *error) *cli.App {
	run := func(action func(*cli.Context) error) func(*cli.Context) error {
		return func(ctx *cli.Context) error {
			*cmdErr = action(ctx)
			return nil
		}
	}

	app := cli.NewApp()
	app.Name = "camonano"
	app.Usage = "interactive wallet commands"
	app.HideVersion = true
	app.CommandNotFound = func(_ *cli.Context, cmd string) {
		fmt.Printf("Unknown command %q. Type 'help' for a list.\n", cmd)
	}

	app.Commands = []cli.Command{
		{
			Name:      "account",
			Usage:     "Get account at the specified index",
			ArgsUsage: "<index>",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "camo, c",
					Usage: "create a camo_ account",
				},
				cli.IntSliceFlag{
					Name:   "versions, v",
					Usage:  "camo protocol versions to support",
					Hidden: true,
				},
			},
			Action: run(c.cmdAccount),
		},
		{
			Name:   "balance",
			Usage:  "Display wallet balance",
			Action: run(c.cmdBalance),
		},
		{
			Name:  "camo_history",
			Usage: "Display send history of camo transactions",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "count, n",
					Usage: "maximum number of transactions to display",
					Value: 20,
				},
				cli.BoolFlag{
					Name:  "clear, C",
					Usage: "clear the camo history for this wallet",
				},
			},
			Action: run(c.cmdCamoHistory),
		},
		{
			Name:  "clear",
			Usage: "Clear the terminal",
			Action: run(func(*cli.Context) error {
				fmt.Print("\x1b[2J")
				return nil
			}),
		},
		{
			Name:  "clear_cache",
			Usage: "Clear the work cache",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "all, a",
					Usage: "clear the work cache for all accounts",
				},
				cli.StringSliceFlag{
					Name:  "accounts",
					Usage: "clear the work cache on these accounts",
				},
			},
			Action: run(c.cmdClearCache),
		},
		{
			Name:      "notify",
			Usage:     "Send a notification to a camo account for a camo payment",
			ArgsUsage: "<notifier> <recipient> <notification>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "amount, a",
					Usage: "amount of Nano that the notifier account should send",
				},
			},
			Action: run(c.cmdNotify),
		},
		{
			Name:  "receive",
			Usage: "Receive transactions",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "list, l",
					Usage: "list receivable transactions (default behavior)",
				},
				cli.StringSliceFlag{
					Name:  "blocks, b",
					Usage: "the block hashes to receive",
				},
				cli.StringSliceFlag{
					Name:  "accounts, a",
					Usage: "the accounts to receive transactions on",
				},
			},
			Action: run(c.cmdReceive),
		},
		{
			Name:   "refresh",
			Usage:  "Refresh the wallet",
			Action: run(c.cmdRefresh),
		},
		{
			Name:      "remove",
			Usage:     "Stop tracking a Nano or camo account",
			ArgsUsage: "<account>",
			Action:    run(c.cmdRemove),
		},
		{
			Name:      "rescan",
			Usage:     "Rescan a camo account for camo payments",
			ArgsUsage: "<account>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "head",
					Usage: "the block to use as the starting point (default is the account's frontier)",
				},
				cli.BoolFlag{
					Name:  "no-filter, f",
					Usage: "do not filter accounts with no balance and no pending transactions",
				},
			},
			Action: run(c.cmdRescan),
		},
		{
			Name:   "seed",
			Usage:  "Show the seed of this wallet",
			Action: run(c.cmdSeed),
		},
		{
			Name:      "send",
			Usage:     "Send coins to a normal Nano account",
			ArgsUsage: "<sender> <amount> <recipient>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "representative, r",
					Usage: "set a new representative account",
				},
			},
			Action: run(c.cmdSend),
		},
		{
			Name:      "send_camo",
			Usage:     "Send coins to a camo account",
			ArgsUsage: "<sender> <amount> <recipient>",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "auto, a",
					Usage: "automatically choose a notifier account and notification amount (disable for best privacy)",
				},
				cli.StringFlag{
					Name:  "notifier, n",
					Usage: "notifier nano_ account",
				},
				cli.StringFlag{
					Name:  "notifier-amount, A",
					Usage: "amount of Nano that the notifier account should send (subtracted from the total)",
				},
			},
			Action: run(c.cmdSendCamo),
		},
		{
			Name:      "dev_recover_notification",
			Usage:     "Dev tool - recover a camo notification",
			ArgsUsage: "<sender> <recipient> <frontier>",
			Hidden:    true,
			Action:    run(c.cmdRecoverNotification),
		},
		{
			Name:      "dev_ack_notification",
			Usage:     "Dev tool - acknowledge a camo notification",
			ArgsUsage: "<recipient> <notification>",
			Hidden:    true,
			Action:    run(c.cmdAckNotification),
		},
		{
			Name:    "quit",
			Aliases: []string{"exit"},
			Usage:   "Exit the program",
			Action: run(func(*cli.Context) error {
				c.quit = true
				return nil
			}),
		},
	}
	return app
}

func (c *cliClient) cmdAccount(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errInvalidArguments
	}
	index64, err := strconv.ParseUint(ctx.Args().Get(0), 10, 32)
	if err != nil {
		return errInvalidArguments
	}
	index := uint32(index64)

	var address string
	if ctx.Bool("camo") {
		versions := nano.NewCamoVersions(c.client.Config.DefaultCamoVersions)
		if raw := ctx.IntSlice("versions"); len(raw) > 0 {
			var list []nano.CamoVersion
			for _, v := range raw {
				list = append(list, nano.CamoVersion(v))
			}
			versions = nano.NewCamoVersions(list)
		}
		info, err := c.client.AddCamoAccount(index, versions)
		if err != nil {
			return err
		}
		address = info.Account.String()
	} else {
		if len(ctx.IntSlice("versions")) > 0 {
			fmt.Println("The 'versions' option is only used for camo accounts")
			return errInvalidArguments
		}
		info, err := c.client.AddAccount(index)
		if err != nil {
			return err
		}
		address = info.Account.String()
	}

	downloaded, failures, err := c.client.DownloadUnknownFrontiers(context.Background())
	c.client.HandleRPCFailures(failures)
	if err != nil {
		return err
	}
	c.client.SetNewFrontiers(downloaded)

	fmt.Println(address)
	return nil
}

func (c *cliClient) cmdCamoHistory(ctx *cli.Context) error {
	if ctx.Bool("clear") {
		c.camoHistory = nil
		return nil
	}
	for i := range c.camoHistory {
		if i == ctx.Int("count") {
			break
		}
		fmt.Println(c.camoHistory[i].String())
	}
	return nil
}

func (c *cliClient) cmdClearCache(ctx *cli.Context) error {
	var accounts []nano.Account
	if raw := ctx.StringSlice("accounts"); len(raw) > 0 {
		for _, s := range raw {
			account, err := nano.ParseAccount(s)
			if err != nil {
				return err
			}
			accounts = append(accounts, account)
		}
	} else if ctx.Bool("all") {
		accounts = c.client.Frontiers.AllAccounts()
	} else {
		fmt.Println("Please specify which work caches to clear")
		return errInvalidArguments
	}

	for _, account := range accounts {
		if frontier := c.client.Frontiers.AccountFrontier(account); frontier != nil {
			frontier.ClearWork()
		}
	}
	return nil
}

func (c *cliClient) cmdNotify(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return errInvalidArguments
	}
	notifier, err := nano.ParseAccount(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	recipient, err := nano.ParseCamoAccount(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	payload, err := nano.DecodeHash(ctx.Args().Get(2))
	if err != nil {
		return err
	}

	amount := nano.CamoSenderDustThreshold
	if raw := ctx.String("amount"); raw != "" {
		if amount, err = nano.ParseNanoAmount(raw); err != nil {
			return err
		}
	}
	if amount.Cmp(nano.CamoSenderDustThreshold) < 0 {
		return wallet.ErrBelowDustThreshold
	}

	representative := nano.Account(payload)
	payment := wallet.Payment{
		Sender:            notifier,
		Amount:            amount,
		Recipient:         recipient.SignerAccount(),
		NewRepresentative: &representative,
	}
	fmt.Println("Sending...")
	newFrontiers, failures, err := c.client.Send(context.Background(), payment)
	c.client.HandleRPCFailures(failures)
	if err != nil {
		return err
	}
	c.client.SetNewFrontiers(newFrontiers)
	fmt.Println("Done")
	return nil
}

func (c *cliClient) cmdReceive(ctx *cli.Context) error {
	var receivables []rpc.Receivable

	switch {
	case len(ctx.StringSlice("blocks")) > 0:
		for _, s := range ctx.StringSlice("blocks") {
			hash, err := nano.DecodeHash(s)
			if err != nil {
				return err
			}
			receivable, ok := c.receivable[hash]
			if !ok {
				return wallet.ErrAccountNotFound
			}
			delete(c.receivable, hash)
			receivables = append(receivables, receivable)
		}

	case len(ctx.StringSlice("accounts")) > 0:
		var accounts []nano.Account
		for _, s := range ctx.StringSlice("accounts") {
			account, err := nano.ParseAccount(s)
			if err != nil {
				return err
			}
			accounts = append(accounts, account)
		}
		for hash, receivable := range c.receivable {
			for _, account := range accounts {
				if receivable.Recipient == account {
					delete(c.receivable, hash)
					receivables = append(receivables, receivable)
					break
				}
			}
		}
		if len(receivables) == 0 {
			return wallet.ErrAccountNotFound
		}

	default:
		sorted := make([]rpc.Receivable, 0, len(c.receivable))
		for _, receivable := range c.receivable {
			sorted = append(sorted, receivable)
		}
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Amount.Cmp(sorted[j].Amount) > 0
		})
		if len(sorted) == 0 {
			fmt.Println("No transactions to receive.")
		} else {
			fmt.Println("Specify which transactions to receive by account (-a) or block (-b):")
		}
		for _, receivable := range sorted {
			fmt.Printf("%v: %s (%s Nano)\n", receivable.Recipient,
				nano.EncodeHash(receivable.BlockHash),
				receivable.Amount.NanoString())
		}
		return nil
	}

	fmt.Println("Receiving...")
	result := c.client.Receive(context.Background(), receivables)
	c.client.HandleRPCFailures(result.Failures)
	c.client.SetNewFrontiers(result.NewFrontiers)

	if result.Failure != nil {
		c.insertReceivable(result.Failure.Unreceived)
		fmt.Println("Done")
		return result.Failure.Err
	}
	fmt.Println("Done")
	return nil
}

func (c *cliClient) cmdRefresh(*cli.Context) error {
	fmt.Println("Refreshing wallet...")
	accounts := c.client.WalletDB.AllAccounts()

	data, failures, err := c.client.Refresh(context.Background())
	c.client.HandleRPCFailures(failures)
	if err != nil {
		return err
	}

	c.client.WalletDB.DerivedAccounts.InsertMany(data.DerivedInfo)
	for _, account := range accounts {
		c.removeReceivable(account)
	}
	c.insertReceivable(data.Receivable)
	c.client.SetNewFrontiers(data.NewFrontiers)

	fmt.Println("Done")
	return nil
}

func (c *cliClient) cmdRemove(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errInvalidArguments
	}
	parsed, err := parseAnyAccount(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	if parsed.isCamo {
		for _, derived := range c.client.DerivedAccountsFromMaster(parsed.camoAccount) {
			c.removeReceivable(derived)
		}
		camoInfo := c.client.WalletDB.CamoAccounts.Info(parsed.camoAccount)
		if camoInfo != nil {
			c.removeReceivable(camoInfo.Account.SignerAccount())
		}
		_, err = c.client.RemoveCamoAccount(parsed.camoAccount)
		return err
	}
	c.removeReceivable(parsed.account)
	_, err = c.client.RemoveAccount(parsed.account)
	return err
}

func (c *cliClient) cmdRescan(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errInvalidArguments
	}
	account, err := nano.ParseCamoAccount(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	filter := !ctx.Bool("no-filter")

	var head *[32]byte
	if raw := ctx.String("head"); raw != "" {
		hash, err := nano.DecodeHash(raw)
		if err != nil {
			return err
		}
		head = &hash
	} else if frontier := c.client.Frontiers.AccountFrontier(account.SignerAccount()); frontier != nil && !frontier.IsUnopened() {
		hash := frontier.Block.Hash()
		head = &hash
	}
	if head == nil {
		fmt.Println("No blocks to scan. Maybe refresh?")
		return nil
	}

	background := context.Background()

	headInfo, failures, err := c.client.BlockInfo(background, *head)
	c.client.HandleRPCFailures(failures)
	if err != nil {
		return err
	}
	headHeight := uint64(0)
	if headInfo != nil {
		headHeight = headInfo.Height
	}
	batch := uint64(c.client.Config.RPCAccountHistoryBatchSize)
	bottom := uint64(0)
	if headHeight > batch {
		bottom = headHeight - batch
	}
	count := headHeight
	if batch < count {
		count = batch
	}
	fmt.Printf("Scanning %d blocks (%d -> %d)...\n", count, headHeight, bottom)

	rescan, rescanFailures, err := c.client.RescanNotificationsPartial(background,
		account, head, nil, filter)
	c.client.HandleRPCFailures(rescanFailures)
	if err != nil {
		return err
	}

	if rescan.NewHead != nil && *rescan.NewHead != ([32]byte{}) {
		fmt.Printf("Ended on block: %s\n", nano.EncodeHash(*rescan.NewHead))
	}
	c.handleRescan(rescan)
	fmt.Println("Done")
	return nil
}

func (c *cliClient) cmdSeed(*cli.Context) error {
	if err := c.authenticate(); err != nil {
		return err
	}
	fmt.Println(c.client.Seed.Hex())
	return nil
}

func (c *cliClient) cmdSend(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return errInvalidArguments
	}
	sender, err := nano.ParseAccount(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	amount, err := nano.ParseNanoAmount(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	recipient, err := nano.ParseAccount(ctx.Args().Get(2))
	if err != nil {
		return err
	}

	payment := wallet.Payment{
		Sender:    sender,
		Amount:    amount,
		Recipient: recipient,
	}
	if raw := ctx.String("representative"); raw != "" {
		representative, err := nano.ParseAccount(raw)
		if err != nil {
			return err
		}
		payment.NewRepresentative = &representative
	}

	fmt.Println("Sending...")
	newFrontiers, failures, err := c.client.Send(context.Background(), payment)
	c.client.HandleRPCFailures(failures)
	if err != nil {
		return err
	}
	c.client.SetNewFrontiers(newFrontiers)
	fmt.Println("Done")
	return nil
}

func (c *cliClient) cmdSendCamo(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return errInvalidArguments
	}
	sender, err := nano.ParseAccount(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	amount, err := nano.ParseNanoAmount(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	recipient, err := nano.ParseCamoAccount(ctx.Args().Get(2))
	if err != nil {
		return err
	}
	auto := ctx.Bool("auto")

	var notifierAmount nano.Raw
	switch {
	case ctx.String("notifier-amount") != "":
		if notifierAmount, err = nano.ParseNanoAmount(ctx.String("notifier-amount")); err != nil {
			return err
		}
	case auto:
		notifierAmount = nano.CamoSenderDustThreshold
	default:
		fmt.Println("'notifier-amount' is required if 'auto' is not set")
		return errInvalidArguments
	}

	if notifierAmount.Cmp(nano.CamoSenderDustThreshold) < 0 {
		return wallet.ErrBelowDustThreshold
	}
	if amount.Cmp(notifierAmount) < 0 || amount.Cmp(nano.CamoSenderDustThreshold) < 0 {
		return wallet.ErrBelowDustThreshold
	}

	var notifier nano.Account
	switch {
	case ctx.String("notifier") != "":
		if notifier, err = nano.ParseAccount(ctx.String("notifier")); err != nil {
			return err
		}
	case auto:
		candidates := c.client.AccountsWithBalance(notifierAmount,
			[]nano.Account{sender, recipient.SignerAccount()})
		if len(candidates) > 0 {
			notifier = candidates[0].Block.Account
		} else {
			// No other account has the necessary balance.
			notifier = sender
		}
	default:
		fmt.Println("'notifier' is required if 'auto' is not set")
		return errInvalidArguments
	}

	if auto {
		fmt.Printf("Automatically selected %v as notifier\n", notifier)
		fmt.Printf("Automatically selected %s Nano as notification amount\n",
			notifierAmount.NanoString())
	}

	senderAmount, underflow := amount.SubChecked(notifierAmount)
	if underflow {
		return wallet.ErrBelowDustThreshold
	}
	payment := wallet.CamoPayment{
		Sender:             sender,
		SenderAmount:       senderAmount,
		Notifier:           notifier,
		NotificationAmount: notifierAmount,
		Recipient:          recipient,
	}

	// Record the transaction summary before publishing, so the
	// notification is recoverable even after a partial failure.
	_, notification, err := c.client.CamoTransactionMemo(&payment)
	if err != nil {
		return err
	}
	summary := wallet.CamoTxSummary{
		Recipient:    recipient,
		CamoAmount:   senderAmount,
		TotalAmount:  amount,
		Notification: notification.RepresentativePayload.Bytes(),
	}
	if len(c.camoHistory) == 0 || c.camoHistory[0] != summary {
		c.camoHistory = append([]wallet.CamoTxSummary{summary}, c.camoHistory...)
	}

	fmt.Println("Sending...")
	newFrontiers, failures, err := c.client.SendCamo(context.Background(), payment)
	c.client.HandleRPCFailures(failures)
	// Frontiers of published blocks are committed even on partial failure.
	c.client.SetNewFrontiers(newFrontiers)
	if err != nil {
		return err
	}
	fmt.Println("Done")
	return nil
}

func (c *cliClient) cmdRecoverNotification(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return errInvalidArguments
	}
	sender, err := nano.ParseAccount(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	recipient, err := nano.ParseCamoAccount(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	frontier, err := nano.DecodeHash(ctx.Args().Get(2))
	if err != nil {
		return err
	}

	key := c.client.WalletDB.FindKey(&c.client.Seed, sender)
	if key == nil {
		fmt.Printf("We must know the private key for %v\n", sender)
		return wallet.ErrAccountNotFound
	}
	_, notification, err := recipient.SenderECDH(key, frontier)
	if err != nil {
		return err
	}
	fmt.Printf("Notification: %s\n",
		nano.EncodeHash(notification.RepresentativePayload.Bytes()))
	return nil
}

func (c *cliClient) cmdAckNotification(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errInvalidArguments
	}
	recipient, err := nano.ParseCamoAccount(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	payload, err := nano.DecodeHash(ctx.Args().Get(1))
	if err != nil {
		return err
	}

	info := c.client.WalletDB.CamoAccounts.Info(recipient)
	if info == nil {
		fmt.Printf("We must know the private key for %v\n", recipient)
		return wallet.ErrAccountNotFound
	}
	notification := nano.Notification{
		Recipient:             recipient.SignerAccount(),
		RepresentativePayload: nano.Account(payload),
	}
	_, derivedInfo, err := c.client.Seed.DeriveKey(info, notification)
	if err != nil {
		return err
	}
	c.client.WalletDB.DerivedAccounts.Insert(derivedInfo)
	fmt.Println("Done")
	return nil
}
