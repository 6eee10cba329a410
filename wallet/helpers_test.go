package wallet

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/keychain"
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/stretchr/testify/require"
)

// mustSeed builds a seed from one repeated hex byte.
func mustSeed(t *testing.T, fill string) keychain.Seed {
	t.Helper()
	seed, err := keychain.SeedFromHex(strings.Repeat(fill, 32))
	require.NoError(t, err)
	return seed
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func rpcReceivable(recipient nano.Account, hash [32]byte, amount nano.Raw) *rpc.Receivable {
	return &rpc.Receivable{Recipient: recipient, BlockHash: hash, Amount: amount}
}

// frontierForUnopened inserts and returns the unopened sentinel frontier for
// an account.
func frontierForUnopened(t *testing.T, c *Client, account nano.Account) *frontiers.FrontierInfo {
	t.Helper()
	require.NoError(t, c.Frontiers.Insert(frontiers.NewFrontiers{
		New: []frontiers.FrontierInfo{frontiers.NewUnopened(account)},
	}))
	frontier := c.Frontiers.AccountFrontier(account)
	require.NotNil(t, frontier)
	return frontier
}
