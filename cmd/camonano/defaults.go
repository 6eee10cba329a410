package main

import (
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/CamoNano/camonanowallet/wallet"
)

func mustAccount(addr string) nano.Account {
	account, err := nano.ParseAccount(addr)
	if err != nil {
		panic("invalid default representative: " + addr)
	}
	return account
}

// defaultRepresentatives is the default candidate representative set.
func defaultRepresentatives() []nano.Account {
	return []nano.Account{
		// Nano Charts
		mustAccount("nano_3chartsi6ja8ay1qq9xg3xegqnbg1qx76nouw6jedyb8wx3r4wu94rxap7hg"),
		// Kappture
		mustAccount("nano_3ktybzzy14zxgb6osbhcc155pwk7osbmf5gbh5fo73bsfu9wuiz54t1uozi1"),
		// NANO ITALIA
		mustAccount("nano_1wcxcjbwnnsdpee3d9i365e8bcj1uuyoqg9he5zjpt3r57dnjqe3gdc184ck"),
		// Patrick's Self-Hosted Nano Node
		mustAccount("nano_3patrick68y5btibaujyu7zokw7ctu4onikarddphra6qt688xzrszcg4yuo"),
		// NanoTicker
		mustAccount("nano_1iuz18n4g4wfp9gf7p1s8qkygxw7wx9qfjq6a9aq68uyrdnningdcjontgar"),
		// WeNano
		mustAccount("nano_1wenanoqm7xbypou7x3nue1isaeddamjdnc3z99tekjbfezdbq8fmb659o7t"),
		// gr0vity
		mustAccount("nano_3msc38fyn67pgio16dj586pdrceahtn75qgnx7fy19wscixrc8dbb3abhbw6"),
		// nanowallets.guide
		mustAccount("nano_1zuksmn4e8tjw1ch8m8fbrwy5459bx8645o9euj699rs13qy6ysjhrewioey"),
	}
}

// defaultNodes is the default node pool.
func defaultNodes() []*rpc.Node {
	readOnly := rpc.AllCommands()
	readOnly.Process = false
	readOnly.WorkGenerate = false

	noWork := rpc.AllCommands()
	noWork.WorkGenerate = false

	return []*rpc.Node{
		rpc.NewNode(readOnly, "https://api.nano.kga.earth/node/proxy", ""),
		rpc.NewNode(noWork, "https://app.natrium.io/api", ""),
		rpc.NewNode(rpc.AllCommands(), "https://rainstorm.city/api", ""),
		rpc.NewNode(rpc.AllCommands(), "https://node.somenano.com/proxy", ""),
	}
}

// defaultConfig assembles the default configuration.
func defaultConfig() wallet.Config {
	return wallet.DefaultConfig(defaultRepresentatives(), defaultNodes())
}
