package main

import (
	"github.com/CamoNano/camonanowallet/build"
	"github.com/CamoNano/camonanowallet/frontiers"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/CamoNano/camonanowallet/storage"
	"github.com/CamoNano/camonanowallet/wallet"
	"github.com/CamoNano/camonanowallet/walletdb"
	"github.com/CamoNano/camonanowallet/work"
	"github.com/decred/slog"
)

// log is the main command logger, replaced once the root writer is ready.
var log = slog.Disabled

// setupLoggers initializes every package-level logger from the root writer.
func setupLoggers(root *build.RotatingLogWriter) {
	log = build.NewSubLogger("CMGR", root.GenSubLogger)
	root.RegisterSubLogger("CMGR", log)

	addSubLogger(root, "CAMO", wallet.UseLogger)
	addSubLogger(root, "WLDB", walletdb.UseLogger)
	addSubLogger(root, "FRDB", frontiers.UseLogger)
	addSubLogger(root, "RPCC", rpc.UseLogger)
	addSubLogger(root, "WORK", work.UseLogger)
	addSubLogger(root, "STOR", storage.UseLogger)
}

// addSubLogger is a helper method to conveniently create and register the
// logger of one or more sub systems.
func addSubLogger(root *build.RotatingLogWriter, subsystem string,
	useLoggers ...func(slog.Logger)) {

	logger := build.NewSubLogger(subsystem, root.GenSubLogger)
	root.RegisterSubLogger(subsystem, logger)
	for _, useLogger := range useLoggers {
		useLogger(logger)
	}
}
