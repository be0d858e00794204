// Package main is the entry point for the ledgerd CLI.
package main

import (
	"os"

	"github.com/brightfund/ledgercore/cmd/ledgerd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
