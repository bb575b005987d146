// Package cmd holds the ledgerctl subcommands.
package cmd

import (
	"github.com/google/subcommands"
)

var Commands = []subcommands.Command{
	&migrateCmd{},
	&emiCmd{},
	&loanTypesCmd{},
}
