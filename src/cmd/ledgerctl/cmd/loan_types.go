package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/jade-bank/core-ledger/src/internal/domain"
)

type loanTypesCmd struct{}

func (*loanTypesCmd) Name() string     { return "loan-types" }
func (*loanTypesCmd) Synopsis() string { return "list loan and account type limits" }
func (*loanTypesCmd) Usage() string {
	return `ledgerctl loan-types

  Prints the loan and account type catalog the ledger enforces.
`
}

func (*loanTypesCmd) SetFlags(*flag.FlagSet) {}

func (*loanTypesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	catalog := domain.DefaultCatalog()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "LOAN TYPE\tMAX AMOUNT\tTENURE\tDEFAULT RATE")
	for _, loanType := range catalog.LoanTypes() {
		cfg, _ := catalog.LoanType(loanType)
		fmt.Fprintf(tw, "%s\t%s\t%d-%d months\t%s%%\n",
			loanType, domain.FormatAmount(cfg.MaxAmount), cfg.MinTenure, cfg.MaxTenure, cfg.DefaultRate.StringFixed(2))
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "ACCOUNT TYPE\tMIN BALANCE\tDAILY LIMIT\tMIN DEPOSIT")
	for _, accountType := range catalog.AccountTypes() {
		cfg, _ := catalog.AccountType(accountType)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			accountType, domain.FormatAmount(cfg.MinBalance), domain.FormatAmount(cfg.DailyLimit), domain.FormatAmount(cfg.MinInitialDeposit))
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
