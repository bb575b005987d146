package cmd

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/jade-bank/core-ledger/src/internal/adapter/repository/postgres"
	"github.com/jade-bank/core-ledger/src/internal/config"
)

type migrateCmd struct {
	dir     string
	timeout time.Duration
	status  bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate [-dir <migrations_dir>] [-timeout <duration>] [-status]

  Applies every migration file that is not yet recorded in schema_migrations,
  in file name order. The database is read from DATABASE_DSN.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Migrations directory. Defaults to MIGRATIONS_DIR.")
	f.DurationVar(&c.timeout, "timeout", 30*time.Second, "Maximum time for the whole run.")
	f.BoolVar(&c.status, "status", false, "List migrations and whether each is applied, without applying any.")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return subcommands.ExitFailure
	}
	dir := cfg.MigrationsDir
	if c.dir != "" {
		dir = c.dir
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.DatabaseDSN, cfg.Pool())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if c.status {
		return printMigrationStatus(ctx, db, dir)
	}

	applied, err := postgres.RunMigrations(ctx, db, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run migrations: %v\n", err)
		return subcommands.ExitFailure
	}

	if len(applied) == 0 {
		fmt.Println("schema is up to date")
		return subcommands.ExitSuccess
	}
	for _, version := range applied {
		fmt.Printf("applied %s\n", version)
	}
	return subcommands.ExitSuccess
}

func printMigrationStatus(ctx context.Context, db *sql.DB, dir string) subcommands.ExitStatus {
	statuses, err := postgres.PendingMigrations(ctx, db, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migration status: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE")
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(w, "%s\t%s\n", s.Version, state)
	}
	if err := w.Flush(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
