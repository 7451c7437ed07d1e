// Package main is the sqlbook entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/sqlbook/internal/cli"

	// Register the database adapters the CLI can target.
	_ "github.com/leapstack-labs/sqlbook/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlbook/pkg/adapters/mssql"
	_ "github.com/leapstack-labs/sqlbook/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqlbook/pkg/adapters/sqlite"
)

func main() {
	// Ctrl+C cancels the context so in-flight runs record a cancelled
	// status in the ledger instead of dying mid-script.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
