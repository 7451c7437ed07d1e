package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/sqlbook/internal/runner"
	"github.com/leapstack-labs/sqlbook/internal/script"
	"github.com/spf13/cobra"
)

// queryOptions holds options for the query command.
type queryOptions struct {
	Format string
	Input  string
	Limit  int
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run ad-hoc SQL against the selected target",
		Long: `Execute SQL directly against the selected target database.

Pass the SQL as an argument, pipe it on stdin, or point --input at a
file. Multiple statements separated by semicolons run in order; row
results render in the chosen format.

When invoked without arguments on a terminal, enters interactive REPL
mode with history, table-name completion and dot-commands.`,
		Example: `  # Execute SQL directly
  sqlbook query "SELECT * FROM employees LIMIT 5"

  # Pipe a script
  cat scratch.sql | sqlbook query

  # List the objects in the target schema
  sqlbook query tables

  # Show the columns of a table
  sqlbook query schema orders

  # Output as JSON
  sqlbook query "SELECT * FROM departments" --format json

  # Interactive mode
  sqlbook query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Keep at most this many rows per result (0 keeps all)")

	// Subcommands
	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQueryViewsCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *queryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Determine SQL source
	var sqlText string

	switch {
	case len(args) > 0:
		sqlText = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlText = string(content)
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlText = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cmdCtx, opts)
	}

	if err := cmdCtx.Runner.Connect(cmd.Context()); err != nil {
		return err
	}
	return executeAndRender(cmd.Context(), cmd.OutOrStdout(), cmdCtx.Runner, sqlText, opts)
}

// executeAndRender splits the input into statements and runs them in
// order. Row-returning statements render in the requested format,
// everything else just executes.
func executeAndRender(ctx context.Context, w io.Writer, run *runner.Runner, sqlText string, opts *queryOptions) error {
	statements, err := script.Split(sqlText)
	if err != nil {
		return err
	}
	if len(statements) == 0 {
		return fmt.Errorf("no SQL statements in input")
	}

	db := run.Adapter()
	for _, st := range statements {
		if !st.ReturnsRows() {
			if err := db.Exec(ctx, st.SQL); err != nil {
				return fmt.Errorf("statement failed: %w", err)
			}
			continue
		}

		rows, err := db.Query(ctx, st.SQL)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		columns, data, truncated, err := runner.CollectRows(rows, opts.Limit)
		_ = rows.Close()
		if err != nil {
			return err
		}
		if err := renderQueryRows(w, columns, data, truncated, opts.Format); err != nil {
			return err
		}
	}
	return nil
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *queryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables and views in the target schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cmdCtx.Runner.Connect(cmd.Context()); err != nil {
				return err
			}
			return listObjects(cmd.Context(), cmd.OutOrStdout(), cmdCtx.Runner, opts.Format, false)
		},
	}
}

// newQueryViewsCommand creates the views subcommand.
func newQueryViewsCommand(opts *queryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List views only",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cmdCtx.Runner.Connect(cmd.Context()); err != nil {
				return err
			}
			return listObjects(cmd.Context(), cmd.OutOrStdout(), cmdCtx.Runner, opts.Format, true)
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(opts *queryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the columns of a table or view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cmdCtx.Runner.Connect(cmd.Context()); err != nil {
				return err
			}
			return showTableSchema(cmd.Context(), cmd.OutOrStdout(), cmdCtx.Runner, args[0], opts.Format)
		},
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
