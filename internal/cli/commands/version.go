package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display sqlbook version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlbook v%s\n", version)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "A workbench of annotated SQL examples for DuckDB, SQLite, Postgres and SQL Server")
		},
	}
}
