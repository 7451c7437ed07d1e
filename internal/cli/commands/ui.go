package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbook/internal/ui"
)

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Browse and run topics in an interactive terminal UI",
		Long: `Open a full-screen terminal browser over the example catalog.

The left pane lists every topic available for the configured dialect;
the right pane previews the script. Press enter to run the selected
topic against the target and inspect the per-statement results.`,
		Example: `  # Browse the catalog for the configured target
  sqlbook ui

  # Browse the SQLite variants
  sqlbook ui --target sqlite`,
		Args: cobra.NoArgs,
		RunE: runUICmd,
	}

	return cmd
}

func runUICmd(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Connect before entering the alt screen so connection errors
	// print normally instead of flashing inside the TUI.
	if err := cmdCtx.Runner.Connect(cmd.Context()); err != nil {
		return fmt.Errorf("failed to connect to target: %w", err)
	}

	return ui.Run(cmd.Context(), ui.Config{
		Catalog: cmdCtx.Catalog,
		Runner:  cmdCtx.Runner,
		Target:  cmdCtx.Cfg.Target,
		Dialect: cmdCtx.Dialect(),
		Logger:  cmdCtx.Logger,
	})
}
