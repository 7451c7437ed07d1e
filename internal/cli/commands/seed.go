package commands

import (
	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/runner"
	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the deterministic seed data",
		Long: `Run the seed stage: clear every table and repopulate it with the fixed
dataset the example queries assume. Seeding an empty database fails;
run setup first.

Re-seeding restores the exact same rows, so example output stays
reproducible no matter what ad-hoc changes happened in between.

Equivalent to: sqlbook run seed`,
		Example: `  # Load the seed data on the default target
  sqlbook seed

  # Reset the data on a named target
  sqlbook seed --target pg`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStage(cmd, "Loading seed data...", runner.RunOptions{
				Stages: []catalog.Stage{catalog.StageSeed},
			})
		},
	}
}
