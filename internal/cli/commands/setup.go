package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/cli/output"
	"github.com/leapstack-labs/sqlbook/internal/runner"
	"github.com/spf13/cobra"
)

// NewSetupCommand creates the setup command.
func NewSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the example schema on the selected target",
		Long: `Run the setup stage: create every table, view, index and history
trigger the example queries assume. Setup is idempotent, so running it
twice converges instead of failing.

Equivalent to: sqlbook run setup`,
		Example: `  # Create the schema on the default target
  sqlbook setup

  # Create the schema on SQL Server
  sqlbook setup --target mssql`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStage(cmd, "Creating schema...", runner.RunOptions{
				Stages: []catalog.Stage{catalog.StageSetup},
			})
		},
	}
}

// runStage executes one whole stage and renders the outcome. Shared by
// the setup, seed and teardown commands.
func runStage(cmd *cobra.Command, progress string, opts runner.RunOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return runStageWith(cmd, cmdCtx, progress, opts)
}

// runStageWith is runStage against an existing context, for commands
// that keep working with the runner afterwards.
func runStageWith(cmd *cobra.Command, cmdCtx *CommandContext, progress string, opts runner.RunOptions) error {
	r := cmdCtx.Renderer

	var spinner *output.Spinner
	if r.EffectiveMode() == output.ModeText {
		spinner = r.NewSpinner(progress)
		spinner.Start()
	}

	result, runErr := cmdCtx.Runner.Run(cmd.Context(), opts)
	if result == nil {
		if spinner != nil {
			spinner.Fail("Run failed to start")
		}
		return runErr
	}
	if spinner != nil {
		if runErr == nil {
			spinner.Success(fmt.Sprintf("Completed in %s", result.Duration.Round(time.Millisecond)))
		} else {
			spinner.Fail("Failed")
		}
	}

	renderRunResult(r, result)
	return runErr
}
