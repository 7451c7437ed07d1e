package commands

import (
	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/runner"
	"github.com/leapstack-labs/sqlbook/internal/verify"
	"github.com/spf13/cobra"
)

// teardownOptions holds options for the teardown command.
type teardownOptions struct {
	verify bool
}

// NewTeardownCommand creates the teardown command.
func NewTeardownCommand() *cobra.Command {
	opts := &teardownOptions{}

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Drop everything the collection created",
		Long: `Run the cleanup stage: drop every object the collection created,
dependent objects first. Already-missing objects are tolerated, so
teardown converges on a half-built or pristine database too.

With --verify an after-cleanup verification runs once the drops finish,
confirming no collection object survived.

Equivalent to: sqlbook run cleanup`,
		Example: `  # Drop the example schema
  sqlbook teardown

  # Drop it and prove nothing is left behind
  sqlbook teardown --verify`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTeardown(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.verify, "verify", false, "Verify that no collection object survived")

	return cmd
}

func runTeardown(cmd *cobra.Command, opts *teardownOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Keep dropping past failures so a partial teardown still removes
	// everything it can reach.
	err = runStageWith(cmd, cmdCtx, "Dropping objects...", runner.RunOptions{
		Stages:    []catalog.Stage{catalog.StageCleanup},
		KeepGoing: true,
	})
	if err != nil {
		return err
	}

	if opts.verify {
		return runVerifyWith(cmd.Context(), cmdCtx, verify.ModeAfterCleanup)
	}
	return nil
}
