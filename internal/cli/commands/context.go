package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/cli/config"
	"github.com/leapstack-labs/sqlbook/internal/cli/output"
	"github.com/leapstack-labs/sqlbook/internal/runner"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Catalog  *catalog.Catalog
	Runner   *runner.Runner
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with the loaded catalog, a
// runner bound to the selected target, and a renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc, err := NewCommandContextWithoutRunner(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cc.Cfg.Selected == nil {
		return nil, nil, fmt.Errorf("no target selected")
	}

	run, err := runner.New(runner.Config{
		Catalog:       cc.Catalog,
		AdapterConfig: cc.Cfg.Selected.AdapterConfig(),
		Target:        cc.Cfg.Target,
		StatePath:     cc.Cfg.StatePath,
		RowLimit:      cc.Cfg.RowLimit,
		Logger:        cc.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	cc.Runner = run

	cleanup := func() {
		_ = run.Close()
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutRunner creates a CommandContext without a runner.
// Useful for commands that never open a database connection.
func NewCommandContextWithoutRunner(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("loading script catalog: %w", err)
	}

	mode := output.Mode(cfg.Output)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Catalog:  cat,
		Renderer: r,
	}, nil
}

// Dialect returns the SQL dialect name of the selected target.
func (cc *CommandContext) Dialect() string {
	if cc.Cfg == nil || cc.Cfg.Selected == nil {
		return ""
	}
	return cc.Cfg.Selected.Dialect()
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	statePath := getEnvOrDefault("SQLBOOK_STATE_PATH", config.DefaultStateFile)
	outputMode := getEnvOrDefault("SQLBOOK_OUTPUT", config.DefaultOutput)
	verbose := os.Getenv("SQLBOOK_VERBOSE") == "true"

	target := &config.Target{Type: "duckdb", Path: ":memory:", Schema: "main"}
	return &config.Config{
		Target:    config.DefaultTargetName,
		Targets:   map[string]*config.Target{config.DefaultTargetName: target},
		Selected:  target,
		StatePath: statePath,
		RowLimit:  config.DefaultRowLimit,
		Verbose:   verbose,
		Output:    outputMode,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
