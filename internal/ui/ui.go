// Package ui is the terminal catalog browser.
//
// It presents the topic list alongside a preview of the resolved script
// and runs topics against the selected target without leaving the
// terminal. The browser is read-mostly: the only mutation it can cause
// is running a script, the same thing the run command does.
package ui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/runner"
)

// Config holds the browser's dependencies.
type Config struct {
	// Catalog is the loaded script collection.
	Catalog *catalog.Catalog

	// Runner executes topics against the selected target.
	Runner *runner.Runner

	// Target and Dialect name the selected target for the status bar.
	Target  string
	Dialect string

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Run starts the browser and blocks until the user quits.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	m, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser exited: %w", err)
	}
	return nil
}
