package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlbook/pkg/adapter"
	"github.com/leapstack-labs/sqlbook/pkg/dialect"
)

// DefaultSchemaForType returns the default schema for a database type.
// Unknown types fall back to "main".
func DefaultSchemaForType(dbType string) string {
	if d, ok := dialect.Get(dbType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "main"
}

// Validate checks if the target configuration is valid. The adapter
// registry is the single source of truth for which types exist.
func (t *Target) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if c.Selected == nil {
		return fmt.Errorf("no target selected")
	}
	if err := c.Selected.Validate(); err != nil {
		return err
	}
	if c.RowLimit < 0 {
		return fmt.Errorf("row_limit must not be negative")
	}
	switch c.Output {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("invalid output mode %q (valid: auto, text, markdown, json)", c.Output)
	}
	return nil
}
