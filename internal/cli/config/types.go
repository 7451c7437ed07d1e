// Package config loads sqlbook's layered configuration.
//
// Values resolve in precedence order: command-line flags beat SQLBOOK_
// environment variables, which beat sqlbook.yaml, which beats built-in
// defaults. The config file is found by searching upward from the
// working directory, so sqlbook can run from anywhere inside a
// workbook directory.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlbook/pkg/adapter"
	"github.com/leapstack-labs/sqlbook/pkg/dialect"
)

// Default configuration values.
const (
	DefaultTargetName = "default"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultRowLimit   = 50
)

// DefaultStateFile is where the run ledger lives, relative to the
// project root.
var DefaultStateFile = filepath.Join(".sqlbook", "state.db")

// Target describes one database the catalog can run against.
type Target struct {
	Type string `koanf:"type"` // duckdb, sqlite, postgres, mssql

	// File-based engines (DuckDB, SQLite); ":memory:" is respected.
	Path string `koanf:"path"`

	// Network engines
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Schema objects are created in. Defaults to the dialect's usual
	// schema (main, public, dbo).
	Schema string `koanf:"schema"`

	// Additional driver-specific connection options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific settings (session options,
	// encryption) decoded by the adapter itself.
	Params map[string]any `koanf:"params"`
}

// Config is the resolved sqlbook configuration.
type Config struct {
	// Target names the entry in Targets to run against.
	Target  string             `koanf:"target"`
	Targets map[string]*Target `koanf:"targets"`

	StatePath string `koanf:"state_path"`
	RowLimit  int    `koanf:"row_limit"`
	Verbose   bool   `koanf:"verbose"`
	Output    string `koanf:"output"`

	// ProjectRoot is the directory relative paths resolve against:
	// the config file's directory when one was found, the working
	// directory otherwise.
	ProjectRoot string `koanf:"-"`

	// Selected is the target the Target name resolved to.
	Selected *Target `koanf:"-"`
}

// AdapterConfig maps a target onto the adapter connection config.
func (t *Target) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     t.Type,
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
}

// Dialect returns the SQL dialect name for this target. Adapter types
// and dialect names coincide.
func (t *Target) Dialect() string {
	return strings.ToLower(t.Type)
}

// applyTargetDefaults fills in the schema and port a target leaves
// unset.
func applyTargetDefaults(t *Target) {
	if t == nil {
		return
	}
	if t.Schema == "" {
		if d, ok := dialect.Get(t.Type); ok {
			t.Schema = d.DefaultSchema
		}
	}
	if t.Port == 0 {
		switch t.Type {
		case "postgres":
			t.Port = 5432
		case "mssql":
			t.Port = 1433
		}
	}
}

// TargetNames returns the configured target names, sorted.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownTargetError is returned when the selected target is not
// configured.
type UnknownTargetError struct {
	Name      string
	Available []string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target %q\nAvailable targets: %v\nHint: Define it under targets in sqlbook.yaml or pass --target", e.Name, e.Available)
}
