// Package adapter provides database adapter interfaces for running the
// example catalog against real engines.
//
// This package contains the public contract that all database adapters must
// implement. Concrete adapter implementations are in pkg/adapters/
// subdirectories and register themselves through the registry in this
// package.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/sqlbook/pkg/dialect"
)

// Config holds the configuration for connecting to a database.
type Config struct {
	// Type specifies the database type (e.g., "duckdb", "postgres")
	Type string

	// Path is the file path for file-based databases (DuckDB, SQLite).
	// Use ":memory:" for in-memory databases.
	Path string

	// Host is the hostname for network-based databases
	Host string

	// Port is the port number for network-based databases
	Port int

	// Database is the database name
	Database string

	// Username for authentication
	Username string

	// Password for authentication
	Password string

	// Schema is the default schema to use
	Schema string

	// Options contains additional driver-specific connection options
	Options map[string]string

	// Params contains adapter-specific settings decoded by the adapter
	// itself (session settings, encryption options)
	Params map[string]any
}

// Column represents a column in a database table.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Position   int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// ObjectInfo identifies a table or view visible in the target schema.
// The verifier compares these against the catalog's declared schema to
// decide whether setup ran and cleanup completed.
type ObjectInfo struct {
	Schema string
	Name   string
	// Type is "table" or "view".
	Type string
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting to databases, executing SQL, and
// retrieving metadata.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g., INSERT, UPDATE, CREATE).
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// ListObjects returns the tables and views present in the default schema.
	ListObjects(ctx context.Context) ([]ObjectInfo, error)

	// Dialect returns the SQL dialect descriptor for this adapter. It is
	// used to resolve script variants and to quote identifiers in probe
	// queries.
	Dialect() *dialect.Dialect
}
