// Package dialect describes the SQL dialects targeted by the example catalog.
//
// This package contains the public contract for dialect definitions used by the
// script catalog, the runner, and the verification checks. A Dialect here is a
// descriptor, not a parser: it records how an engine quotes identifiers, formats
// placeholders, and which optional SQL surface it supports, so that callers can
// pick the right script variant or probe query. Concrete dialects are defined in
// builtin.go and registered at package load time.
package dialect

import (
	"fmt"
	"strings"
)

// PlaceholderStyle describes how a dialect formats query parameters.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (SQLite, DuckDB).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, ... (Postgres).
	PlaceholderDollar
	// PlaceholderAtP uses @p1, @p2, ... (SQL Server).
	PlaceholderAtP
)

// Features records the optional SQL surface a dialect supports.
// The catalog uses these flags to decide which script variants apply and the
// verifier uses them to build portable probe queries.
type Features struct {
	// RecursiveKeyword is true when recursive CTEs require the RECURSIVE
	// keyword after WITH. SQL Server omits it; everyone else requires it.
	RecursiveKeyword bool

	// GenerateSeries is true when the engine ships a native series-generating
	// table function (generate_series, range).
	GenerateSeries bool

	// Triggers is true when row-level triggers can maintain history tables.
	Triggers bool

	// SystemVersioning is true when the engine maintains temporal history
	// itself (SQL Server system-versioned tables).
	SystemVersioning bool

	// GeneratedStored is true when generated columns must be declared
	// STORED or PERSISTED rather than virtual.
	GeneratedStored bool

	// XML is true when the engine has XML construction and shredding functions.
	XML bool

	// JSON is true when the engine has JSON functions built in.
	JSON bool
}

// Dialect represents a SQL dialect descriptor.
type Dialect struct {
	// Name is the canonical lowercase dialect name ("duckdb", "sqlite",
	// "postgres", "mssql"). It doubles as the override directory name in
	// the script catalog.
	Name string

	// DisplayName is the human-readable engine name for output.
	DisplayName string

	// DefaultSchema is the schema unqualified names resolve to
	// ("main" for DuckDB and SQLite, "public" for Postgres, "dbo" for
	// SQL Server).
	DefaultSchema string

	// QuoteStart and QuoteEnd delimit quoted identifiers. Both are `"` for
	// everything except SQL Server's brackets.
	QuoteStart string
	QuoteEnd   string

	// Placeholder is the parameter style the driver expects.
	Placeholder PlaceholderStyle

	// ExplainPrefix, when non-empty, is prepended to a statement to obtain
	// the engine's plan output. Empty means the engine has no prefix form
	// (SQL Server uses session settings instead).
	ExplainPrefix string

	// Features is the optional SQL surface supported by the engine.
	Features Features
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return fmt.Sprintf("$%d", index)
	case PlaceholderAtP:
		return fmt.Sprintf("@p%d", index)
	default:
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
// An embedded closing quote is doubled.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.QuoteEnd, d.QuoteEnd+d.QuoteEnd)
	return d.QuoteStart + escaped + d.QuoteEnd
}

// RecursiveCTE returns the WITH clause opener for a recursive CTE, honoring
// the dialect's RECURSIVE keyword requirement.
func (d *Dialect) RecursiveCTE() string {
	if d.Features.RecursiveKeyword {
		return "WITH RECURSIVE"
	}
	return "WITH"
}

// Explain wraps a statement in the dialect's plan-inspection form.
// The second return value is false when the dialect has no prefix form.
func (d *Dialect) Explain(sqlStr string) (string, bool) {
	if d.ExplainPrefix == "" {
		return "", false
	}
	return d.ExplainPrefix + sqlStr, true
}
