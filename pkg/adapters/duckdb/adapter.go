// Package duckdb provides a DuckDB database adapter for sqlbook.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlbook/pkg/adapter"
	"github.com/leapstack-labs/sqlbook/pkg/dialect"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the SQL dialect descriptor for this adapter.
func (a *Adapter) Dialect() *dialect.Dialect {
	d, _ := dialect.Get("duckdb")
	return d
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return fmt.Errorf("invalid duckdb params: %w", err)
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}

	return nil
}

// applyParams loads extensions and applies session settings after connect.
func (a *Adapter) applyParams(ctx context.Context, params Params) error {
	for _, ext := range params.Extensions {
		a.Logger.Debug("loading duckdb extension", slog.String("extension", ext))
		stmt := fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)
		if _, err := a.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to load duckdb extension %s: %w", ext, err)
		}
	}

	for key, value := range params.Settings {
		stmt := fmt.Sprintf("SET %s = '%s'", key, value)
		if _, err := a.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply duckdb setting %s: %w", key, err)
		}
	}

	return nil
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.TableMetadata, error) {
	return a.GetTableMetadataCommon(ctx, table, a.Dialect())
}

// ListObjects returns the tables and views in the main schema.
func (a *Adapter) ListObjects(ctx context.Context) ([]adapter.ObjectInfo, error) {
	return a.ListObjectsCommon(ctx, a.Dialect())
}
