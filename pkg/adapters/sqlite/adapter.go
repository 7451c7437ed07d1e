// Package sqlite provides a SQLite database adapter for sqlbook.
//
// The adapter uses the pure Go modernc.org/sqlite driver, so catalog runs
// against SQLite need no cgo and no external server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlbook/pkg/adapter"
	"github.com/leapstack-labs/sqlbook/pkg/dialect"

	_ "modernc.org/sqlite" // sqlite driver
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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
	d, _ := dialect.Get("sqlite")
	return d
}

// Connect establishes a connection to SQLite.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}

	// An in-memory database exists per connection, so the pool must be
	// pinned to a single connection or each statement may see a fresh
	// empty database.
	if strings.Contains(path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	// The catalog's seed scripts rely on declared foreign keys being
	// enforced, which SQLite disables unless asked.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// GetTableMetadata retrieves metadata for a specified table.
// SQLite has no information_schema, so this shells out to the
// pragma_table_info table-valued function instead.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.TableMetadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	_, tableName := adapter.ParseQualifiedName(table, a.Dialect())

	query := `
		SELECT name, type, "notnull", pk, cid
		FROM pragma_table_info(?)
		ORDER BY cid
	`

	rows, err := a.DB.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var col adapter.Column
		var notNull, pk, cid int
		if err := rows.Scan(&col.Name, &col.Type, &notNull, &pk, &cid); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = notNull == 0
		col.PrimaryKey = pk > 0
		col.Position = cid + 1
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", a.Dialect().QuoteIdentifier(tableName)) //nolint:gosec // names come from catalog metadata
	var rowCount int64
	if err := a.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		rowCount = 0
	}

	return &adapter.TableMetadata{
		Schema:   "main",
		Name:     tableName,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

// ListObjects returns the tables and views recorded in sqlite_master,
// excluding SQLite's own bookkeeping tables.
func (a *Adapter) ListObjects(ctx context.Context) ([]adapter.ObjectInfo, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var objects []adapter.ObjectInfo
	for rows.Next() {
		var obj adapter.ObjectInfo
		if err := rows.Scan(&obj.Name, &obj.Type); err != nil {
			return nil, fmt.Errorf("failed to scan object row: %w", err)
		}
		obj.Schema = "main"
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating object rows: %w", err)
	}
	return objects, nil
}
