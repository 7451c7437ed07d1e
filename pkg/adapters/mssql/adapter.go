// Package mssql provides a Microsoft SQL Server database adapter for sqlbook.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlbook/pkg/adapter"
	"github.com/leapstack-labs/sqlbook/pkg/dialect"

	_ "github.com/microsoft/go-mssqldb" // sqlserver driver
)

// Adapter implements the adapter.Adapter interface for SQL Server.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQL Server adapter instance.
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
	d, _ := dialect.Get("mssql")
	return d
}

// Connect establishes a connection to SQL Server.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return fmt.Errorf("invalid mssql params: %w", err)
	}

	connString := buildConnString(cfg, params)

	a.Logger.Debug("connecting to sqlserver", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return fmt.Errorf("failed to open sqlserver connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlserver: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildConnString constructs a go-mssqldb semicolon-delimited connection string.
func buildConnString(cfg adapter.Config, params Params) string {
	var b strings.Builder

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 1433
	}

	fmt.Fprintf(&b, "server=%s;port=%d;database=%s;user id=%s;password=%s",
		host, port, cfg.Database, cfg.Username, cfg.Password)

	if params.Encrypt != "" {
		fmt.Fprintf(&b, ";encrypt=%s", params.Encrypt)
	} else {
		b.WriteString(";encrypt=false")
	}
	if params.TrustServerCertificate {
		b.WriteString(";trustservercertificate=true")
	}
	if params.AppName != "" {
		fmt.Fprintf(&b, ";app name=%s", params.AppName)
	}

	return b.String()
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.TableMetadata, error) {
	return a.GetTableMetadataCommon(ctx, table, a.Dialect())
}

// ListObjects returns the tables and views in the target schema.
// History tables of system-versioned tables show up here too, so the
// declared schema for mssql includes them.
func (a *Adapter) ListObjects(ctx context.Context) ([]adapter.ObjectInfo, error) {
	return a.ListObjectsCommon(ctx, a.Dialect())
}
