// Package runner executes catalog scripts against a connected database.
//
// A Runner resolves scripts for the target's dialect, executes their
// statements in order, and records every run in the state ledger.
// Statement failures abort the script, except in cleanup scripts where
// object-not-found failures are tolerated and counted.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/state"
	"github.com/leapstack-labs/sqlbook/pkg/adapter"
)

// DefaultRowLimit caps how many rows a statement result carries when the
// caller does not choose a limit.
const DefaultRowLimit = 50

// DefaultStatePath is where the run ledger lives relative to the working
// directory.
var DefaultStatePath = filepath.Join(".sqlbook", "state.db")

// Runner executes catalog scripts against one database target.
type Runner struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	catalog *catalog.Catalog
	store   *state.Store
	logger  *slog.Logger
	target  string
	rowCap  int
}

// Config holds runner configuration.
type Config struct {
	// Catalog is the loaded script collection.
	Catalog *catalog.Catalog
	// AdapterConfig describes the database target.
	AdapterConfig adapter.Config
	// Target is the configured target name recorded in the ledger.
	// Defaults to the adapter type.
	Target string
	// StatePath is the path to the ledger database.
	// Defaults to DefaultStatePath.
	StatePath string
	// RowLimit caps rows carried per statement result.
	// Defaults to DefaultRowLimit.
	RowLimit int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a runner with a lazy database connection. The database is
// only connected when a run starts; the ledger is opened and migrated
// immediately.
func New(cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if cfg.AdapterConfig.Type == "" {
		return nil, fmt.Errorf("adapter type is required")
	}

	statePath := cfg.StatePath
	if statePath == "" {
		statePath = DefaultStatePath
	}
	if !strings.Contains(statePath, ":memory:") {
		if dir := filepath.Dir(statePath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewStore(logger)
	if err := store.Open(statePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state store: %w", err)
	}

	rowCap := cfg.RowLimit
	if rowCap <= 0 {
		rowCap = DefaultRowLimit
	}

	target := cfg.Target
	if target == "" {
		target = cfg.AdapterConfig.Type
	}

	logger.Debug("initializing runner",
		"target", target,
		"adapter_type", cfg.AdapterConfig.Type,
		"state_path", statePath)

	return &Runner{
		db:       nil, // Lazy
		dbConfig: cfg.AdapterConfig,
		catalog:  cfg.Catalog,
		store:    store,
		logger:   logger,
		target:   target,
		rowCap:   rowCap,
	}, nil
}

// ensureConnected lazily connects to the database.
func (r *Runner) ensureConnected(ctx context.Context) error {
	r.dbMu.Lock()
	defer r.dbMu.Unlock()

	if r.dbConnected {
		return nil
	}

	r.logger.Debug("connecting to database", "adapter_type", r.dbConfig.Type)

	db, err := adapter.NewAdapter(r.dbConfig, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create database adapter: %w", err)
	}

	if err := db.Connect(ctx, r.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	r.db = db
	r.dbConnected = true

	r.logger.Debug("database connected", "dialect", db.Dialect().Name)
	return nil
}

// Connect establishes the database connection eagerly. Runs connect
// lazily on their own; this exists for callers that want connection
// errors before doing other work.
func (r *Runner) Connect(ctx context.Context) error {
	return r.ensureConnected(ctx)
}

// Adapter returns the connected adapter, or nil before the first
// connection.
func (r *Runner) Adapter() adapter.Adapter {
	r.dbMu.Lock()
	defer r.dbMu.Unlock()
	return r.db
}

// Store returns the run ledger.
func (r *Runner) Store() *state.Store {
	return r.store
}

// Close releases the database connection and the ledger.
func (r *Runner) Close() error {
	r.logger.Debug("closing runner")

	var errs []error
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing runner: %v", errs)
	}
	return nil
}
