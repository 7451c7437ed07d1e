// Package state persists run history for sqlbook.
//
// Every catalog run is recorded in a small SQLite ledger: one row per
// run, plus one row per script executed within it. The ledger lives at
// .sqlbook/state.db by default and its schema is created on first use
// through embedded goose migrations.
package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver
)

// RunStatus represents the status of a catalog run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run represents one invocation of the runner against a target.
type Run struct {
	ID          string
	Target      string
	Dialect     string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// ScriptRunStatus represents the status of a single script execution.
type ScriptRunStatus string

// Script run status constants.
const (
	ScriptRunStatusRunning ScriptRunStatus = "running"
	ScriptRunStatusSuccess ScriptRunStatus = "success"
	ScriptRunStatusFailed  ScriptRunStatus = "failed"
	ScriptRunStatusSkipped ScriptRunStatus = "skipped"
)

// ScriptRun represents one script executed within a run. The statement
// counters split executions into succeeded, failed, and tolerated, where
// tolerated covers object-not-found failures absorbed in
// continue-on-error mode.
type ScriptRun struct {
	ID                  string
	RunID               string
	Topic               string
	Stage               string
	Status              ScriptRunStatus
	StatementsOK        int
	StatementsFailed    int
	StatementsTolerated int
	StartedAt           time.Time
	CompletedAt         *time.Time
	Error               string
	ExecutionMS         int64
}

// Store is the SQLite-backed run ledger.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore creates a new ledger store.
// If logger is nil, a discard logger is used.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the ledger database at path, creating the file if needed.
// Use ":memory:" for an in-memory ledger.
func (s *Store) Open(path string) error {
	s.logger.Debug("opening state database", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}

	// An in-memory database exists per connection, so the pool must be
	// pinned to a single connection or each statement may see a fresh
	// empty database.
	inMemory := strings.Contains(path, ":memory:")
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping state database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if !inMemory {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to set journal mode: %w", err)
		}
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the ledger database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the path the ledger was opened with.
func (s *Store) Path() string {
	return s.path
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}
